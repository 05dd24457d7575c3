/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// Paging is an optional skip/take window. A nil field means the bound was
// not requested, which is different from an explicit zero: Take(0) selects
// nothing while an absent take is unbounded.
type Paging struct {
	Skip *int
	Take *int
}

// HasSkip reports whether a positive skip was requested.
func (p Paging) HasSkip() bool { return p.Skip != nil && *p.Skip > 0 }

// HasTake reports whether a take bound was requested, including zero.
func (p Paging) HasTake() bool { return p.Take != nil }

// IsEmpty reports whether the window can never contain an element.
func (p Paging) IsEmpty() bool { return p.Take != nil && *p.Take == 0 }

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// PageRequest describes a one-based page of a sorted result set.
type PageRequest struct {
	page     int
	pageSize int
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = 10
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 1 {
		p.page = 1
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// Paging converts the page into a skip/take window.
func (p *PageRequest) Paging() Paging {
	return Paging{Skip: IntPtr(p.GetOffset()), Take: IntPtr(p.GetPageSize())}
}

// NewPageRequest constructs a PageRequest; out of range values fall back to
// page 1 and a page size of 10.
func NewPageRequest(page int, pageSize int) *PageRequest {
	return &PageRequest{page, pageSize}
}

// Pagination holds paged result items along with pagination metadata.
type Pagination[T any] struct {
	Page     int
	PageSize int
	Total    int
	Items    []*T
}

// Pages returns the number of pages needed for Total items.
func (p *Pagination[T]) Pages() int {
	if p.PageSize < 1 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// NewDefaultPagination constructs an empty pagination container.
func NewDefaultPagination[T any](page int, pageSize int) *Pagination[T] {
	return &Pagination[T]{page, pageSize, 0, make([]*T, 0)}
}
