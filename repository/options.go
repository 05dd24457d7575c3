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

package repository

import (
	"github.com/tomoncle/unitrepo/session"
	"github.com/tomoncle/unitrepo/types"
	"github.com/uptrace/bun"
)

type selectOptions[T any] struct {
	filters    []session.Predicate
	orderBy    []OrderByClause[T]
	paging     types.Paging
	includes   []string
	noTracking bool
}

// SelectOption configures one Select, List, Count or Page call.
type SelectOption[T any] func(*selectOptions[T])

func newSelectOptions[T any](opts []SelectOption[T]) *selectOptions[T] {
	o := &selectOptions[T]{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Where restricts the results to rows accepted by predicate. Several Where
// options are combined with AND.
func Where[T any](predicate session.Predicate) SelectOption[T] {
	return func(o *selectOptions[T]) {
		if predicate != nil {
			o.filters = append(o.filters, predicate)
		}
	}
}

// WhereFilter is Where for a QueryFilter.
func WhereFilter[T any](filter *types.QueryFilter) SelectOption[T] {
	return func(o *selectOptions[T]) {
		if filter == nil || filter.Schema == "" {
			return
		}
		o.filters = append(o.filters, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where(filter.Schema, filter.Args...)
		})
	}
}

// OrderBy sorts by clauses, the first one being the primary key.
func OrderBy[T any](clauses ...OrderByClause[T]) SelectOption[T] {
	return func(o *selectOptions[T]) {
		o.orderBy = append(o.orderBy, clauses...)
	}
}

// Skip bypasses the first n results. Without an explicit sort the skipped
// rows are whatever the store returns first.
func Skip[T any](n int) SelectOption[T] {
	return func(o *selectOptions[T]) { o.paging.Skip = types.IntPtr(n) }
}

// Take returns at most n results. Take(0) returns nothing; leave Take out for
// no limit.
func Take[T any](n int) SelectOption[T] {
	return func(o *selectOptions[T]) { o.paging.Take = types.IntPtr(n) }
}

// WithPaging sets skip and take from p; nil bounds are left unset.
func WithPaging[T any](p types.Paging) SelectOption[T] {
	return func(o *selectOptions[T]) {
		if p.Skip != nil {
			o.paging.Skip = types.IntPtr(*p.Skip)
		}
		if p.Take != nil {
			o.paging.Take = types.IntPtr(*p.Take)
		}
	}
}

// Include eagerly loads the named relations. Nested relations use dotted
// paths such as "Books.Reviews".
func Include[T any](paths ...string) SelectOption[T] {
	return func(o *selectOptions[T]) {
		o.includes = append(o.includes, paths...)
	}
}

// NoTracking returns results without attaching them to the session.
func NoTracking[T any]() SelectOption[T] {
	return func(o *selectOptions[T]) { o.noTracking = true }
}

// build composes the query: filter, sort, skip, take, include.
func (o *selectOptions[T]) build(q *session.Query[T]) *session.Query[T] {
	for _, p := range o.filters {
		q = q.Where(p)
	}
	for i, clause := range o.orderBy {
		q = clause.ApplySort(q, i == 0)
	}
	if o.paging.Skip != nil {
		q = q.Skip(*o.paging.Skip)
	}
	if o.paging.Take != nil {
		q = q.Take(*o.paging.Take)
	}
	for _, path := range o.includes {
		q = q.Include(path)
	}
	if o.noTracking {
		q = q.AsNoTracking()
	}
	return q
}
