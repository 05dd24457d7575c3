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

package session

import (
	"context"
	"fmt"
	"iter"
	"math"
	"reflect"
	"strings"

	"github.com/tomoncle/unitrepo/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Predicate narrows a select query, usually with Where.
type Predicate func(*bun.SelectQuery) *bun.SelectQuery

type orderTerm struct {
	column    string
	direction types.SortDirection
}

// Query is an immutable query over T. Every builder method returns a new
// query; composition errors are kept and returned when the query runs.
type Query[T any] struct {
	session    *Session
	filters    []Predicate
	orders     []orderTerm
	paging     types.Paging
	includes   []string
	noTracking bool
	err        error
}

func NewQuery[T any](s *Session) *Query[T] {
	return &Query[T]{session: s}
}

func (q *Query[T]) clone() *Query[T] {
	c := *q
	c.filters = append([]Predicate(nil), q.filters...)
	c.orders = append([]orderTerm(nil), q.orders...)
	c.includes = append([]string(nil), q.includes...)
	if q.paging.Skip != nil {
		c.paging.Skip = types.IntPtr(*q.paging.Skip)
	}
	if q.paging.Take != nil {
		c.paging.Take = types.IntPtr(*q.paging.Take)
	}
	return &c
}

func (q *Query[T]) fail(err error) *Query[T] {
	c := q.clone()
	if c.err == nil {
		c.err = err
	}
	return c
}

// Err returns the first composition error, if any.
func (q *Query[T]) Err() error { return q.err }

// IsOrdered reports whether a sort key has been established.
func (q *Query[T]) IsOrdered() bool { return len(q.orders) > 0 }

func (q *Query[T]) Where(p Predicate) *Query[T] {
	if p == nil {
		return q
	}
	if q.paging.HasSkip() || q.paging.HasTake() {
		return q.fail(ErrCompositionOrder)
	}
	c := q.clone()
	c.filters = append(c.filters, p)
	return c
}

// OrderBy replaces any existing order with column ascending.
func (q *Query[T]) OrderBy(column string) *Query[T] {
	return q.order(column, types.Ascending, true)
}

func (q *Query[T]) OrderByDescending(column string) *Query[T] {
	return q.order(column, types.Descending, true)
}

// ThenBy adds column ascending as a subordinate key.
func (q *Query[T]) ThenBy(column string) *Query[T] {
	return q.order(column, types.Ascending, false)
}

func (q *Query[T]) ThenByDescending(column string) *Query[T] {
	return q.order(column, types.Descending, false)
}

// OrderByDirection replaces any existing order with column in direction dir.
func (q *Query[T]) OrderByDirection(column string, dir types.SortDirection) *Query[T] {
	return q.order(column, dir, true)
}

// ThenByDirection adds column in direction dir as a subordinate key.
func (q *Query[T]) ThenByDirection(column string, dir types.SortDirection) *Query[T] {
	return q.order(column, dir, false)
}

func (q *Query[T]) order(column string, dir types.SortDirection, first bool) *Query[T] {
	column = strings.TrimSpace(column)
	switch {
	case column == "":
		return q.fail(ErrEmptyColumn)
	case !dir.IsValid():
		return q.fail(fmt.Errorf("%w: %d", ErrInvalidDirection, dir))
	case q.paging.HasSkip() || q.paging.HasTake():
		return q.fail(ErrCompositionOrder)
	case !first && !q.IsOrdered():
		return q.fail(ErrNotOrdered)
	}
	c := q.clone()
	if first {
		c.orders = c.orders[:0]
	}
	c.orders = append(c.orders, orderTerm{column: column, direction: dir})
	return c
}

// Skip bypasses n more rows of the current result.
func (q *Query[T]) Skip(n int) *Query[T] {
	if n < 0 {
		return q.fail(fmt.Errorf("%w: skip %d", ErrNegativePaging, n))
	}
	c := q.clone()
	skip := n
	if c.paging.HasSkip() {
		skip += *c.paging.Skip
	}
	c.paging.Skip = types.IntPtr(skip)
	if c.paging.HasTake() {
		c.paging.Take = types.IntPtr(max(*c.paging.Take-n, 0))
	}
	return c
}

// Take limits the current result to at most n rows.
func (q *Query[T]) Take(n int) *Query[T] {
	if n < 0 {
		return q.fail(fmt.Errorf("%w: take %d", ErrNegativePaging, n))
	}
	c := q.clone()
	if c.paging.HasTake() {
		n = min(n, *c.paging.Take)
	}
	c.paging.Take = types.IntPtr(n)
	return c
}

// Include loads the named relation with the results. Nested relations use
// dotted paths.
func (q *Query[T]) Include(path string) *Query[T] {
	path = strings.TrimSpace(path)
	if path == "" {
		return q.fail(ErrEmptyInclude)
	}
	c := q.clone()
	c.includes = append(c.includes, path)
	return c
}

// AsNoTracking returns results without attaching them to the session.
func (q *Query[T]) AsNoTracking() *Query[T] {
	c := q.clone()
	c.noTracking = true
	return c
}

func (q *Query[T]) check() error {
	if q.session == nil || q.session.closed {
		return ErrClosed
	}
	return q.err
}

func (q *Query[T]) applyFilters(sel *bun.SelectQuery) *bun.SelectQuery {
	for _, p := range q.filters {
		sel = p(sel)
	}
	return sel
}

// unboundedLimit stands in for a missing take when rows are skipped; sqlite
// and mysql accept OFFSET only after a LIMIT.
const unboundedLimit = math.MaxInt32

func (q *Query[T]) build(sel *bun.SelectQuery) *bun.SelectQuery {
	sel = q.applyFilters(sel)
	for _, o := range q.orders {
		if strings.Contains(o.column, ".") {
			sel = sel.OrderExpr("? "+o.direction.String(), bun.Ident(o.column))
		} else {
			sel = sel.OrderExpr("?TableAlias.? "+o.direction.String(), bun.Ident(o.column))
		}
	}
	if q.paging.HasSkip() {
		sel = sel.Offset(*q.paging.Skip)
		if !q.paging.HasTake() {
			sel = sel.Limit(unboundedLimit)
		}
	}
	if q.paging.HasTake() {
		sel = sel.Limit(*q.paging.Take)
	}
	for _, rel := range q.includes {
		sel = sel.Relation(rel)
	}
	return sel
}

// ToList runs the query and returns every result.
func (q *Query[T]) ToList(ctx context.Context) ([]*T, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	if q.paging.IsEmpty() {
		return []*T{}, nil
	}
	items := make([]*T, 0)
	if err := q.build(q.session.db.NewSelect().Model(&items)).Scan(ctx); err != nil {
		return nil, err
	}
	if q.noTracking {
		return items, nil
	}
	return q.attach(items)
}

// Iter returns a lazy sequence over the results. The query runs when the
// sequence is first ranged over; ranging over it again yields
// ErrSequenceConsumed.
func (q *Query[T]) Iter(ctx context.Context) iter.Seq2[*T, error] {
	consumed := false
	return func(yield func(*T, error) bool) {
		if consumed {
			yield(nil, ErrSequenceConsumed)
			return
		}
		consumed = true
		items, err := q.ToList(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Count returns the number of rows matching the filters, ignoring order and
// paging.
func (q *Query[T]) Count(ctx context.Context) (int, error) {
	if err := q.check(); err != nil {
		return 0, err
	}
	return q.applyFilters(q.session.db.NewSelect().Model((*T)(nil))).Count(ctx)
}

// attach tracks fresh results as Unchanged and swaps in the instance already
// tracked under the same key. Included relations are copied onto the tracked
// instance.
func (q *Query[T]) attach(items []*T) ([]*T, error) {
	s := q.session
	for i, item := range items {
		table, v, err := s.describe(item)
		if err != nil {
			return nil, err
		}
		if tracked := s.lookup(table.Type, entityKey(table, v)); tracked != nil {
			if same, ok := tracked.entity.(*T); ok {
				q.mergeIncludes(table, valueOf(same), v)
				items[i] = same
				continue
			}
		}
		if _, err := s.track(item, Unchanged); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (q *Query[T]) mergeIncludes(table *schema.Table, dst, src reflect.Value) {
	for _, path := range q.includes {
		name, _, _ := strings.Cut(path, ".")
		if rel, ok := table.Relations[name]; ok {
			rel.Field.Value(dst).Set(rel.Field.Value(src))
		}
	}
}
