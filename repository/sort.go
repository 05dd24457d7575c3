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
	"fmt"
	"strings"

	"github.com/tomoncle/unitrepo/session"
	"github.com/tomoncle/unitrepo/types"
)

// OrderByClause is one key of a multi-key sort.
type OrderByClause[T any] interface {
	Column() string
	Direction() types.SortDirection
	// ApplySort orders q by the clause. The first clause starts a new order;
	// later clauses break ties of the preceding ones.
	ApplySort(q *session.Query[T], firstSort bool) *session.Query[T]
}

type orderByClause[T any] struct {
	column    string
	direction types.SortDirection
}

func NewOrderByClause[T any](column string, direction types.SortDirection) OrderByClause[T] {
	return orderByClause[T]{column: column, direction: direction}
}

func Asc[T any](column string) OrderByClause[T] {
	return NewOrderByClause[T](column, types.Ascending)
}

func Desc[T any](column string) OrderByClause[T] {
	return NewOrderByClause[T](column, types.Descending)
}

func (c orderByClause[T]) Column() string { return c.column }

func (c orderByClause[T]) Direction() types.SortDirection { return c.direction }

func (c orderByClause[T]) ApplySort(q *session.Query[T], firstSort bool) *session.Query[T] {
	switch {
	case c.direction == types.Ascending && firstSort:
		return q.OrderBy(c.column)
	case c.direction == types.Ascending:
		return q.ThenBy(c.column)
	case c.direction == types.Descending && firstSort:
		return q.OrderByDescending(c.column)
	case c.direction == types.Descending:
		return q.ThenByDescending(c.column)
	case firstSort:
		return q.OrderByDirection(c.column, c.direction)
	default:
		return q.ThenByDirection(c.column, c.direction)
	}
}

func (c orderByClause[T]) String() string {
	return c.column + " " + c.direction.String()
}

// ParseOrderBy parses a comma separated sort expression such as
// "weight desc, name". A key without a direction sorts ascending.
func ParseOrderBy[T any](expr string) ([]OrderByClause[T], error) {
	var clauses []OrderByClause[T]
	for _, part := range strings.Split(expr, ",") {
		fields := strings.Fields(part)
		switch len(fields) {
		case 0:
			continue
		case 1:
			clauses = append(clauses, Asc[T](fields[0]))
		case 2:
			dir, ok := types.ParseSortDirection(fields[1])
			if !ok {
				return nil, fmt.Errorf("invalid sort direction %q for %s", fields[1], fields[0])
			}
			clauses = append(clauses, NewOrderByClause[T](fields[0], dir))
		default:
			return nil, fmt.Errorf("invalid sort key %q", strings.TrimSpace(part))
		}
	}
	return clauses, nil
}
