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
	"fmt"
	"reflect"
)

// EntitySet is the typed view of a session for entity type T.
type EntitySet[T any] struct {
	session *Session
}

// Set returns the entity set for T. T must be a struct type.
func Set[T any](s *Session) (*EntitySet[T], error) {
	if s.closed {
		return nil, ErrClosed
	}
	if err := CheckEntityType[T](); err != nil {
		return nil, err
	}
	return &EntitySet[T]{session: s}, nil
}

// CheckEntityType reports ErrInvalidEntity unless T is a struct type.
func CheckEntityType[T any]() error {
	if typ := reflect.TypeFor[T](); typ.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s is a %s", ErrInvalidEntity, typ, typ.Kind())
	}
	return nil
}

func (set *EntitySet[T]) Session() *Session { return set.session }

// Add marks item for insertion. A tracked item is switched to Added.
func (set *EntitySet[T]) Add(item *T) (*Entry, error) {
	if item == nil {
		return nil, ErrInvalidEntity
	}
	if set.session.closed {
		return nil, ErrClosed
	}
	if e := set.session.entries[item]; e != nil {
		if err := e.SetState(Added); err != nil {
			return nil, err
		}
		return e, nil
	}
	return set.session.track(item, Added)
}

// Attach starts tracking item as Unchanged. An already tracked item keeps
// its state.
func (set *EntitySet[T]) Attach(item *T) (*Entry, error) {
	if item == nil {
		return nil, ErrInvalidEntity
	}
	if set.session.closed {
		return nil, ErrClosed
	}
	if e := set.session.entries[item]; e != nil {
		return e, nil
	}
	return set.session.track(item, Unchanged)
}

// Entry returns the tracking handle for item, or nil when it is not tracked.
func (set *EntitySet[T]) Entry(item *T) *Entry {
	if item == nil {
		return nil
	}
	return set.session.Entry(item)
}

// Query starts a query over T.
func (set *EntitySet[T]) Query() *Query[T] {
	return NewQuery[T](set.session)
}
