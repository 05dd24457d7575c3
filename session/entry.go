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

	"github.com/uptrace/bun/schema"
)

// Entry is the tracking handle for one entity instance.
type Entry struct {
	session *Session
	entity  any
	table   *schema.Table
	state   EntityState
	key     string
	seq     uint64
}

// Entity returns the tracked pointer.
func (e *Entry) Entity() any { return e.entity }

func (e *Entry) State() EntityState { return e.state }

// Key returns the joined primary key, empty until the key is set.
func (e *Entry) Key() string { return e.key }

// SetState moves the entity to state. Detached stops tracking; any other
// state on a detached entry tracks the entity again. Modified and Deleted
// require a primary key value.
func (e *Entry) SetState(state EntityState) error {
	s := e.session
	if s.closed {
		return ErrClosed
	}
	if !state.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidState, state)
	}
	if state == e.state {
		return nil
	}
	if state == Detached {
		s.detach(e)
		return nil
	}
	if cur := s.entries[e.entity]; e.state == Detached && cur != nil && cur != e {
		return cur.SetState(state)
	}

	key := entityKey(e.table, valueOf(e.entity))
	if (state == Modified || state == Deleted) && key == "" {
		return fmt.Errorf("%w: %s", ErrNoPrimaryKey, e.table.Type.Name())
	}
	if other := s.lookup(e.table.Type, key); other != nil && other != e {
		return fmt.Errorf("%w: %s(%s)", ErrDuplicateTracking, e.table.Type.Name(), key)
	}

	s.unindex(e)
	if e.state == Detached {
		s.entries[e.entity] = e
	}
	e.key = key
	s.index(e)
	e.state = state
	if state.IsPending() {
		e.seq = s.nextSeq()
	}
	return nil
}
