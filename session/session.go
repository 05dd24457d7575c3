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
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tomoncle/unitrepo/database"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

// Session is a unit of work over one Bun handle. It is not safe for
// concurrent use.
type Session struct {
	id      string
	db      *bun.DB
	closer  func() error
	logger  database.Logger
	metrics *Metrics

	// entries is keyed by the entity pointer.
	entries map[any]*Entry
	// keys indexes tracked entries with a non-zero primary key.
	keys   map[reflect.Type]map[string]*Entry
	seq    uint64
	closed bool
}

type Option func(*Session)

// WithCloser sets the function Close calls to release the resources the
// session owns, usually the database manager's Disconnect.
func WithCloser(fn func() error) Option {
	return func(s *Session) { s.closer = fn }
}

func WithLogger(logger database.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

func New(db *bun.DB, opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		db:      db,
		logger:  database.GetLogger(),
		entries: make(map[any]*Entry),
		keys:    make(map[reflect.Type]map[string]*Entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger.Debug("Session opened", "session", s.id, "dialect", fmt.Sprint(db.Dialect().Name()))
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) DB() *bun.DB { return s.db }

func (s *Session) Closed() bool { return s.closed }

// Entry returns the tracking handle for item, or nil when item is not tracked.
func (s *Session) Entry(item any) *Entry {
	if s.closed || item == nil {
		return nil
	}
	return s.entries[item]
}

// Entries returns every tracked entry in the order it was first tracked or
// last became pending.
func (s *Session) Entries() []*Entry {
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// HasChanges reports whether SaveChanges would write anything.
func (s *Session) HasChanges() bool {
	for _, e := range s.entries {
		if e.state.IsPending() {
			return true
		}
	}
	return false
}

// Close drops every entry and releases the session's resources. Calling it
// again is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	for _, e := range s.entries {
		e.state = Detached
	}
	s.entries = nil
	s.keys = nil
	s.logger.Debug("Session closed", "session", s.id)
	if s.closer != nil {
		return s.closer()
	}
	return nil
}

func (s *Session) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// describe validates item and returns its table and struct value.
func (s *Session) describe(item any) (*schema.Table, reflect.Value, error) {
	if item == nil {
		return nil, reflect.Value{}, ErrInvalidEntity
	}
	v := reflect.ValueOf(item)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return nil, reflect.Value{}, fmt.Errorf("%w: got %T", ErrInvalidEntity, item)
	}
	return s.db.Table(v.Elem().Type()), v.Elem(), nil
}

// track starts tracking item in state. The caller has checked that item is
// not tracked yet.
func (s *Session) track(item any, state EntityState) (*Entry, error) {
	table, v, err := s.describe(item)
	if err != nil {
		return nil, err
	}
	key := entityKey(table, v)
	if other := s.lookup(table.Type, key); other != nil {
		return nil, fmt.Errorf("%w: %s(%s)", ErrDuplicateTracking, table.Type.Name(), key)
	}
	e := &Entry{
		session: s,
		entity:  item,
		table:   table,
		state:   state,
		key:     key,
		seq:     s.nextSeq(),
	}
	s.entries[item] = e
	s.index(e)
	return e, nil
}

func (s *Session) lookup(typ reflect.Type, key string) *Entry {
	if key == "" {
		return nil
	}
	return s.keys[typ][key]
}

func (s *Session) index(e *Entry) {
	if e.key == "" {
		return
	}
	byKey, ok := s.keys[e.table.Type]
	if !ok {
		byKey = make(map[string]*Entry)
		s.keys[e.table.Type] = byKey
	}
	byKey[e.key] = e
}

func (s *Session) unindex(e *Entry) {
	if e.key == "" {
		return
	}
	if byKey := s.keys[e.table.Type]; byKey[e.key] == e {
		delete(byKey, e.key)
	}
}

// rekey refreshes the key of e after the store may have assigned one.
func (s *Session) rekey(e *Entry) {
	s.unindex(e)
	e.key = entityKey(e.table, valueOf(e.entity))
	s.index(e)
}

func (s *Session) detach(e *Entry) {
	s.unindex(e)
	delete(s.entries, e.entity)
	e.state = Detached
}

func valueOf(item any) reflect.Value {
	return reflect.ValueOf(item).Elem()
}

// entityKey joins the primary key values of v. It is empty when the table has
// no primary key or any key column holds its zero value.
func entityKey(table *schema.Table, v reflect.Value) string {
	if len(table.PKs) == 0 {
		return ""
	}
	parts := make([]string, len(table.PKs))
	for i, pk := range table.PKs {
		if pk.HasZeroValue(v) {
			return ""
		}
		parts[i] = fmt.Sprint(pk.Value(v).Interface())
	}
	return strings.Join(parts, "/")
}
