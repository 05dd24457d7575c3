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
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tomoncle/unitrepo/database"
	"github.com/tomoncle/unitrepo/session"
)

// SessionFactory opens a session for a connection string.
type SessionFactory func(ctx context.Context, connString string) (*session.Session, error)

// Base owns the session shared by the repositories built on it. The session
// is opened on first use and released by Close, after which every operation
// fails with ErrDisposed. Base is not safe for concurrent use.
type Base struct {
	source   ConnectionSource
	factory  SessionFactory
	logger   database.Logger
	metrics  *session.Metrics
	session  *session.Session
	manager  database.AbstractDatabaseManager
	disposed bool
}

type Option func(*Base)

// WithSessionFactory replaces the default factory, which connects through
// database.Open.
func WithSessionFactory(factory SessionFactory) Option {
	return func(b *Base) { b.factory = factory }
}

// WithConnectionConfig opens the session with every setting of cfg, pool and
// query logging included, instead of parsing the connection string. cfg is
// not modified.
func WithConnectionConfig(cfg *database.ConnectionConfig) Option {
	return func(b *Base) {
		b.factory = func(ctx context.Context, _ string) (*session.Session, error) {
			manager, err := database.OpenConfig(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return b.newSession(manager), nil
		}
	}
}

func WithLogger(logger database.Logger) Option {
	return func(b *Base) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func WithMetrics(m *session.Metrics) Option {
	return func(b *Base) { b.metrics = m }
}

func NewBase(source ConnectionSource, opts ...Option) *Base {
	b := &Base{source: source, logger: database.GetLogger()}
	b.factory = b.openSession
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Session returns the session, opening it on the first call. A failed open
// is retried by the next call.
func (b *Base) Session(ctx context.Context) (*session.Session, error) {
	if b.disposed {
		return nil, ErrDisposed
	}
	if b.session != nil {
		return b.session, nil
	}

	var connString string
	if b.source != nil {
		connString = strings.TrimSpace(b.source.ConnectionString())
	}
	if connString == "" {
		return nil, ErrNoConnectionString
	}
	s, err := b.factory(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	b.session = s
	return s, nil
}

// Close releases the session. It is a no-op when no session was opened or
// the base is already closed.
func (b *Base) Close() error {
	if b.disposed {
		return nil
	}
	b.disposed = true
	s := b.session
	b.session = nil
	b.manager = nil
	if s == nil {
		return nil
	}
	return s.Close()
}

func (b *Base) Disposed() bool { return b.disposed }

// Health opens the session if needed and checks its connection. Sessions
// from a custom factory are checked with a ping.
func (b *Base) Health(ctx context.Context) (*database.HealthStatus, error) {
	s, err := b.Session(ctx)
	if err != nil {
		return nil, err
	}
	if b.manager != nil {
		return b.manager.HealthCheck(ctx), nil
	}
	start := time.Now()
	err = s.DB().PingContext(ctx)
	status := &database.HealthStatus{
		Healthy:       err == nil,
		Connected:     err == nil,
		ResponseTime:  time.Since(start),
		LastCheckTime: start,
	}
	if err != nil {
		status.LastError = err.Error()
	}
	return status, nil
}

// Stats returns the connection pool statistics of the session.
func (b *Base) Stats(ctx context.Context) (*database.DBStats, error) {
	s, err := b.Session(ctx)
	if err != nil {
		return nil, err
	}
	if b.manager != nil {
		return b.manager.GetStats(), nil
	}
	return database.NewDBStats(s.DB().Stats()), nil
}

func (b *Base) openSession(ctx context.Context, connString string) (*session.Session, error) {
	manager, err := database.Open(ctx, connString)
	if err != nil {
		return nil, err
	}
	return b.newSession(manager), nil
}

func (b *Base) newSession(manager database.AbstractDatabaseManager) *session.Session {
	manager.SetLogger(b.logger)
	b.manager = manager
	return session.New(manager.GetDB(),
		session.WithCloser(manager.Disconnect),
		session.WithLogger(b.logger),
		session.WithMetrics(b.metrics),
	)
}
