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
	"iter"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/unitrepo/database"
	"github.com/tomoncle/unitrepo/types"
	"github.com/uptrace/bun"
)

type item struct {
	bun.BaseModel `bun:"table:items"`

	ID    int64  `bun:"id,pk,autoincrement"`
	Name  string `bun:"name,notnull,unique"`
	Group int    `bun:"grp,notnull"`
}

type author struct {
	bun.BaseModel `bun:"table:authors"`

	ID    int64            `bun:"id,pk,autoincrement"`
	Name  string           `bun:"name,notnull"`
	Meta  types.JsonObject `bun:"meta,type:json"`
	Books []*book          `bun:"rel:has-many,join:id=author_id"`
}

type book struct {
	bun.BaseModel `bun:"table:books"`

	ID       int64   `bun:"id,pk,autoincrement"`
	AuthorID int64   `bun:"author_id,notnull"`
	Title    string  `bun:"title,notnull"`
	Author   *author `bun:"rel:belongs-to,join:author_id=id"`
}

func memoryConnection() ConnectionString {
	return ConnectionString(fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", uuid.NewString()))
}

// newTestBase opens a base on conn and creates the test tables.
func newTestBase(t *testing.T, conn ConnectionString) *Base {
	t.Helper()
	ctx := context.Background()
	base := NewBase(conn, WithLogger(database.NopLogger{}))
	t.Cleanup(func() { _ = base.Close() })

	s, err := base.Session(ctx)
	require.NoError(t, err)
	for _, model := range []any{(*item)(nil), (*author)(nil), (*book)(nil)} {
		_, err := s.DB().NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
	return base
}

func newItemRepo(t *testing.T) (ReadWriteRepository[item], *Base) {
	t.Helper()
	base := newTestBase(t, memoryConnection())
	repo, err := NewReadWriteRepository[item](base)
	require.NoError(t, err)
	return repo, base
}

func insertItems(t *testing.T, repo WriteRepository[item], items ...*item) {
	t.Helper()
	ctx := context.Background()
	for _, it := range items {
		_, err := repo.Insert(ctx, it, false)
		require.NoError(t, err)
	}
	require.NoError(t, repo.Save(ctx))
}

func collect[T any](t *testing.T, seq iter.Seq2[*T, error]) []*T {
	t.Helper()
	out := make([]*T, 0)
	for v, err := range seq {
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func itemNames(items []*item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}
