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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/unitrepo/database"
	"github.com/uptrace/bun"
)

type widget struct {
	bun.BaseModel `bun:"table:widgets"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name,notnull,unique"`
	Weight int    `bun:"weight,notnull"`
}

type tag struct {
	bun.BaseModel `bun:"table:tags"`

	Label string `bun:"label"`
}

func openTestDB(t *testing.T) *bun.DB {
	t.Helper()
	ctx := context.Background()
	manager, err := database.Open(ctx, fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Disconnect() })

	db := manager.GetDB()
	_, err = db.NewCreateTable().Model((*widget)(nil)).Exec(ctx)
	require.NoError(t, err)
	_, err = db.NewCreateTable().Model((*tag)(nil)).Exec(ctx)
	require.NoError(t, err)
	return db
}

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithLogger(database.NopLogger{})}, opts...)
	return New(openTestDB(t), opts...)
}

func seedWidgets(t *testing.T, s *Session, items ...*widget) {
	t.Helper()
	set, err := Set[widget](s)
	require.NoError(t, err)
	for _, w := range items {
		_, err := set.Add(w)
		require.NoError(t, err)
	}
	require.NoError(t, s.SaveChanges(context.Background()))
}

func names(items []*widget) []string {
	out := make([]string, len(items))
	for i, w := range items {
		out[i] = w.Name
	}
	return out
}
