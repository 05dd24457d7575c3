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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/unitrepo/database"
	"github.com/tomoncle/unitrepo/session"
	"github.com/tomoncle/unitrepo/types"
)

func entryState(t *testing.T, base *Base, v any) session.EntityState {
	t.Helper()
	s, err := base.Session(context.Background())
	require.NoError(t, err)
	if e := s.Entry(v); e != nil {
		return e.State()
	}
	return session.Detached
}

func findByID(t *testing.T, repo ReadRepository[item], id int64) []*item {
	t.Helper()
	got, err := repo.List(context.Background(), NoTracking[item](),
		WhereFilter[item](types.NewQueryFilter("id = ?", id)))
	require.NoError(t, err)
	return got
}

func TestInsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)

	x := &item{Name: "x", Group: 4}
	got, err := repo.Insert(ctx, x, true)
	require.NoError(t, err)
	assert.Same(t, x, got)
	assert.NotZero(t, x.ID)
	assert.Equal(t, session.Unchanged, entryState(t, base, x))

	stored := findByID(t, repo, x.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, *x, *stored[0])
}

func TestInsertDeferred(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)

	x := &item{Name: "x"}
	_, err := repo.Insert(ctx, x, false)
	require.NoError(t, err)
	assert.Equal(t, session.Added, entryState(t, base, x))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, repo.Save(ctx))
	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateTracked(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)
	x := &item{Name: "x", Group: 1}
	insertItems(t, repo, x)

	x.Group = 2
	_, err := repo.Update(ctx, x, false)
	require.NoError(t, err)
	assert.Equal(t, session.Modified, entryState(t, base, x))
	require.NoError(t, repo.Save(ctx))
	assert.Equal(t, session.Unchanged, entryState(t, base, x))

	stored := findByID(t, repo, x.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, 2, stored[0].Group)
}

func TestUpdateTwiceMatchesSingleUpdate(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)
	x := &item{Name: "x", Group: 1}
	insertItems(t, repo, x)

	x.Name, x.Group = "y", 9
	_, err := repo.Update(ctx, x, true)
	require.NoError(t, err)
	once := findByID(t, repo, x.ID)

	_, err = repo.Update(ctx, x, true)
	require.NoError(t, err)
	twice := findByID(t, repo, x.ID)

	require.Len(t, once, 1)
	require.Len(t, twice, 1)
	assert.Equal(t, *once[0], *twice[0])
}

func TestUpdateAttachesUntracked(t *testing.T) {
	ctx := context.Background()
	conn := memoryConnection()
	first := newTestBase(t, conn)
	repo, err := NewReadWriteRepository[item](first)
	require.NoError(t, err)
	insertItems(t, repo, &item{ID: 5, Name: "old"})

	// a second base has its own session that has never seen the row
	second := newTestBase(t, conn)
	other, err := NewReadWriteRepository[item](second)
	require.NoError(t, err)

	detached := &item{ID: 5, Name: "new"}
	_, err = other.Update(ctx, detached, true)
	require.NoError(t, err)
	assert.Equal(t, session.Unchanged, entryState(t, second, detached))

	stored := findByID(t, repo, 5)
	require.Len(t, stored, 1)
	assert.Equal(t, "new", stored[0].Name)
}

func TestUpdatePendingInsertStaysAdded(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)

	x := &item{Name: "x"}
	_, err := repo.Insert(ctx, x, false)
	require.NoError(t, err)
	x.Group = 3
	_, err = repo.Update(ctx, x, false)
	require.NoError(t, err)
	assert.Equal(t, session.Added, entryState(t, base, x))

	require.NoError(t, repo.Save(ctx))
	stored := findByID(t, repo, x.ID)
	require.Len(t, stored, 1)
	assert.Equal(t, 3, stored[0].Group)
}

func TestUpdateWithoutKey(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)

	x := &item{Name: "nokey"}
	_, err := repo.Update(ctx, x, false)
	assert.ErrorIs(t, err, session.ErrNoPrimaryKey)
	assert.Equal(t, session.Detached, entryState(t, base, x))
}

func TestUpdateDuplicateInstance(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)
	insertItems(t, repo, &item{ID: 1, Name: "a"})

	_, err := repo.Update(ctx, &item{ID: 1, Name: "b"}, false)
	assert.ErrorIs(t, err, session.ErrDuplicateTracking)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)
	x := &item{Name: "x"}
	insertItems(t, repo, x)

	require.NoError(t, repo.Delete(ctx, x, false))
	assert.Equal(t, session.Deleted, entryState(t, base, x))
	assert.Len(t, findByID(t, repo, x.ID), 1)

	require.NoError(t, repo.Save(ctx))
	assert.Equal(t, session.Detached, entryState(t, base, x))
	assert.Empty(t, findByID(t, repo, x.ID))
}

func TestDeleteUntracked(t *testing.T) {
	ctx := context.Background()
	conn := memoryConnection()
	repo, err := NewReadWriteRepository[item](newTestBase(t, conn))
	require.NoError(t, err)
	insertItems(t, repo, &item{ID: 8, Name: "gone"})

	other, err := NewReadWriteRepository[item](newTestBase(t, conn))
	require.NoError(t, err)
	require.NoError(t, other.Delete(ctx, &item{ID: 8}, true))

	assert.Empty(t, findByID(t, repo, 8))
}

func TestDeletePendingInsertCancels(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)

	x := &item{Name: "x"}
	_, err := repo.Insert(ctx, x, false)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, x, false))
	assert.Equal(t, session.Detached, entryState(t, base, x))

	require.NoError(t, repo.Save(ctx))
	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSaveFailureKeepsPendingState(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)

	a, b := &item{Name: "dup"}, &item{Name: "dup"}
	_, err := repo.Insert(ctx, a, false)
	require.NoError(t, err)
	_, err = repo.Insert(ctx, b, true)
	require.Error(t, err)

	is, kind := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.DuplicateKeyErr, kind)
	assert.Equal(t, session.Added, entryState(t, base, a))
	assert.Equal(t, session.Added, entryState(t, base, b))

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNilEntity(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)

	_, err := repo.Insert(ctx, nil, true)
	assert.ErrorIs(t, err, ErrNilEntity)
	_, err = repo.Update(ctx, nil, true)
	assert.ErrorIs(t, err, ErrNilEntity)
	assert.ErrorIs(t, repo.Delete(ctx, nil, true), ErrNilEntity)
}
