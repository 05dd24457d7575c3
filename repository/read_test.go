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
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/unitrepo/session"
	"github.com/tomoncle/unitrepo/types"
	"github.com/uptrace/bun"
)

func TestSelectScenario(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)
	insertItems(t, repo, &item{ID: 1, Name: "a"}, &item{ID: 2, Name: "b"})

	got := collect(t, repo.Select(ctx, OrderBy(Desc[item]("name"))))
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, "b", got[0].Name)
	assert.Equal(t, int64(1), got[1].ID)
	assert.Equal(t, "a", got[1].Name)

	got = collect(t, repo.Select(ctx, OrderBy(Desc[item]("name")), Skip[item](1), Take[item](1)))
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "a", got[0].Name)
}

func TestSelectAll(t *testing.T) {
	repo, _ := newItemRepo(t)
	insertItems(t, repo, &item{Name: "x"}, &item{Name: "y"}, &item{Name: "z"})

	got := collect(t, repo.Select(context.Background()))
	assert.ElementsMatch(t, []string{"x", "y", "z"}, itemNames(got))
}

func TestSelectWhere(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)
	insertItems(t, repo,
		&item{Name: "a", Group: 1},
		&item{Name: "b", Group: 2},
		&item{Name: "c", Group: 1},
	)

	got, err := repo.List(ctx, Where[item](func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("grp = ?", 1)
	}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, itemNames(got))

	got, err = repo.List(ctx, WhereFilter[item](types.NewQueryFilter("grp = ? AND name <> ?", 1, "a")))
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, itemNames(got))

	got, err = repo.List(ctx, WhereFilter[item](nil))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSelectMultiKeySort(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)
	insertItems(t, repo,
		&item{Name: "d", Group: 2},
		&item{Name: "a", Group: 1},
		&item{Name: "e", Group: 1},
		&item{Name: "b", Group: 2},
		&item{Name: "c", Group: 1},
	)

	got, err := repo.List(ctx, OrderBy(Asc[item]("grp"), Desc[item]("name")))
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
		if got[i].Group != got[j].Group {
			return got[i].Group < got[j].Group
		}
		return got[i].Name > got[j].Name
	}))
	assert.Equal(t, []string{"e", "c", "a", "d", "b"}, itemNames(got))
}

func TestSelectPaging(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)
	insertItems(t, repo, &item{Name: "a"}, &item{Name: "b"}, &item{Name: "c"}, &item{Name: "d"})
	byName := OrderBy(Asc[item]("name"))

	cases := []struct {
		name string
		opts []SelectOption[item]
		want []string
	}{
		{"skip and take", []SelectOption[item]{byName, Skip[item](1), Take[item](2)}, []string{"b", "c"}},
		{"skip without take is unbounded", []SelectOption[item]{byName, Skip[item](2)}, []string{"c", "d"}},
		{"take past end", []SelectOption[item]{byName, Skip[item](3), Take[item](5)}, []string{"d"}},
		{"take zero", []SelectOption[item]{byName, Take[item](0)}, []string{}},
		{"paging struct", []SelectOption[item]{byName, WithPaging[item](types.Paging{Skip: types.IntPtr(1)})}, []string{"b", "c", "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.List(ctx, tc.opts...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, itemNames(got))
		})
	}
}

func TestSelectNegativePaging(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)

	_, err := repo.List(ctx, Skip[item](-1))
	assert.ErrorIs(t, err, ErrInvalidPaging)

	for _, err := range repo.Select(ctx, Take[item](-3)) {
		assert.ErrorIs(t, err, ErrInvalidPaging)
	}
}

func TestSelectInclude(t *testing.T) {
	ctx := context.Background()
	base := newTestBase(t, memoryConnection())
	authors, err := NewReadWriteRepository[author](base)
	require.NoError(t, err)
	books, err := NewReadWriteRepository[book](base)
	require.NoError(t, err)

	ann := &author{Name: "ann", Meta: types.JsonObject{"genre": "poetry"}}
	_, err = authors.Insert(ctx, ann, true)
	require.NoError(t, err)
	for _, title := range []string{"one", "two"} {
		_, err = books.Insert(ctx, &book{AuthorID: ann.ID, Title: title}, false)
		require.NoError(t, err)
	}
	require.NoError(t, books.Save(ctx))

	got, err := authors.List(ctx, Include[author]("Books"), NoTracking[author]())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Books, 2)
	assert.Equal(t, "poetry", got[0].Meta["genre"])

	// the tracked instance receives the loaded relation
	tracked, err := authors.List(ctx, Include[author]("Books"))
	require.NoError(t, err)
	require.Len(t, tracked, 1)
	assert.Same(t, ann, tracked[0])
	assert.Len(t, ann.Books, 2)

	plain, err := authors.List(ctx, NoTracking[author]())
	require.NoError(t, err)
	require.Len(t, plain, 1)
	assert.Empty(t, plain[0].Books)

	withAuthor, err := books.List(ctx, Include[book]("Author"), OrderBy(Asc[book]("title")), NoTracking[book]())
	require.NoError(t, err)
	require.Len(t, withAuthor, 2)
	require.NotNil(t, withAuthor[0].Author)
	assert.Equal(t, "ann", withAuthor[0].Author.Name)

	// columns shared with the joined table sort on the queried model
	byID, err := books.List(ctx, Include[book]("Author"), OrderBy(Desc[book]("id")), NoTracking[book]())
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, []string{"two", "one"}, []string{byID[0].Title, byID[1].Title})
	require.NotNil(t, byID[1].Author)
	assert.Equal(t, ann.ID, byID[1].Author.ID)
}

func TestSelectUnknownInclude(t *testing.T) {
	repo, _ := newItemRepo(t)
	insertItems(t, repo, &item{Name: "a"})

	_, err := repo.List(context.Background(), Include[item]("Missing"))
	assert.Error(t, err)
}

func TestSelectIsLazy(t *testing.T) {
	ctx := context.Background()
	opened := 0
	base := NewBase(ConnectionString("sqlite://unused.db"),
		WithLogger(nil),
		WithSessionFactory(func(ctx context.Context, connString string) (*session.Session, error) {
			opened++
			return nil, errors.New("unavailable")
		}))
	repo, err := NewReadRepository[item](base)
	require.NoError(t, err)

	seq := repo.Select(ctx)
	assert.Zero(t, opened)

	for _, err := range seq {
		assert.ErrorContains(t, err, "unavailable")
	}
	assert.Equal(t, 1, opened)
}

func TestSelectSingleUse(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)
	seq := repo.Select(ctx, OrderBy(Asc[item]("name")))

	// rows saved after Select are read when ranging starts
	insertItems(t, repo, &item{Name: "a"}, &item{Name: "b"})
	assert.Equal(t, []string{"a", "b"}, itemNames(collect(t, seq)))

	for v, err := range seq {
		assert.Nil(t, v)
		assert.ErrorIs(t, err, session.ErrSequenceConsumed)
	}

	// a new Select runs the query again
	assert.Len(t, collect(t, repo.Select(ctx)), 2)
}

func TestSelectTracksResults(t *testing.T) {
	ctx := context.Background()
	repo, base := newItemRepo(t)
	a := &item{Name: "a"}
	insertItems(t, repo, a)

	got, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Same(t, a, got[0])

	copies, err := repo.List(ctx, NoTracking[item]())
	require.NoError(t, err)
	require.Len(t, copies, 1)
	assert.NotSame(t, a, copies[0])

	s, err := base.Session(ctx)
	require.NoError(t, err)
	assert.Nil(t, s.Entry(copies[0]))
}

func TestCountAndPage(t *testing.T) {
	ctx := context.Background()
	repo, _ := newItemRepo(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := repo.Insert(ctx, &item{Name: name, Group: len(name)}, false)
		require.NoError(t, err)
	}
	require.NoError(t, repo.Save(ctx))

	n, err := repo.Count(ctx, WhereFilter[item](types.NewQueryFilter("name > ?", "b")), Take[item](1))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	page, err := repo.Page(ctx, types.NewPageRequest(2, 2), OrderBy(Asc[item]("name")), Take[item](10))
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.Pages())
	assert.Equal(t, []string{"c", "d"}, itemNames(page.Items))

	empty, err := repo.Page(ctx, nil, WhereFilter[item](types.NewQueryFilter("name = ?", "zz")))
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
	assert.Equal(t, 1, empty.Page)
	assert.Empty(t, empty.Items)
}
