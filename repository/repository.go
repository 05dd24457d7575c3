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
	"iter"

	"github.com/tomoncle/unitrepo/session"
	"github.com/tomoncle/unitrepo/types"
)

type repositoryImpl[T any] struct {
	base *Base
}

var _ ReadWriteRepository[struct{}] = (*repositoryImpl[struct{}])(nil)

// NewReadWriteRepository returns a repository for T backed by base. T must be
// a struct type. Repositories created from the same base share its session,
// and closing any of them closes the base.
func NewReadWriteRepository[T any](base *Base) (ReadWriteRepository[T], error) {
	return newRepository[T](base)
}

func NewReadRepository[T any](base *Base) (ReadRepository[T], error) {
	return newRepository[T](base)
}

func NewWriteRepository[T any](base *Base) (WriteRepository[T], error) {
	return newRepository[T](base)
}

func newRepository[T any](base *Base) (*repositoryImpl[T], error) {
	if err := session.CheckEntityType[T](); err != nil {
		return nil, err
	}
	return &repositoryImpl[T]{base: base}, nil
}

func (r *repositoryImpl[T]) set(ctx context.Context) (*session.EntitySet[T], error) {
	s, err := r.base.Session(ctx)
	if err != nil {
		return nil, err
	}
	return session.Set[T](s)
}

func (r *repositoryImpl[T]) query(ctx context.Context, opts []SelectOption[T]) (*session.Query[T], error) {
	set, err := r.set(ctx)
	if err != nil {
		return nil, err
	}
	q := newSelectOptions(opts).build(set.Query())
	return q, q.Err()
}

func (r *repositoryImpl[T]) Select(ctx context.Context, opts ...SelectOption[T]) iter.Seq2[*T, error] {
	consumed := false
	return func(yield func(*T, error) bool) {
		if consumed {
			yield(nil, session.ErrSequenceConsumed)
			return
		}
		consumed = true
		q, err := r.query(ctx, opts)
		if err != nil {
			yield(nil, err)
			return
		}
		for item, err := range q.Iter(ctx) {
			if !yield(item, err) {
				return
			}
		}
	}
}

func (r *repositoryImpl[T]) List(ctx context.Context, opts ...SelectOption[T]) ([]*T, error) {
	q, err := r.query(ctx, opts)
	if err != nil {
		return nil, err
	}
	return q.ToList(ctx)
}

func (r *repositoryImpl[T]) Count(ctx context.Context, opts ...SelectOption[T]) (int, error) {
	set, err := r.set(ctx)
	if err != nil {
		return 0, err
	}
	o := newSelectOptions(opts)
	q := set.Query()
	for _, p := range o.filters {
		q = q.Where(p)
	}
	return q.Count(ctx)
}

func (r *repositoryImpl[T]) Page(ctx context.Context, page *types.PageRequest, opts ...SelectOption[T]) (*types.Pagination[T], error) {
	if page == nil {
		page = types.NewPageRequest(1, 10)
	}
	pagination := types.NewDefaultPagination[T](page.GetPage(), page.GetPageSize())
	total, err := r.Count(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return pagination, nil
	}
	opts = append(opts[:len(opts):len(opts)], func(o *selectOptions[T]) { o.paging = page.Paging() })
	items, err := r.List(ctx, opts...)
	if err != nil {
		return nil, err
	}
	pagination.Total = total
	pagination.Items = items
	return pagination, nil
}

func (r *repositoryImpl[T]) Insert(ctx context.Context, item *T, saveImmediately bool) (*T, error) {
	if item == nil {
		return nil, ErrNilEntity
	}
	set, err := r.set(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := set.Add(item); err != nil {
		return nil, err
	}
	return r.saveIf(ctx, set, item, saveImmediately)
}

// Update marks item modified, attaching it first when the session does not
// track it. An entry in state Added is left Added rather than Modified, so
// the save inserts the current fields instead of updating a row that does
// not exist yet.
func (r *repositoryImpl[T]) Update(ctx context.Context, item *T, saveImmediately bool) (*T, error) {
	if item == nil {
		return nil, ErrNilEntity
	}
	set, err := r.set(ctx)
	if err != nil {
		return nil, err
	}
	if err := mark(set, item, session.Modified); err != nil {
		return nil, err
	}
	return r.saveIf(ctx, set, item, saveImmediately)
}

// Delete marks item deleted, attaching it first when the session does not
// track it. Deleting a pending insert cancels the insert.
func (r *repositoryImpl[T]) Delete(ctx context.Context, item *T, saveImmediately bool) error {
	if item == nil {
		return ErrNilEntity
	}
	set, err := r.set(ctx)
	if err != nil {
		return err
	}
	if err := mark(set, item, session.Deleted); err != nil {
		return err
	}
	_, err = r.saveIf(ctx, set, item, saveImmediately)
	return err
}

func (r *repositoryImpl[T]) Save(ctx context.Context) error {
	s, err := r.base.Session(ctx)
	if err != nil {
		return err
	}
	return s.SaveChanges(ctx)
}

func (r *repositoryImpl[T]) Close() error {
	return r.base.Close()
}

func (r *repositoryImpl[T]) saveIf(ctx context.Context, set *session.EntitySet[T], item *T, save bool) (*T, error) {
	if save {
		if err := set.Session().SaveChanges(ctx); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// mark moves item to Modified or Deleted. Untracked items are attached
// first and detached again if the change is rejected.
func mark[T any](set *session.EntitySet[T], item *T, state session.EntityState) error {
	entry := set.Entry(item)
	attached := false
	if entry == nil || entry.State() == session.Detached {
		var err error
		if entry, err = set.Attach(item); err != nil {
			return err
		}
		attached = true
	}

	if entry.State() == session.Added {
		if state == session.Deleted {
			return entry.SetState(session.Detached)
		}
		return nil
	}
	if err := entry.SetState(state); err != nil {
		if attached {
			_ = entry.SetState(session.Detached)
		}
		return err
	}
	return nil
}
