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

	"github.com/tomoncle/unitrepo/types"
)

// ReadRepository defines the query operations for an entity type.
type ReadRepository[T any] interface {
	// Select returns a lazy, single-use sequence of the entities matching
	// opts. Nothing is read until the sequence is ranged over.
	Select(ctx context.Context, opts ...SelectOption[T]) iter.Seq2[*T, error]

	// List runs Select and collects the results.
	List(ctx context.Context, opts ...SelectOption[T]) ([]*T, error)

	// Count returns the number of entities matching the filters in opts.
	Count(ctx context.Context, opts ...SelectOption[T]) (int, error)

	// Page returns one page of the entities matching opts. Skip and Take in
	// opts are replaced by the page window.
	Page(ctx context.Context, page *types.PageRequest, opts ...SelectOption[T]) (*types.Pagination[T], error)

	Close() error
}

// WriteRepository defines the change operations for an entity type. Changes
// stay pending in the session until Save, or until a call made with
// saveImmediately.
type WriteRepository[T any] interface {
	Insert(ctx context.Context, item *T, saveImmediately bool) (*T, error)

	// Update marks item Modified. An item still pending insertion is not
	// switched to Modified: it stays Added and the save inserts its current
	// fields.
	Update(ctx context.Context, item *T, saveImmediately bool) (*T, error)

	Delete(ctx context.Context, item *T, saveImmediately bool) error

	// Save writes every pending change of the session in one transaction.
	Save(ctx context.Context) error

	Close() error
}

// ReadWriteRepository combines read and write access.
type ReadWriteRepository[T any] interface {
	ReadRepository[T]
	WriteRepository[T]
}
