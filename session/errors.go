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

import "errors"

var (
	// ErrClosed is returned by every operation on a closed session.
	ErrClosed = errors.New("session: closed")
	// ErrInvalidEntity is returned for values that are not non-nil pointers to structs.
	ErrInvalidEntity = errors.New("session: entity must be a non-nil pointer to a struct")
	// ErrDuplicateTracking is returned when a second instance with the key of
	// an already tracked instance is added or attached.
	ErrDuplicateTracking = errors.New("session: another instance with the same key is already tracked")
	// ErrNoPrimaryKey is returned when an update or delete targets an entity
	// whose model has no primary key or whose key is unset.
	ErrNoPrimaryKey = errors.New("session: entity has no primary key value")
	ErrInvalidState = errors.New("session: invalid entity state")
	// ErrNotOrdered is returned by a query that refines an order it never established.
	ErrNotOrdered = errors.New("session: ThenBy requires a preceding OrderBy")
	// ErrCompositionOrder is returned by a query that filters or sorts after paging.
	ErrCompositionOrder = errors.New("session: filter and sort must precede Skip and Take")
	ErrNegativePaging   = errors.New("session: skip and take cannot be negative")
	ErrEmptyColumn      = errors.New("session: sort column cannot be empty")
	ErrInvalidDirection = errors.New("session: invalid sort direction")
	ErrEmptyInclude     = errors.New("session: include path cannot be empty")
	// ErrSequenceConsumed is yielded when a result sequence is ranged over twice.
	ErrSequenceConsumed = errors.New("session: result sequence already consumed")
)
