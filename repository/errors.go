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
	"errors"

	"github.com/tomoncle/unitrepo/session"
)

var (
	// ErrDisposed is returned by every operation after Close.
	ErrDisposed = errors.New("repository: disposed")

	ErrNilEntity = errors.New("repository: entity cannot be nil")

	// ErrNoConnectionString is returned when the connection source yields an
	// empty connection string.
	ErrNoConnectionString = errors.New("repository: connection string is empty")

	ErrInvalidPaging = session.ErrNegativePaging
	ErrInvalidEntity = session.ErrInvalidEntity
)
