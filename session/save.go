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
	"sort"
	"time"

	"github.com/tomoncle/unitrepo/database"
	"github.com/uptrace/bun"
)

// SaveChanges writes every pending entry in one transaction, in the order the
// entries became pending. On success inserted and updated entries become
// Unchanged and deleted ones are detached. On failure the transaction is
// rolled back, the store error is returned as is and no state changes.
func (s *Session) SaveChanges(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}
	pending := s.pending()
	if len(pending) == 0 {
		return nil
	}

	start := time.Now()
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, e := range pending {
			if err := e.flush(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.observeFailure(elapsed)
		if ok, kind := database.IsSqlError(err); ok {
			s.logger.Error("Save failed", "session", s.id, "kind", kind.String(), "error", err)
		} else {
			s.logger.Error("Save failed", "session", s.id, "error", err)
		}
		return err
	}

	counts := make(map[EntityState]int, 3)
	for _, e := range pending {
		counts[e.state]++
		switch e.state {
		case Added, Modified:
			e.state = Unchanged
			s.rekey(e)
		case Deleted:
			s.detach(e)
		}
	}
	s.metrics.observeSave(counts, elapsed)
	s.logger.Debug("Session saved", "session", s.id,
		"inserted", counts[Added], "updated", counts[Modified], "deleted", counts[Deleted],
		"duration", elapsed)
	return nil
}

func (s *Session) pending() []*Entry {
	var out []*Entry
	for _, e := range s.entries {
		if e.state.IsPending() {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func (e *Entry) flush(ctx context.Context, tx bun.Tx) error {
	var err error
	switch e.state {
	case Added:
		_, err = tx.NewInsert().Model(e.entity).Exec(ctx)
	case Modified:
		_, err = tx.NewUpdate().Model(e.entity).WherePK().Exec(ctx)
	case Deleted:
		_, err = tx.NewDelete().Model(e.entity).WherePK().Exec(ctx)
	}
	return err
}
