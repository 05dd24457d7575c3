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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what sessions flush. A nil *Metrics records nothing.
type Metrics struct {
	flushed  *prometheus.CounterVec
	saves    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the session collectors and registers them with reg when
// reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		flushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "unitrepo",
			Subsystem: "session",
			Name:      "flushed_entities_total",
			Help:      "Entities written by SaveChanges, by operation.",
		}, []string{"operation"}),
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "unitrepo",
			Subsystem: "session",
			Name:      "saves_total",
			Help:      "SaveChanges calls that reached the store, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "unitrepo",
			Subsystem: "session",
			Name:      "save_duration_seconds",
			Help:      "Duration of SaveChanges transactions.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.flushed, m.saves, m.duration)
	}
	return m
}

func (m *Metrics) observeSave(counts map[EntityState]int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.flushed.WithLabelValues("insert").Add(float64(counts[Added]))
	m.flushed.WithLabelValues("update").Add(float64(counts[Modified]))
	m.flushed.WithLabelValues("delete").Add(float64(counts[Deleted]))
	m.saves.WithLabelValues("success").Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeFailure(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues("failure").Inc()
	m.duration.Observe(elapsed.Seconds())
}
