// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package counter

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTTL   = 24 * time.Hour
	DefaultLimit = 100
)

// Observer receives notifications about counter activity, e.g. for metrics.
type Observer interface {
	// Populated is called after a cold entity was seeded from the population function.
	Populated(ctx context.Context, key string, value int64)
	// Changed is called after an increment or decrement was applied.
	Changed(ctx context.Context, key string, delta int64)
}

type config struct {
	ttl      time.Duration
	ordered  bool
	logger   *slog.Logger
	observer Observer
}

// Option configures a Counter at construction time.
type Option func(*config)

// WithTTL sets the expiration applied on population.
// Hash counters expire per field, ordered counters expire the whole key.
// A value <= 0 keeps DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// Ordered backs the counter with a sorted set so GetAll returns entities by score.
func Ordered() Option {
	return func(c *config) {
		c.ordered = true
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *config) {
		c.observer = o
	}
}
