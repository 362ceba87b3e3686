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

package cache

import (
	"context"
	"fmt"

	"neworder/core/neworder/domain"
	"neworder/modules/db"
)

const LastPayoutKey = "payout:last"

var _ domain.PayoutRecorder = (*PayoutRecorder)(nil)

// PayoutRecorder keeps the last payout run as a JSON snapshot in a KV store.
type PayoutRecorder struct {
	runs db.JSONKV[domain.PayoutRun]
}

func NewPayoutRecorder(kv db.KV) *PayoutRecorder {
	return &PayoutRecorder{runs: db.NewJSONKV[domain.PayoutRun](kv)}
}

func (r *PayoutRecorder) SaveRun(ctx context.Context, run domain.PayoutRun) error {
	if _, err := r.runs.Set(ctx, LastPayoutKey, run); err != nil {
		return fmt.Errorf("save payout run %s: %w", run.ID, err)
	}
	return nil
}

func (r *PayoutRecorder) LastRun(ctx context.Context) (*domain.PayoutRun, error) {
	run, err := r.runs.Get(ctx, LastPayoutKey)
	if err != nil {
		return nil, fmt.Errorf("load last payout run: %w", err)
	}
	return run, nil
}
