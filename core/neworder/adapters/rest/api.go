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

// Package rest exposes the New Order application over net/http.
package rest

import (
	"context"
	"net/http"

	"neworder/core/neworder/domain"
)

// HealthCheck reports whether a dependency answers.
type HealthCheck func(ctx context.Context) error

// NewOrderAPI translates HTTP requests into domain operations.
type NewOrderAPI struct {
	app    *domain.Application
	checks []HealthCheck
}

func NewNewOrderAPI(app *domain.Application, checks ...HealthCheck) *NewOrderAPI {
	return &NewOrderAPI{app: app, checks: checks}
}

// Routes mounts every New Order route on mux.
func (a *NewOrderAPI) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", a.Healthz)

	mux.HandleFunc("GET /v1/players/{playerId}/stats", a.GetPlayerStats)
	mux.HandleFunc("DELETE /v1/players/{playerId}", a.ResetPlayer)
	mux.HandleFunc("POST /v1/players/{playerId}/smites", a.Smite)
	mux.HandleFunc("DELETE /v1/players/{playerId}/smites", a.Cleanse)
	mux.HandleFunc("POST /v1/players/{playerId}/buzz", a.BlessBuzz)
	mux.HandleFunc("POST /v1/judgements", a.RecordJudgement)
	mux.HandleFunc("GET /v1/leaderboard", a.GetLeaderboard)

	mux.HandleFunc("GET /v1/queues/{rank}", a.GetImageQueue)
	mux.HandleFunc("POST /v1/queues/{rank}/images", a.EnqueueImage)
	mux.HandleFunc("DELETE /v1/queues/{rank}/images/{imageId}", a.DequeueImage)
	mux.HandleFunc("GET /v1/images/{imageId}/ratings/{ratingId}", a.GetImageRatings)

	mux.HandleFunc("GET /v1/payouts/last", a.GetLastPayout)
}

// Healthz returns 204 when every dependency answers, 503 otherwise.
func (a *NewOrderAPI) Healthz(w http.ResponseWriter, r *http.Request) {
	for _, check := range a.checks {
		if err := check(r.Context()); err != nil {
			writeUnavailable(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
