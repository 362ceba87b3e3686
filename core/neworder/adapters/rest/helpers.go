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

package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/oapi-codegen/nullable"
	"github.com/oapi-codegen/runtime"

	"neworder/core/neworder/domain"
	"neworder/modules/middleware/problem"
)

type (
	countResponse struct {
		Count int64 `json:"count"`
	}

	rankingResponse struct {
		Items []domain.Standing `json:"items"`
	}

	judgementRequest struct {
		PlayerID  int64       `json:"playerId"`
		ImageID   int64       `json:"imageId"`
		Rank      domain.Rank `json:"rank"`
		NsfwLevel int         `json:"nsfwLevel"`
		Correct   bool        `json:"correct"`
		Exp       nullable.Nullable[int64] `json:"exp"`
		Fervor    nullable.Nullable[int64] `json:"fervor"`
	}

	blessBuzzRequest struct {
		Amount int64 `json:"amount"`
	}

	enqueueRequest struct {
		ImageID  int64 `json:"imageId"`
		Priority int64 `json:"priority"`
	}
)

// pathID binds a positive int64 path parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	var v int64
	err := runtime.BindStyledParameterWithOptions("simple", name, r.PathValue(name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	return v, err == nil && v > 0
}

// queryLimit binds the optional limit query parameter, 0 when absent.
func queryLimit(r *http.Request) (int, bool) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		return 0, false
	}
	if limit == nil {
		return 0, true
	}
	return *limit, *limit > 0
}

// valueOrZero reads an optional amount; absent and null both mean 0.
func valueOrZero(n nullable.Nullable[int64]) int64 {
	v, err := n.Get()
	if err != nil {
		return 0
	}
	return v
}

func ranking(items []domain.Standing) rankingResponse {
	if items == nil {
		items = []domain.Standing{}
	}
	return rankingResponse{Items: items}
}

func writeInvalidParam(w http.ResponseWriter, name string) {
	problem.Write(w, problem.BadRequest("invalid request parameter(s)",
		problem.WithInvalidParam(name, "invalid value")))
}

// writeDomainError maps domain sentinel errors to problems.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownRank):
		problem.Write(w, problem.BadRequest("unknown rank", problem.WithInvalidParam("rank", "must be one of Acolyte, Knight, Templar, God")))
	case errors.Is(err, domain.ErrInvalidData):
		problem.Write(w, problem.UnprocessableEntity("validation failed"))
	case errors.Is(err, domain.ErrPayoutNotFound):
		problem.Write(w, problem.NotFound("no payout run recorded yet"))
	default:
		slog.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		problem.Write(w, problem.Internal("server error", problem.Traced(r.Context())))
	}
}

func writeUnavailable(w http.ResponseWriter, r *http.Request, err error) {
	slog.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
	problem.Write(w, problem.ServiceUnavailable("dependency unavailable"))
}
