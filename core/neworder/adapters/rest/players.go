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
	"net/http"

	"neworder/core/neworder/domain"
	"neworder/modules/api/serde"
	"neworder/modules/middleware/problem"
)

func (a *NewOrderAPI) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathID(r, "playerId")
	if !ok {
		writeInvalidParam(w, "playerId")
		return
	}
	stats, err := a.app.PlayerStats(r.Context(), playerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, stats)
}

func (a *NewOrderAPI) ResetPlayer(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathID(r, "playerId")
	if !ok {
		writeInvalidParam(w, "playerId")
		return
	}
	if err := a.app.ResetPlayer(r.Context(), playerID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *NewOrderAPI) Smite(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathID(r, "playerId")
	if !ok {
		writeInvalidParam(w, "playerId")
		return
	}
	n, err := a.app.Smite(r.Context(), playerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (a *NewOrderAPI) Cleanse(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathID(r, "playerId")
	if !ok {
		writeInvalidParam(w, "playerId")
		return
	}
	n, err := a.app.Cleanse(r.Context(), playerID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (a *NewOrderAPI) BlessBuzz(w http.ResponseWriter, r *http.Request) {
	playerID, ok := pathID(r, "playerId")
	if !ok {
		writeInvalidParam(w, "playerId")
		return
	}
	var req blessBuzzRequest
	if err := serde.ParseJsonBody(r.Body, &req); err != nil {
		problem.Write(w, problem.BadRequest("malformed request body"))
		return
	}
	n, err := a.app.BlessBuzz(r.Context(), playerID, req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (a *NewOrderAPI) RecordJudgement(w http.ResponseWriter, r *http.Request) {
	var req judgementRequest
	if err := serde.ParseJsonBody(r.Body, &req); err != nil {
		problem.Write(w, problem.BadRequest("malformed request body"))
		return
	}
	stats, err := a.app.RecordJudgement(r.Context(), domain.Judgement{
		PlayerID:  req.PlayerID,
		ImageID:   req.ImageID,
		Rank:      req.Rank,
		NsfwLevel: req.NsfwLevel,
		Correct:   req.Correct,
		Exp:       valueOrZero(req.Exp),
		Fervor:    valueOrZero(req.Fervor),
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, stats)
}

func (a *NewOrderAPI) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		writeInvalidParam(w, "limit")
		return
	}
	board, err := a.app.Leaderboard(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, ranking(board))
}
