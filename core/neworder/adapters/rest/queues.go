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

func (a *NewOrderAPI) GetImageQueue(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		writeInvalidParam(w, "limit")
		return
	}
	queue, err := a.app.ImageQueue(r.Context(), domain.Rank(r.PathValue("rank")), limit)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, ranking(queue))
}

func (a *NewOrderAPI) EnqueueImage(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := serde.ParseJsonBody(r.Body, &req); err != nil {
		problem.Write(w, problem.BadRequest("malformed request body"))
		return
	}
	n, err := a.app.EnqueueImage(r.Context(), domain.Rank(r.PathValue("rank")), req.ImageID, req.Priority)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

func (a *NewOrderAPI) DequeueImage(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathID(r, "imageId")
	if !ok {
		writeInvalidParam(w, "imageId")
		return
	}
	if err := a.app.DequeueImage(r.Context(), domain.Rank(r.PathValue("rank")), imageID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *NewOrderAPI) GetImageRatings(w http.ResponseWriter, r *http.Request) {
	imageID, ok := pathID(r, "imageId")
	if !ok {
		writeInvalidParam(w, "imageId")
		return
	}
	n, err := a.app.ImageRatings(r.Context(), imageID, r.PathValue("ratingId"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	serde.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}
