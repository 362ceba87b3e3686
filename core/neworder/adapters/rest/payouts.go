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

	"neworder/modules/api/serde"
	"neworder/modules/etag"
)

// GetLastPayout returns the summary of the most recent payout run, 404 before the first run.
// Runs are immutable, so the run id doubles as the ETag.
func (a *NewOrderAPI) GetLastPayout(w http.ResponseWriter, r *http.Request) {
	run, err := a.app.LastPayout(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if etag.NotModified(w, r, run) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	serde.WriteJSON(w, http.StatusOK, run)
}
