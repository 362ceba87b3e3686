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

package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"neworder/core/neworder/adapters/rest"
	"neworder/core/neworder/domain"
	"neworder/modules/counter/memstore"
	"neworder/modules/oapi"
	"neworder/modules/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	app := domain.NewApp(domain.NewCounters(memstore.New(), nil), nil, nil)
	svc := NewNewOrderAPIService(rest.NewNewOrderAPI(app), oapi.Specs, oapi.NewOrderSpec)

	s, err := server.New("127.0.0.1", 8080, server.WithServices(svc))
	require.NoError(t, err)
	return s.Handler()
}

func TestServiceServesValidatedRoutes(t *testing.T) {
	h := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/players/9/buzz", strings.NewReader(`{"amount":12}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"count":12}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServiceRejectsBeforeHandler(t *testing.T) {
	h := newServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/players/9/buzz", strings.NewReader(`{"amount":-3}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation failed")
}
