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

package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rl "neworder/modules/ratelimit"
)

// quota allows the first n calls per key.
type quota struct {
	n    int64
	used map[rl.Key]int64
	err  error
}

func (q *quota) Allow(_ context.Context, key rl.Key) (rl.Result, error) {
	if q.err != nil {
		return rl.Result{}, q.err
	}
	q.used[key]++
	allowed := q.used[key] <= q.n
	res := rl.Result{Allowed: allowed, Limit: q.n, Window: time.Minute, WindowResetIn: 1500 * time.Millisecond}
	if allowed {
		res.Remaining = q.n - q.used[key]
	} else {
		res.RetryAfter = 1500 * time.Millisecond
	}
	return res, nil
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }
	mux.HandleFunc("POST /v1/judgements", ok)
	mux.HandleFunc("GET /v1/leaderboard", ok)
	return mux
}

func fixedFactory(q *quota) rl.LimiterFactory {
	return func(limit int64, _ time.Duration) rl.RateLimiter {
		q.n = limit
		return q
	}
}

func serve(h http.Handler, method, path, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = ip + ":5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouteLimit(t *testing.T) {
	mux := newMux()
	q := &quota{used: map[rl.Key]int64{}}
	cfg := &RestHTTPConfig{
		Routes: []Route{{
			Pattern:       "POST /v1/judgements",
			EndpointRules: []EndpointRule{{Limit: 1, Window: time.Minute, KeyStrategy: RemoteIpKeyStrategy}},
		}},
		AllowIfNoMatch: true,
	}
	rtp, err := ParsePolicy(fixedFactory(q), cfg, MuxRouteInfo(mux),
		map[KeyStrategyId]KeyFunc{RemoteIpKeyStrategy: RemoteIpKeyFunc})
	require.NoError(t, err)
	h := NewRateLimitMiddleware(rtp)(mux)

	rec := serve(h, http.MethodPost, "/v1/judgements", "10.0.0.1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Reset-Seconds"))

	rec = serve(h, http.MethodPost, "/v1/judgements", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	// another caller has its own budget
	rec = serve(h, http.MethodPost, "/v1/judgements", "10.0.0.2")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// unconfigured routes pass through
	rec = serve(h, http.MethodGet, "/v1/leaderboard", "10.0.0.1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDefaultPolicyPerRoute(t *testing.T) {
	mux := newMux()
	q := &quota{used: map[rl.Key]int64{}}
	routeFn := MuxRouteInfo(mux)
	cfg := &RestHTTPConfig{
		DefaultPolicy: EndpointRule{Limit: 1, Window: time.Minute, KeyStrategy: RouteIpKeyStrategy},
	}
	rtp, err := ParsePolicy(fixedFactory(q), cfg, routeFn,
		map[KeyStrategyId]KeyFunc{RouteIpKeyStrategy: RouteIpKeyFunc(routeFn)})
	require.NoError(t, err)
	h := NewRateLimitMiddleware(rtp)(mux)

	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "/v1/judgements", "10.0.0.1").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "/v1/leaderboard", "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/v1/leaderboard", "10.0.0.1").Code)
}

func TestNoPolicyDenied(t *testing.T) {
	mux := newMux()
	rtp, err := ParsePolicy(fixedFactory(&quota{used: map[rl.Key]int64{}}), &RestHTTPConfig{}, MuxRouteInfo(mux), nil)
	require.NoError(t, err)
	h := NewRateLimitMiddleware(rtp)(mux)

	assert.Equal(t, http.StatusTooManyRequests, serve(h, http.MethodGet, "/v1/leaderboard", "10.0.0.1").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(h, http.MethodGet, "/nowhere", "10.0.0.1").Code)
}

func TestLimiterErrorIs500(t *testing.T) {
	mux := newMux()
	q := &quota{used: map[rl.Key]int64{}, err: errors.New("redis down")}
	cfg := &RestHTTPConfig{DefaultPolicy: EndpointRule{Limit: 5, Window: time.Minute, KeyStrategy: RemoteIpKeyStrategy}}
	rtp, err := ParsePolicy(fixedFactory(q), cfg, MuxRouteInfo(mux),
		map[KeyStrategyId]KeyFunc{RemoteIpKeyStrategy: RemoteIpKeyFunc})
	require.NoError(t, err)

	rec := serve(NewRateLimitMiddleware(rtp)(mux), http.MethodGet, "/v1/leaderboard", "10.0.0.1")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestParsePolicyErrors(t *testing.T) {
	strategies := map[KeyStrategyId]KeyFunc{RemoteIpKeyStrategy: RemoteIpKeyFunc}
	rule := EndpointRule{Limit: 1, Window: time.Second, KeyStrategy: RemoteIpKeyStrategy}
	factory := fixedFactory(&quota{used: map[rl.Key]int64{}})
	routeFn := MuxRouteInfo(newMux())

	tests := []struct {
		name string
		cfg  RestHTTPConfig
	}{
		{name: "duplicate method", cfg: RestHTTPConfig{Routes: []Route{{Pattern: "GET /x", EndpointRules: []EndpointRule{rule, rule}}}}},
		{name: "unknown strategy", cfg: RestHTTPConfig{Routes: []Route{{Pattern: "GET /x", EndpointRules: []EndpointRule{{Limit: 1, Window: time.Second, KeyStrategy: "cookie"}}}}}},
		{name: "zero limit", cfg: RestHTTPConfig{Routes: []Route{{Pattern: "GET /x", EndpointRules: []EndpointRule{{Window: time.Second, KeyStrategy: RemoteIpKeyStrategy}}}}}},
		{name: "empty pattern", cfg: RestHTTPConfig{Routes: []Route{{EndpointRules: []EndpointRule{rule}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy(factory, &tt.cfg, routeFn, strategies)
			assert.ErrorIs(t, err, ErrInvalidPolicy)
		})
	}

	_, err := ParsePolicy(factory, &RestHTTPConfig{}, nil, strategies)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestRemoteIpKeyFunc(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, rl.Key("192.0.2.1"), RemoteIpKeyFunc(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 198.51.100.7")
	assert.Equal(t, rl.Key("198.51.100.7"), RemoteIpKeyFunc(req))
}
