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

package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingService struct {
	trace *[]string
}

func (p pingService) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		*p.trace = append(*p.trace, "handler")
		w.WriteHeader(http.StatusNoContent)
	})
}

func (p pingService) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{tag(p.trace, "service")}
}

func tag(trace *[]string, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNewRejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 1 << 16} {
		_, err := New("127.0.0.1", port)
		assert.ErrorIs(t, err, ErrBadPort)
	}
}

func TestNewDefaultsHost(t *testing.T) {
	s, err := New("", 8080)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", s.Addr())
}

func TestMiddlewareOrder(t *testing.T) {
	var trace []string
	s, err := New("127.0.0.1", 8080,
		WithGlobalMiddlewares(tag(&trace, "first"), tag(&trace, "second")),
		WithServices(pingService{trace: &trace}),
	)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"first", "second", "service", "handler"}, trace)
}

func TestWithMuxSharesRoutes(t *testing.T) {
	mux := http.NewServeMux()
	var trace []string
	_, err := New("127.0.0.1", 8080, WithMux(mux), WithServices(pingService{trace: &trace}))
	require.NoError(t, err)

	_, pattern := mux.Handler(httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, "GET /ping", pattern)
}

func TestWithTimeoutsKeepsDefaults(t *testing.T) {
	s, err := New("127.0.0.1", 8080, WithTimeouts(Timeouts{Write: time.Minute}))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, s.http.WriteTimeout)
	assert.Equal(t, defaultTimeouts.Read, s.http.ReadTimeout)
	assert.Equal(t, defaultTimeouts.Shutdown, s.timeouts.Shutdown)
}

func TestServeUntilCancelled(t *testing.T) {
	var trace []string
	s, err := New("127.0.0.1", 8080, WithServices(pingService{trace: &trace}))
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/ping")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRunReportsBindError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	s, err := New("127.0.0.1", port)
	require.NoError(t, err)

	err = s.Run(context.Background())
	assert.ErrorContains(t, err, "listen")
}
