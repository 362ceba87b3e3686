// Copyright 2025 Nguyen Nhat Nguyen
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
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

// maxPort is the largest value of the 16-bit TCP port field.
const maxPort = 1<<16 - 1

var ErrBadPort = errors.New("server: bad port")

// Timeouts bounds the http.Server phases. Zero fields keep the defaults.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
}

var defaultTimeouts = Timeouts{
	ReadHeader: 5 * time.Second,
	Read:       10 * time.Second,
	Write:      10 * time.Second,
	Idle:       60 * time.Second,
	Shutdown:   10 * time.Second,
}

// Server is a net/http server whose handler is the mux wrapped by the
// global middlewares, in the order they were given.
type Server struct {
	http     *http.Server
	mux      *http.ServeMux
	timeouts Timeouts

	middlewares []func(http.Handler) http.Handler
	services    []RegistrableService
}

type Option func(*Server)

func WithTimeouts(t Timeouts) Option {
	return func(s *Server) {
		s.timeouts = Timeouts{
			ReadHeader: cmp.Or(t.ReadHeader, s.timeouts.ReadHeader),
			Read:       cmp.Or(t.Read, s.timeouts.Read),
			Write:      cmp.Or(t.Write, s.timeouts.Write),
			Idle:       cmp.Or(t.Idle, s.timeouts.Idle),
			Shutdown:   cmp.Or(t.Shutdown, s.timeouts.Shutdown),
		}
	}
}

// WithMux serves mux instead of a private one, so route lookups elsewhere
// (rate limiting, metrics) see the registered patterns.
func WithMux(mux *http.ServeMux) Option {
	return func(s *Server) {
		if mux != nil {
			s.mux = mux
		}
	}
}

func WithServices(svcs ...RegistrableService) Option {
	return func(s *Server) { s.services = append(s.services, svcs...) }
}

// WithGlobalMiddlewares wraps the mux; the first middleware is outermost.
// Service middlewares are appended after these.
func WithGlobalMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(s *Server) { s.middlewares = append(s.middlewares, mw...) }
}

// New builds a server bound to host:port. An empty host listens on all interfaces.
func New(host string, port int, opts ...Option) (*Server, error) {
	if port <= 0 || port > maxPort {
		return nil, fmt.Errorf("%w: %d", ErrBadPort, port)
	}
	if host == "" {
		slog.Warn("empty host, binding to all interfaces")
		host = "0.0.0.0"
	}

	s := &Server{mux: http.NewServeMux(), timeouts: defaultTimeouts}
	for _, opt := range opts {
		opt(s)
	}

	for _, svc := range s.services {
		svc.Register(s.mux)
		s.middlewares = append(s.middlewares, svc.Middlewares()...)
		slog.Info("registered service", slog.String("type", fmt.Sprintf("%T", svc)))
	}

	var handler http.Handler = s.mux
	for i := len(s.middlewares) - 1; i >= 0; i-- {
		handler = s.middlewares[i](handler)
	}

	s.http = &http.Server{
		Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
		Handler:           handler,
		ReadHeaderTimeout: s.timeouts.ReadHeader,
		ReadTimeout:       s.timeouts.Read,
		WriteTimeout:      s.timeouts.Write,
		IdleTimeout:       s.timeouts.Idle,
	}
	return s, nil
}

// Handler returns the composed middleware chain.
func (s *Server) Handler() http.Handler { return s.http.Handler }

func (s *Server) Addr() string { return s.http.Addr }

// Run listens on Addr and serves until ctx is cancelled.
// Bind errors are returned before any request is served.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is cancelled, then drains in-flight
// requests for at most the shutdown timeout. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "serving http", slog.String("addr", ln.Addr().String()))
		serveErr <- s.http.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.InfoContext(ctx, "shutting down http server", slog.Duration("timeout", s.timeouts.Shutdown))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeouts.Shutdown)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
