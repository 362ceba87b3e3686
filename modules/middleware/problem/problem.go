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

// Package problem writes RFC 9457 problem details.
package problem

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"
)

const ContentType = "application/problem+json"

// Problem is an RFC 9457 problem details object.
type Problem struct {
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Status        int            `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	Instance      string         `json:"instance,omitempty"`
	TraceID       string         `json:"traceId,omitempty"`
	InvalidParams []InvalidParam `json:"invalidParams,omitempty"`
}

// InvalidParam names one rejected request field.
type InvalidParam struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type Option func(*Problem)

// New builds a problem for status. Title defaults to the status text.
func New(status int, detail string, opts ...Option) *Problem {
	p := &Problem{Type: "about:blank", Status: status, Detail: detail}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.Title == "" {
		p.Title = http.StatusText(p.Status)
	}
	if p.Title == "" {
		p.Title = "Unknown Error"
	}
	return p
}

func WithTitle(title string) Option {
	return func(p *Problem) { p.Title = title }
}

func WithType(uri string) Option {
	return func(p *Problem) { p.Type = uri }
}

func WithInstance(uri string) Option {
	return func(p *Problem) { p.Instance = uri }
}

func WithInvalidParam(name, reason string) Option {
	return func(p *Problem) {
		p.InvalidParams = append(p.InvalidParams, InvalidParam{Name: name, Reason: reason})
	}
}

// Traced copies the trace id of the span in ctx, if any.
func Traced(ctx context.Context) Option {
	return func(p *Problem) {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			p.TraceID = sc.TraceID().String()
		}
	}
}

func BadRequest(detail string, opts ...Option) *Problem {
	return New(http.StatusBadRequest, detail, opts...)
}

func NotFound(detail string, opts ...Option) *Problem {
	return New(http.StatusNotFound, detail, opts...)
}

func MethodNotAllowed(detail string, opts ...Option) *Problem {
	return New(http.StatusMethodNotAllowed, detail, opts...)
}

func UnprocessableEntity(detail string, opts ...Option) *Problem {
	return New(http.StatusUnprocessableEntity, detail, opts...)
}

func TooManyRequests(detail string, opts ...Option) *Problem {
	return New(http.StatusTooManyRequests, detail, opts...)
}

func Internal(detail string, opts ...Option) *Problem {
	return New(http.StatusInternalServerError, detail, opts...)
}

func ServiceUnavailable(detail string, opts ...Option) *Problem {
	return New(http.StatusServiceUnavailable, detail, opts...)
}

// Write encodes p with its status. A nil p is written as a bare 500.
func Write(w http.ResponseWriter, p *Problem) {
	if p == nil {
		p = Internal("")
	}
	w.Header().Set("Content-Type", ContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
