package problem

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewDefaults(t *testing.T) {
	p := New(http.StatusTeapot, "short and stout")
	assert.Equal(t, "about:blank", p.Type)
	assert.Equal(t, "I'm a teapot", p.Title)

	p = New(599, "", WithTitle(""))
	assert.Equal(t, "Unknown Error", p.Title)
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, BadRequest("invalid request parameter(s)",
		WithInvalidParam("rank", "invalid value"),
		WithInvalidParam("limit", "invalid value"),
		WithInstance("/v1/queues/Pope")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ContentType, rec.Header().Get("Content-Type"))

	var got Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "Bad Request", got.Title)
	assert.Equal(t, "/v1/queues/Pope", got.Instance)
	assert.Len(t, got.InvalidParams, 2)
	assert.Empty(t, got.TraceID)
}

func TestWriteNil(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTraced(t *testing.T) {
	assert.Empty(t, Internal("x", Traced(context.Background())).TraceID)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{0x01, 0x02},
		SpanID:  trace.SpanID{0x03},
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	assert.Equal(t, sc.TraceID().String(), Internal("x", Traced(ctx)).TraceID)
}
