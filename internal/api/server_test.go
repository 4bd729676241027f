package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteJSON_LogsEncodeFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := New(nil, nil, WithLogger(log))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	s.writeJSON(rec, req, http.StatusOK, map[string]any{"bad": make(chan int)})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, buf.String(), "failed to write response body")
	require.Contains(t, buf.String(), "unsupported type")
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := New(nil, nil, WithLogger(log))

	rec := httptest.NewRecorder()
	s.writeJSON(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusCreated, urlResponse{URL: "/uploads/u1/a.pdf"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"url":"/uploads/u1/a.pdf"}`, rec.Body.String())
	require.Empty(t, buf.String())
}
