package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type errHandler struct {
	slog.Handler
}

func (errHandler) Handle(context.Context, slog.Record) error {
	return errors.New("sink down")
}

func TestMultiHandler(t *testing.T) {
	t.Parallel()

	var info, errs bytes.Buffer
	h := newMultiHandler(
		slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	ctx := context.Background()
	require.True(t, h.Enabled(ctx, slog.LevelInfo))
	require.False(t, h.Enabled(ctx, slog.LevelDebug))

	log := slog.New(h).With(slog.String("component", "storage"))
	log.Info("stored")
	log.Error("failed")

	require.Contains(t, info.String(), "stored")
	require.Contains(t, info.String(), "failed")
	require.NotContains(t, errs.String(), "stored")
	require.Contains(t, errs.String(), `"component":"storage"`)
}

func TestMultiHandler_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newMultiHandler(
		errHandler{Handler: slog.NewJSONHandler(&bytes.Buffer{}, nil)},
		slog.NewJSONHandler(&buf, nil),
	)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0))
	require.Error(t, err)
	require.Contains(t, buf.String(), "hello")
}
