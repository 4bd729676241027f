// Package logger builds the process-wide *slog.Logger.
//
// Records are written as JSON (or text) to stdout at the configured level.
// Context extractors add request-scoped attributes such as the request id and
// the caller's owner id to every record logged with a context:
//
//	log, err := logger.New(cfg,
//		logger.StringExtractor("request_id", middleware.GetRequestID),
//		identity.LogExtractor(),
//	)
//	log.InfoContext(ctx, "file stored", slog.String("key", key))
//	// {"level":"INFO","msg":"file stored","key":"...","request_id":"...","owner_id":"u1"}
//
// # Sentry
//
// When Config.SentryDSN is set, error records become Sentry issues and warnings
// are kept as Sentry logs. A failed SDK initialization is logged and the
// logger falls back to stdout only. Call Flush before exit.
//
// Tests that need a logger but no output use NewNope.
package logger
