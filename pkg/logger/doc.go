// Package logger builds *slog.Logger instances through functional options and
// keeps attribute names consistent across the codebase.
//
// New wraps a text or JSON handler in LogHandlerDecorator, which runs the
// registered ContextExtractor callbacks on every record so request-scoped
// values (request id, client IP) appear without being passed around:
//
//	log := logger.New(
//	    logger.WithConfig(cfg),
//	    logger.WithContextExtractors(requestid.LoggerExtractor(), clientip.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "session created", logger.UserID(id), logger.SessionID(sid))
//
// Raw session tokens must never be logged; use SessionID.
package logger
