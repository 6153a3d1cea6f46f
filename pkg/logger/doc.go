// Package logger builds the *slog.Logger used across railscookie.
//
// New takes functional options for level, output format and static
// attributes, and wraps the handler so that ContextExtractor callbacks can
// add request scoped attributes such as the request id on every record.
//
//	log := logger.New(
//	    logger.WithEnvironment(logger.EnvProduction, "railscookie"),
//	    logger.WithContextExtractors(requestid.Extractor()),
//	)
//	log.InfoContext(ctx, "cookie decrypted", logger.Component("bridge"))
//
// NewFromConfig does the same from APP_ENV, APP_NAME, LOG_LEVEL and
// LOG_FORMAT. Noop returns a logger that drops everything; it is the default
// for library types that accept a logger.
//
// Attribute helpers such as Error and Component keep key names consistent.
// Error returns an empty attribute for a nil error, so it can be passed
// unconditionally.
package logger
