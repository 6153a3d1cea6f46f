// Package httpserver runs the bridge HTTP server with the timeouts from
// Config and shuts it down gracefully when the context is cancelled or the
// process receives SIGINT or SIGTERM.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("bridge stopped", logger.Error(err))
//	}
//
// Start and listen failures wrap ErrStart; a shutdown that misses its
// deadline wraps ErrShutdown.
package httpserver
