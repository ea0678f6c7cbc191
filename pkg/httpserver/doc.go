// Package httpserver runs an http.Server with graceful shutdown and
// probe endpoints, configured from the environment.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
