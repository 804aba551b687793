// Package httpserver runs an http.Handler until its context ends or the
// process receives SIGINT/SIGTERM, then shuts down gracefully.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	router.Get("/healthz", httpserver.LivenessHandler())
//	router.Get("/readyz", httpserver.ReadinessHandler(log,
//	    httpserver.Check{Name: "store", Func: store.Healthcheck},
//	))
//	if err := srv.Run(ctx, router); err != nil {
//	    log.Error("server stopped", logger.Error(err))
//	}
package httpserver
