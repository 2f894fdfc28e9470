// Package handlers contains the health checks and reusable middleware of the
// chat server.
//
// # Health Checks
//
// The composite checker runs every registered check in parallel, each under
// its own timeout:
//
//	checker := handlers.NewCompositeHealthChecker("0.1.0")
//	checker.AddCheck("postgres", handlers.NewPingCheck(conn))
//	checker.AddCheck("redis", handlers.NewPingCheck(cache))
//	checker.AddCheck("records", handlers.NewBreakerCheck(recordsClient))
//
//	status := checker.Check(ctx)
//	if !status.Ready {
//	    logger.Warn("not ready", "reason", status.Message)
//	}
//
// A failed check makes the service not ready. Liveness never depends on
// collaborators.
//
// # Middleware
//
//	handler := handlers.ChainHandler(
//	    mux,
//	    handlers.RequestIDMiddleware,
//	    handlers.RequestSizeLimitMiddleware(64<<10),
//	)
//
// The first middleware in the list is the outermost.
package handlers
