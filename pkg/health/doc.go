// Package health provides liveness and readiness HTTP handlers.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"storage": health.DirWritable(cfg.Storage.Root),
//	}, health.WithLogger(log)))
//
// Probes answer plain text ("OK" or "Service Unavailable") by default. JSON
// is returned for ?format=json or Accept: application/json:
//
//	{"status":"unhealthy","checks":{"storage":{"status":"unhealthy","error":"..."}}}
//
// Checks run concurrently under one timeout (3s by default). A check that
// outlives the timeout is reported with [ErrCheckTimeout].
package health
