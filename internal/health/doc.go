// Package health provides liveness and readiness endpoints.
//
// A Checker aggregates named readiness checks. The service is ready when
// every check reports healthy or degraded and the checker is not draining.
// Draining is switched on during graceful shutdown so load balancers stop
// routing new requests before the listener closes.
package health
