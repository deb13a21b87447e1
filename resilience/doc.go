// Package resilience provides the fault-tolerance primitives used around
// external dependencies.
//
//   - Retry: bounded attempts with fixed or exponential backoff; the staging
//     upload uses FixedRetryConfig.
//   - CircuitBreaker: fails fast while a recognition provider keeps failing.
//   - KeyedRateLimiter: per-client token buckets for the HTTP surface.
package resilience
