// Package server is the HTTP surface of voicenote, built on Gin with h2c.
//
// Routes:
//
//   - POST /v1/transcriptions: submit audio (raw body or multipart field
//     "audio") and wait for the transcript
//   - GET /health: aggregated component health
//   - GET /info: version and effective pipeline settings
//   - GET /metrics: runtime and job counters
//
// Every request passes through server/middleware in this order: recovery,
// request ID, CORS, request logging, body size limit, optional HS256 bearer
// auth and per-client rate limiting.
package server
