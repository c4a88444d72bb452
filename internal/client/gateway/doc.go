// Package gateway is the console's connection to the pipeline backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) covering the
//     five REST shapes the backend exposes for each collection R:
//     GET /R, POST /R, PATCH /R/{id}, DELETE /R/{id} and POST /R/{id}/{action}.
//  2. A concrete JSON-over-HTTP implementation (see HTTPClient) that stamps
//     every request with an X-Request-Id, optionally attaches a bearer token
//     (StaticToken or HMACTokenSource) and validates listings against the
//     embedded JSON schemas (Validator) before decoding them.
//  3. A gRPC health probe (HealthProbe) for deployments exposing the standard
//     grpc.health.v1 service.
//
// # Error Handling
//
// Every call makes exactly one request. Nothing is retried here or anywhere
// above. Failures are classified with sentinel errors callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrNotFound,
// ErrInvalidSnapshot. Non-2xx answers are returned as *HTTPError.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept a
// context.Context and honor cancellation.
package gateway
