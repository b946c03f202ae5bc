// Package middleware provides the gin middleware stack of the service:
// panic recovery, request IDs, request logging and CORS.
package middleware

// HeaderXRequestID is the request ID header name.
const HeaderXRequestID = "X-Request-ID"

// ContextKeyRequestID is the gin context key holding the request ID.
const ContextKeyRequestID = "request_id"
