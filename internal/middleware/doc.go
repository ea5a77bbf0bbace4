// Package middleware provides HTTP middleware for the Ember Quest API.
//
// The middleware package contains reusable middleware components for
// authentication, authorization, rate limiting, and request processing.
//
// # Available Middleware
//
// Core middleware components:
//
//   - Auth: JWT token validation and user extraction
//   - AdminAuth: Auth plus an admin role requirement
//   - RateLimit: Request rate limiting per user/IP
//   - Idempotency: Idempotent handling of retried mutations
//   - Metrics: Prometheus request instrumentation
//
// # Authentication
//
// The auth middleware validates JWT tokens and extracts user information:
//
//	mux.Handle("GET /v1/groups", middleware.Auth(authService)(handler))
//
// After authentication, handlers can access user info:
//
//	userID := middleware.GetUserID(r.Context())
//
// # Context Values
//
// Middleware sets context values accessible via helper functions:
//
//   - GetUserID(ctx): Returns authenticated user ID
//   - GetUserEmail(ctx): Returns authenticated user email
//   - GetClaims(ctx): Returns the full token claims
package middleware
