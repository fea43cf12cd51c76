// Package muxhandlers provides HTTP middleware handlers for the mux router.
//
// Rejections are written as JSON bodies of the same shape as request
// validation errors, so clients of a documented API see one error format.
//
// # Recovery Middleware
//
// RecoveryMiddleware turns a handler panic into a 500 response and logs
// it with log/slog, including the request ID when one is set.
//
//	r.Use(muxhandlers.RecoveryMiddleware(muxhandlers.RecoveryConfig{
//	    Logger: logger,
//	}))
//
// # Request ID Middleware
//
// RequestIDMiddleware sets a time-ordered UUID on every request and
// response. Incoming IDs are reused only when TrustIncoming is set.
//
//	mw, err := muxhandlers.RequestIDMiddleware(muxhandlers.RequestIDConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(mw)
//
// # Body Limits
//
// RequestSizeLimitMiddleware and ContentTypeCheckMiddleware guard the
// bodies that request validation decodes:
//
//	limit, err := muxhandlers.RequestSizeLimitMiddleware(muxhandlers.RequestSizeLimitConfig{
//	    MaxBytes: 1 << 20,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r.Use(limit)
package muxhandlers
