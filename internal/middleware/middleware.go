package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// The upload page renders the QR code from a data: URL and posts to the same origin.
var securityHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "GET, HEAD, POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type",
	"Strict-Transport-Security":    "max-age=63072000; includeSubDomains; preload",
	"X-Frame-Options":              "sameorigin",
	"X-Content-Type-Options":       "nosniff",
	"Content-Security-Policy":      "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'; font-src 'self'",
	"Referrer-Policy":              "no-referrer, strict-origin-when-cross-origin",
}

// SecurityHeaders adds security-related HTTP headers to responses
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for k, v := range securityHeaders {
				h.Set(k, v)
			}
			h.Del("Server")

			return next(c)
		}
	}
}

// RequestID tags every request with a UUID in the X-Request-Id header,
// keeping an id supplied by a proxy in front of us.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
	})
}
