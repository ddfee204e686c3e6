package middleware

import (
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/medbook/bookd/internal/platform/apperror"
)

// Recovery converts a handler panic into an Internal apperror so the
// central error handler renders it like any other failure.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					rid, _ := c.Get("request_id").(string)
					logger.Error().
						Str("request_id", rid).
						Str("path", c.Request().URL.Path).
						Interface("panic", r).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")
					err = apperror.E(apperror.Internal, "internal server error")
				}
			}()
			return next(c)
		}
	}
}
