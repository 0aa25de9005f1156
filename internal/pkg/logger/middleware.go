package logger

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
)

// ZapEchoMiddleware logs every HTTP request with latency, status and caller
// identity through the given Zap logger.
func ZapEchoMiddleware(logger *ZapLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			path := c.Request().URL.Path
			raw := c.Request().URL.RawQuery

			err := next(c)

			latency := time.Since(start)
			statusCode := c.Response().Status
			method := c.Request().Method

			if raw != "" {
				path = path + "?" + raw
			}

			userID := "anonymous"
			if uid := c.Get("user_id"); uid != nil {
				userID = fmt.Sprintf("%v", uid)
			}

			requestID := c.Response().Header().Get("X-Request-ID")

			fields := []Field{
				String("method", method),
				String("path", path),
				Int("status", statusCode),
				Duration("latency", latency),
				String("client_ip", c.RealIP()),
				String("user_id", userID),
				String("request_id", requestID),
			}

			switch {
			case err != nil:
				logger.Error("HTTP request failed", append(fields, Err(err))...)
			case statusCode >= 500:
				logger.Error("HTTP request", fields...)
			case statusCode >= 400:
				logger.Warn("HTTP request", fields...)
			default:
				logger.Info("HTTP request", fields...)
			}

			return err
		}
	}
}
