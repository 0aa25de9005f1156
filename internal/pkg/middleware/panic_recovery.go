package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/safarbet/safarbet/internal/pkg/logger"
)

// PanicRecoveryMiddleware recovers from panics in handlers, logs them with
// a stack trace and returns a 500 response instead of crashing the worker.
func PanicRecoveryMiddleware(zapLogger *logger.ZapLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					handlePanic(c, r, zapLogger)
				}
			}()

			return next(c)
		}
	}
}

func handlePanic(c echo.Context, r interface{}, zapLogger *logger.ZapLogger) {
	stack := debug.Stack()

	userID := "anonymous"
	if uid := c.Get("user_id"); uid != nil {
		userID = fmt.Sprintf("%v", uid)
	}

	requestID := c.Response().Header().Get("X-Request-ID")
	if requestID == "" {
		requestID = c.Request().Header.Get("X-Request-ID")
	}

	zapLogger.Error("Panic recovered",
		logger.Any("panic", r),
		logger.String("method", c.Request().Method),
		logger.String("path", c.Request().URL.Path),
		logger.String("client_ip", c.RealIP()),
		logger.String("user_id", userID),
		logger.String("request_id", requestID),
		logger.String("stacktrace", string(stack)),
	)

	if !c.Response().Committed {
		_ = c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal server error",
		})
	}
}
