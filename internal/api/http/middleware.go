package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lukeeterna/dropevolution-api/internal/observability"
	apperrors "github.com/lukeeterna/dropevolution-api/pkg/util"
)

// RegisterMiddlewares attaches global middlewares: timeout propagation,
// error rendering, security headers and request logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(securityHeadersMiddleware())
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware is the single place where errors become HTTP
// responses. Every rejection shares the same envelope shape; only the code
// and status differ, so clients can dispatch on the code alone.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			apiErr := apperrors.ToAPIError(err)
			status := apiErr.HTTPStatus()

			metrics.RecordError(c.Path(), c.Method(), string(apiErr.Kind))
			metrics.RecordRejection(string(apiErr.Kind))
			if status >= http.StatusInternalServerError {
				logger.Error("request failed", zap.String("path", c.Path()), zap.Error(apiErr))
			}

			if status == http.StatusUnauthorized {
				c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
			}

			body := fiber.Map{
				"code":    apiErr.Kind,
				"message": apiErr.Message,
			}
			if len(apiErr.Details) > 0 {
				body["details"] = apiErr.Details
			}
			c.Status(status)
			_ = c.JSON(fiber.Map{"error": body})
			err = nil
		}()
		return c.Next()
	}
}

// securityHeadersMiddleware hardens every response.
func securityHeadersMiddleware() fiber.Handler {
	headers := map[string]string{
		"X-Content-Type-Options":    "nosniff",
		"X-Frame-Options":           "DENY",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
		"Content-Security-Policy":   "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; script-src 'self'",
	}
	return func(c *fiber.Ctx) error {
		for k, v := range headers {
			c.Set(k, v)
		}
		return c.Next()
	}
}
