package http

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/lead-crm-service/internal/observability"
	apperrors "github.com/spec-kit/lead-crm-service/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
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

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

// WebhookRateLimiter caps inbound webhook calls using a fixed one-minute
// window counter in Redis, keyed by the caller's token when present and by
// client IP otherwise. A nil client or non-positive limit disables the cap.
// Redis outages fail open so lead intake is never blocked by the limiter
// itself.
func WebhookRateLimiter(client *redis.Client, perMinute int, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || perMinute <= 0 {
			return c.Next()
		}

		caller := c.Params("token")
		if caller == "" {
			caller = c.IP()
		}
		window := time.Now().UTC().Format("200601021504")
		key := fmt.Sprintf("ratelimit:webhook:%s:%s", caller, window)

		count, err := client.Incr(c.UserContext(), key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			client.Expire(c.UserContext(), key, time.Minute)
		}
		if count > int64(perMinute) {
			return apperrors.NewDomainError(
				"RATE_LIMITED",
				"too many webhook requests",
				fiber.StatusTooManyRequests,
				nil,
			)
		}
		return c.Next()
	}
}
