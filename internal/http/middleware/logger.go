package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"supplierportal/internal/logging"
)

// Logger logs each HTTP request as one JSON line on stdout in UTC.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.UTC)
}

// LoggerWithWriter logs each HTTP request as one JSON line to w, with the
// timestamp rendered in loc. Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
// - actor_id (when authenticated)
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return LoggerWithLogger(logging.New(w, loc, "info"))
}

// LoggerWithLogger logs requests through an existing logger.
func LoggerWithLogger(log logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		fields := logrus.Fields{
			"request_id": rid,
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		if actor, ok := ActorFrom(c); ok {
			fields["actor_id"] = actor.ID
		}
		log.WithFields(fields).Info("request")

		return err
	}
}
