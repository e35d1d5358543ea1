package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplierportal/internal/auth"
	"supplierportal/internal/model"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		rid := c.Locals(RequestIDLocalKey)
		return c.SendString(rid.(string))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		// Check if it's readable in handler (from response body)
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})

	t.Run("should replace unusable request id", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("a", 200), "has space"} {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set(RequestIDHeader, bad)

			resp, _ := app.Test(req)

			got := resp.Header.Get(RequestIDHeader)
			assert.NotEqual(t, bad, got)
			assert.Len(t, got, 36)
		}
	})
}

func TestNoop(t *testing.T) {
	app := fiber.New()
	app.Use(Noop())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	buf := new(bytes.Buffer)
	buf.ReadFrom(resp.Body)
	assert.Equal(t, "ok", buf.String())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	loc := time.UTC

	// Logger usually depends on RequestID for request_id field
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	// Verify log output
	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	assert.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
	assert.NotContains(t, logData, "actor_id")
}

func TestLogger_ActorAndLocation(t *testing.T) {
	var buf bytes.Buffer
	loc := time.FixedZone("SAST", 2*60*60)
	app := fiber.New()
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, loc))
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(ActorLocalKey, model.Actor{ID: "user-1", Role: model.RoleApplicant})
		return c.Next()
	})
	app.Get("/test", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusConflict, "moved")
	})

	_, err := app.Test(httptest.NewRequest("GET", "/test", nil))
	require.NoError(t, err)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, "user-1", logData["actor_id"])
	assert.Equal(t, float64(fiber.StatusConflict), logData["status"])
	assert.True(t, strings.HasSuffix(logData["ts"].(string), "+02:00"), logData["ts"])
}

type verifierFunc func(string) (model.Actor, error)

func (f verifierFunc) ActorFromToken(token string) (model.Actor, error) { return f(token) }

func TestAuth(t *testing.T) {
	issuer, err := auth.NewIssuer("secret", "supplierportal", time.Minute)
	require.NoError(t, err)
	token, err := issuer.GenerateToken(model.Actor{ID: "proc-1", Role: model.RoleProcurement})
	require.NoError(t, err)

	app := fiber.New()
	app.Use(Auth(issuer))
	app.Get("/me", func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(actor.ID + ":" + string(actor.Role))
	})

	tests := []struct {
		name   string
		header string
		want   int
		body   string
	}{
		{name: "valid token", header: "Bearer " + token, want: fiber.StatusOK, body: "proc-1:procurement"},
		{name: "lowercase scheme", header: "bearer " + token, want: fiber.StatusOK, body: "proc-1:procurement"},
		{name: "missing header", want: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: fiber.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", want: fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.body != "" {
				buf := new(bytes.Buffer)
				buf.ReadFrom(resp.Body)
				assert.Equal(t, tt.body, buf.String())
			}
		})
	}

	t.Run("verifier error is hidden", func(t *testing.T) {
		app := fiber.New()
		app.Use(Auth(verifierFunc(func(string) (model.Actor, error) { return model.Actor{}, errors.New("db down") })))
		app.Get("/me", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

		req := httptest.NewRequest("GET", "/me", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer x")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.NotContains(t, buf.String(), "db down")
	})
}
