package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LEGAL_REVIEW_MODE", "Entity_Types")
	t.Setenv("LEGAL_REVIEW_ENTITY_TYPES", "TRUST, NPC,,")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, "entity_types", cfg.Workflow.LegalReviewMode)
	assert.Equal(t, []string{"TRUST", "NPC"}, cfg.Workflow.LegalReviewEntityTypes)
	assert.Equal(t, 10, cfg.Workflow.MaxListItems)
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{Timezone: "Africa/Johannesburg"}
	assert.Equal(t, "Africa/Johannesburg", cfg.Location().String())

	cfg.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST_VAR", " a ,b,, c")
	assert.Equal(t, []string{"a", "b", "c"}, getEnvList("TEST_LIST_VAR"))
	assert.Nil(t, getEnvList("NON_EXISTENT_LIST"))
}
