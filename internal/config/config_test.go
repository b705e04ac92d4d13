package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("MAPPING_CONFIG", "")
	t.Setenv("JWT_SECRET", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "./configs/mapping.yaml", cfg.MappingPath)
	assert.Empty(t, cfg.JWTSecret)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("MAPPING_CONFIG", "/etc/gaitkit/mapping.yaml")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := Load()
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "/etc/gaitkit/mapping.yaml", cfg.MappingPath)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}
