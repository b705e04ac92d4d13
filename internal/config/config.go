package config

import (
	"os"
)

// Config holds the service configuration.
type Config struct {
	Port        string
	MappingPath string // channel-mapping YAML consumed by the pipeline
	JWTSecret   string // empty disables bearer auth
}

// Load reads the configuration from the environment.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	mappingPath := os.Getenv("MAPPING_CONFIG")
	if mappingPath == "" {
		mappingPath = "./configs/mapping.yaml"
	}

	return &Config{
		Port:        port,
		MappingPath: mappingPath,
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
}
