package main

import (
	"log"

	"github.com/gaitworks/gaitkit/internal/api"
	"github.com/gaitworks/gaitkit/internal/config"
	"github.com/gaitworks/gaitkit/internal/mapping"
)

func main() {
	cfg := config.Load()

	mappingCfg, err := mapping.Load(cfg.MappingPath)
	if err != nil {
		log.Fatalf("[Server] Failed to load mapping config %s: %v", cfg.MappingPath, err)
	}

	r := api.SetupRouter(cfg, mappingCfg)

	log.Printf("[Server] Listening on %s", cfg.Port)
	if err := r.Run(cfg.Port); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
