package main

import (
	"log"

	"ledger-api/internal/components"
	"ledger-api/internal/logging"
)

func main() {
	container, err := components.GetInstance()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	logging.Info("ledger api initialized", map[string]any{
		"port": container.Config.Server.Port,
	})

	if err := container.Start(); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
