// File: cmd/lakehouse/main.go
package main

import (
	"os"

	"lakehouse/internal/logger"

	// Explicitly import provider implementations to ensure their init() functions run and they register themselves
	_ "lakehouse/pkg/resource/gcp"
)

func main() {
	log := logger.NewLogger()

	app, err := newApp(log)
	if err != nil {
		log.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	os.Exit(Execute(app))
}
