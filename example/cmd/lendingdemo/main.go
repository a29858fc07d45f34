// Command lendingdemo wires a lending.Manager from LENDING_* configuration and plays a short
// lending scenario against it: seeding the catalog, registering readers, borrowing, returning
// and pricing late returns.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AntonStoeckl/library-lending-go/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	app, err := newApp(ctx, cfg, os.Stderr)
	if err != nil {
		log.Fatalf("Failed to wire the lending manager: %v", err)
	}

	runErr := runScenario(ctx, app, os.Stdout)

	if err := app.close(context.Background()); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	if runErr != nil {
		log.Fatalf("Scenario failed: %v", runErr)
	}
}
