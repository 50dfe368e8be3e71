package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"humanity/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build both HMN ledgers, the distributor and the shared coordinator.
// 3) Serve HTTP and run the enabled background jobs until signalled.
func main() {
	log.Println("humanity api starting")
	app, err := bootstrap.BuildAPI()
	if err != nil {
		log.Fatalf("bootstrap api failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("api shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("humanity api stopped with error: %v", err)
	}
}
