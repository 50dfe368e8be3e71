package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"humanity/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring against the shared Postgres distributor state.
// 3) Run the fee sweeper and outbox relay on their intervals.
func main() {
	log.Println("humanity worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Printf("humanity worker stopped with error: %v", err)
	}
}
