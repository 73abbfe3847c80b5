package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := initializeApp()
	if err != nil {
		log.Fatalf("weather-favorites: wiring failed: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("weather-favorites: stopped with error: %v", err)
	}
}
