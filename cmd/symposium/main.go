package main

import (
	"context"
	"log"

	symposium "github.com/symposium-chat/symposium"
	"github.com/symposium-chat/symposium/config"
)

func main() {
	cfg := config.Load()
	app, err := symposium.New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	if err := app.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
