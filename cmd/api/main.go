package main

import (
	"log"

	"claimsift/internal"
	"claimsift/internal/config"
	"claimsift/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	c, err := container.New(cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)))
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer c.Close()

	if err := c.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := c.APIServer().Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Server failed:", err)
	}
}
