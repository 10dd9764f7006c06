package main

import (
	"postgate/internal/app"
	"postgate/pkg/config"
	"postgate/pkg/logger"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config: %v", err)
		panic(err)
	}

	app.Run(cfg, log)
}
