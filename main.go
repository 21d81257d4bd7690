package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"guardianintake/cmd"
	"guardianintake/internal/config"
	"guardianintake/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Warning: Could not load configuration: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	} else {
		if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	mainLog := logger.WithComponent("main")
	mainLog.Info().Msg("Starting Guardian Intake")

	cmd.Execute()

	mainLog.Info().Msg("Guardian Intake shutdown")
	os.Exit(0)
}
