package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/existflow/timegrid/internal/logger"
	"github.com/existflow/timegrid/server"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("No DATABASE_URL and no home directory: %v", err)
		}
		dbURL = filepath.Join(home, ".timegrid", "server.db")
	}

	secret := os.Getenv("TIMEGRID_JWT_SECRET")
	if secret == "" {
		secret = "timegrid-dev-secret"
		log.Println("TIMEGRID_JWT_SECRET not set, using development default")
	}

	logCfg := logger.DefaultConfig()
	logCfg.Console = true
	if err := logger.Init(logCfg); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	srv, err := server.New(dbURL, []byte(secret))
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			log.Printf("Error closing server: %v", err)
		}
	}()

	log.Printf("Timegrid dev server starting on :%s (db: %s)", port, dbURL)
	if err := srv.Start(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
