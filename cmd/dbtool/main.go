package main

import (
	"distance-batch-service/internal/adapters/repositories"
	"distance-batch-service/internal/config"
	"distance-batch-service/internal/platform/db"
	"log"
	"strings"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := config.Get("DATABASE_URL", "")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	log.Println("Applying run archive migrations...")
	if err := repositories.Migrate(conn); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("Schema ready.")
}
