package main

import (
	"flag"
	"log"

	"github.com/noah-isme/edu-center-api/pkg/config"
	"github.com/noah-isme/edu-center-api/pkg/database"
)

func main() {
	direction := flag.String("direction", "up", "up, down or status")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db, *direction); err != nil {
		log.Fatalf("migration %s failed: %v", *direction, err)
	}
	log.Printf("migration %s complete", *direction)
}
