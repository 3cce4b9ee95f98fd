package main

import (
	"context"
	"log"
	"time"

	"ai-finance-assistant-be/internal/bootstrap"
	"ai-finance-assistant-be/internal/config"
	"ai-finance-assistant-be/internal/model"
	"ai-finance-assistant-be/pkg/database"
)

var extensions = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE EXTENSION IF NOT EXISTS vector;`,
}

func main() {
	cfg := config.Load()
	if cfg.Database.Connection == "" {
		log.Fatal("[FATAL] DB_CONNECTION_STRING is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, bootstrap.DatabaseOptions(cfg))
	if err != nil {
		log.Fatalf("[FATAL] connect database: %v", err)
	}
	defer database.Close(db)

	for _, stmt := range extensions {
		if err := db.WithContext(ctx).Exec(stmt).Error; err != nil {
			log.Fatalf("[FATAL] %s: %v", stmt, err)
		}
	}
	log.Println("[INFO] extensions ready")

	if err := db.WithContext(ctx).AutoMigrate(&model.DocumentPassage{}); err != nil {
		log.Fatalf("[FATAL] migrate document_passages: %v", err)
	}
	log.Println("[INFO] document_passages migrated")
}
