package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/schema"
)

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	branchName := envOrDefault("SEED_BRANCH_NAME", "Main Branch")
	storeNames := strings.Split(envOrDefault("SEED_STORE_NAMES", "Main Store,Back Store"), ",")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	var branchID int64
	err = tx.QueryRow(ctx, `SELECT id FROM branches WHERE name = $1 ORDER BY id LIMIT 1`, branchName).Scan(&branchID)
	if err == pgx.ErrNoRows {
		err = tx.QueryRow(ctx, `INSERT INTO branches (name) VALUES ($1) RETURNING id`, branchName).Scan(&branchID)
	}
	if err != nil {
		log.Fatalf("upsert branch: %v", err)
	}

	storeIDs := make([]int64, 0, len(storeNames))
	for _, name := range storeNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var storeID int64
		err := tx.QueryRow(ctx, `SELECT id FROM stores WHERE branch_id = $1 AND name = $2`, branchID, name).Scan(&storeID)
		if err == pgx.ErrNoRows {
			err = tx.QueryRow(ctx, `INSERT INTO stores (branch_id, name) VALUES ($1, $2) RETURNING id`, branchID, name).Scan(&storeID)
		}
		if err != nil {
			log.Fatalf("upsert store %q: %v", name, err)
		}
		storeIDs = append(storeIDs, storeID)
	}

	categoryID, err := schema.NewResolver(tx).EnsureDefaultCategory(ctx, branchID)
	if err != nil {
		log.Fatalf("ensure default category: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("commit tx: %v", err)
	}

	fmt.Printf("Seed completed. Branch=%d stores=%v category=%d\n", branchID, storeIDs, categoryID)
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
