package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/migrations"
)

// Usage: migrate [up|down|status|version|redo|reset]
func main() {
	_ = godotenv.Load()
	flag.Parse()

	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("set dialect: %v", err)
	}
	if err := goose.RunContext(context.Background(), command, db, ".", flag.Args()[min(1, flag.NArg()):]...); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}
}
