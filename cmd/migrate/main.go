package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/georgemunganga/product-store/internal/config"
	"github.com/georgemunganga/product-store/internal/database"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const usage = "usage: migrate up|down|version"

func main() {
	if len(os.Args) != 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Database.Complete() {
		log.Fatal("PGHOST, PGDATABASE, PGUSER and PGPASSWORD must be set")
	}

	src, err := iofs.New(database.Migrations(), ".")
	if err != nil {
		log.Fatalf("failed to open embedded migrations: %v", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, database.DSN(cfg.Database))
	if err != nil {
		log.Fatalf("failed to create migration instance: %v", err)
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("migration failed: %v", err)
		}
		fmt.Println("Migrations completed successfully.")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("rollback failed: %v", err)
		}
		fmt.Println("Migrations rolled back.")
	case "version":
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("No migrations applied.")
			return
		}
		if err != nil {
			log.Fatalf("failed to read version: %v", err)
		}
		fmt.Printf("version %d (dirty: %t)\n", v, dirty)
	default:
		log.Fatal(usage)
	}
}
