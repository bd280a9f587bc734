package database

import (
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations exposes the versioned schema files, rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// ProductsDDL is the idempotent statement that creates the products table.
func ProductsDDL() (string, error) {
	b, err := fs.ReadFile(migrationFiles, "migrations/0001_create_products.up.sql")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
