// generate_schema migrates a scratch catalog and writes the resulting DDL
// to sqlc/schema.sql, which sqlc reads and the database package embeds.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"fo-go/internal/database"
	"fo-go/internal/database/migrations"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("generate_schema: ")

	out := flag.String("o", filepath.Join("internal", "database", "sqlc", "schema.sql"), "output path")
	flag.Parse()

	db, err := database.OpenConnection(":memory:")
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		log.Fatal(err)
	}
	version, err := migrations.Latest()
	if err != nil {
		log.Fatal(err)
	}

	ddl, err := catalogDDL(db)
	if err != nil {
		log.Fatal(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- Catalog schema at migration %d.\n", version)
	b.WriteString("-- Generated from internal/database/migrations/files by `go generate ./internal/database`. Do not edit.\n\n")
	b.WriteString(ddl)

	if err := os.WriteFile(*out, []byte(b.String()), 0644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("wrote %s (migration %d)\n", *out, version)
}

// catalogDDL returns the CREATE statements for the catalog's tables and
// indexes, tables first. SQLite internals and the migration bookkeeping
// table are left out.
func catalogDDL(db *sql.DB) (string, error) {
	rows, err := db.Query(`
		SELECT sql FROM sqlite_master
		WHERE type IN ('table', 'index')
		  AND sql IS NOT NULL
		  AND name NOT LIKE 'sqlite_%'
		  AND tbl_name != 'schema_migrations'
		ORDER BY type = 'index', tbl_name, name`)
	if err != nil {
		return "", fmt.Errorf("reading sqlite_master: %w", err)
	}
	defer rows.Close()

	var stmts []string
	for rows.Next() {
		var stmt string
		if err := rows.Scan(&stmt); err != nil {
			return "", err
		}
		stmts = append(stmts, stmt+";")
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return strings.Join(stmts, "\n\n") + "\n", nil
}
