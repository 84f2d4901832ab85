package database

import _ "embed"

// Schema is the current catalog schema, generated from the migrations.
//
//go:embed sqlc/schema.sql
var Schema string
