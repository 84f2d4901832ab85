package testutil

import (
	"testing"

	"fo-go/internal/database"
)

// NewTestCatalog returns an in-memory catalog loaded with the generated
// schema, closed at test cleanup. Loading the schema directly skips the
// migration machinery, which has its own tests.
func NewTestCatalog(t *testing.T) *database.SQLiteCatalog {
	t.Helper()

	conn, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening catalog: %v", err)
	}
	if _, err := conn.Exec(database.Schema); err != nil {
		conn.Close()
		t.Fatalf("loading catalog schema: %v", err)
	}

	c := database.NewSQLiteCatalogFromDB(conn)
	t.Cleanup(func() { c.Close() })
	return c
}
