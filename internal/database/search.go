package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"fo-go/internal/database/sqlc"
	"fo-go/internal/fo"
)

// DefaultSearchLimit is the page size used when a query does not set one.
const DefaultSearchLimit = 50

const fileColumns = `id, original_path, current_path, filename, extension, size,
	content_hash, prefix_hash, mime_type, category, fs_created_at, fs_modified_at,
	metadata_date, resolved_date, date_source, status, duplicate_of, metadata,
	created_at, updated_at`

func (c *SQLiteCatalog) FindPendingFilesByIDs(ids []int64) ([]*sqlc.File, error) {
	if len(ids) == 0 {
		return []*sqlc.File{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT `+fileColumns+` FROM files WHERE status = ? AND id IN (?) ORDER BY created_at, id`,
		fo.StatusPending, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("building pending files query: %w", err)
	}

	var files []*sqlc.File
	if err := c.dbx.Select(&files, c.dbx.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("finding pending files: %w", err)
	}
	if files == nil {
		files = []*sqlc.File{}
	}
	return files, nil
}

func (c *SQLiteCatalog) SearchFiles(q fo.FileQuery) ([]*sqlc.File, int64, error) {
	var where []string
	var args []any
	if q.Status != "" {
		where = append(where, "status = ?")
		args = append(args, q.Status)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		where = append(where, `(LOWER(filename) LIKE ? ESCAPE '\' OR LOWER(original_path) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := c.dbx.Get(&total, "SELECT COUNT(*) FROM files"+clause, args...); err != nil {
		return nil, 0, fmt.Errorf("counting files: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var files []*sqlc.File
	query := "SELECT " + fileColumns + " FROM files" + clause + " ORDER BY created_at, id LIMIT ? OFFSET ?"
	if err := c.dbx.Select(&files, query, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("searching files: %w", err)
	}
	if files == nil {
		files = []*sqlc.File{}
	}
	return files, total, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
