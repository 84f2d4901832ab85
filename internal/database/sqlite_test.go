package database

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"fo-go/internal/database/sqlc"
	"fo-go/internal/fo"
)

// newTestDB creates a new in-memory catalog with schema applied.
func newTestDB(t *testing.T) *SQLiteCatalog {
	t.Helper()

	db, err := NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}

	if _, err := db.db.Exec(Schema); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

var testTime = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newFile(path, hash string) *sqlc.File {
	f := &sqlc.File{
		OriginalPath: path,
		CurrentPath:  sql.NullString{String: path, Valid: true},
		Filename:     filepath.Base(path),
		Extension:    filepath.Ext(path),
		Size:         42,
		Category:     "image",
		ResolvedDate: testTime,
		DateSource:   "modified",
		Status:       fo.StatusPending,
		Metadata:     `{"kind":"none"}`,
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}
	if hash != "" {
		f.ContentHash = sql.NullString{String: hash, Valid: true}
		f.PrefixHash = sql.NullString{String: "p-" + hash, Valid: true}
	}
	return f
}

func mustCreateFile(t *testing.T, db *SQLiteCatalog, path, hash string) *sqlc.File {
	t.Helper()
	f := newFile(path, hash)
	if err := db.CreateFile(f); err != nil {
		t.Fatalf("CreateFile(%s) error = %v", path, err)
	}
	return f
}

func TestSQLiteCatalog_CreateFile(t *testing.T) {
	t.Run("assigns id and round-trips", func(t *testing.T) {
		db := newTestDB(t)

		f := mustCreateFile(t, db, "/src/a.jpg", "h1")
		if f.ID == 0 {
			t.Fatal("ID is zero")
		}

		got, err := db.FindFileByID(f.ID)
		if err != nil {
			t.Fatalf("FindFileByID() error = %v", err)
		}
		if got == nil {
			t.Fatal("FindFileByID() returned nil")
		}
		if got.OriginalPath != "/src/a.jpg" {
			t.Errorf("OriginalPath = %v, want /src/a.jpg", got.OriginalPath)
		}
		if !got.ResolvedDate.Equal(testTime) {
			t.Errorf("ResolvedDate = %v, want %v", got.ResolvedDate, testTime)
		}
		if got.ContentHash.String != "h1" {
			t.Errorf("ContentHash = %v, want h1", got.ContentHash.String)
		}
	})

	t.Run("fails on duplicate original path", func(t *testing.T) {
		db := newTestDB(t)

		mustCreateFile(t, db, "/src/a.jpg", "h1")
		if err := db.CreateFile(newFile("/src/a.jpg", "h2")); err == nil {
			t.Error("second CreateFile() expected error for duplicate path")
		}
	})
}

func TestSQLiteCatalog_FindFileByOriginalPath(t *testing.T) {
	db := newTestDB(t)

	got, err := db.FindFileByOriginalPath("/nope")
	if err != nil {
		t.Fatalf("FindFileByOriginalPath() error = %v", err)
	}
	if got != nil {
		t.Errorf("FindFileByOriginalPath() = %v, want nil", got)
	}

	created := mustCreateFile(t, db, "/src/a.jpg", "h1")
	got, err = db.FindFileByOriginalPath("/src/a.jpg")
	if err != nil {
		t.Fatalf("FindFileByOriginalPath() error = %v", err)
	}
	if got == nil || got.ID != created.ID {
		t.Errorf("FindFileByOriginalPath() = %v, want id %d", got, created.ID)
	}
}

func TestSQLiteCatalog_ContentHashLookups(t *testing.T) {
	db := newTestDB(t)

	a := mustCreateFile(t, db, "/src/a.jpg", "same")
	b := mustCreateFile(t, db, "/src/b.jpg", "same")
	mustCreateFile(t, db, "/src/c.jpg", "other")
	errored := mustCreateFile(t, db, "/src/d.jpg", "same")
	if err := db.UpdateFileStatus(errored.ID, fo.StatusError, testTime); err != nil {
		t.Fatalf("UpdateFileStatus() error = %v", err)
	}

	t.Run("by content hash excludes errored records", func(t *testing.T) {
		files, err := db.FindFilesByContentHash("same")
		if err != nil {
			t.Fatalf("FindFilesByContentHash() error = %v", err)
		}
		if len(files) != 2 {
			t.Fatalf("len(files) = %d, want 2", len(files))
		}
		if files[0].ID != a.ID || files[1].ID != b.ID {
			t.Errorf("files = [%d %d], want [%d %d]", files[0].ID, files[1].ID, a.ID, b.ID)
		}
	})

	t.Run("duplicate hashes", func(t *testing.T) {
		hashes, err := db.FindDuplicateContentHashes()
		if err != nil {
			t.Fatalf("FindDuplicateContentHashes() error = %v", err)
		}
		if len(hashes) != 1 || hashes[0] != "same" {
			t.Errorf("FindDuplicateContentHashes() = %v, want [same]", hashes)
		}
	})

	t.Run("by size and prefix", func(t *testing.T) {
		files, err := db.FindFilesBySizeAndPrefixHash(42, "p-other")
		if err != nil {
			t.Fatalf("FindFilesBySizeAndPrefixHash() error = %v", err)
		}
		if len(files) != 1 {
			t.Errorf("len(files) = %d, want 1", len(files))
		}

		files, err = db.FindFilesBySizeAndPrefixHash(43, "p-other")
		if err != nil {
			t.Fatalf("FindFilesBySizeAndPrefixHash() error = %v", err)
		}
		if len(files) != 0 {
			t.Errorf("len(files) = %d, want 0", len(files))
		}
	})

	t.Run("moved record by hash", func(t *testing.T) {
		got, err := db.FindMovedFileByContentHash("same", 0)
		if err != nil {
			t.Fatalf("FindMovedFileByContentHash() error = %v", err)
		}
		if got != nil {
			t.Errorf("FindMovedFileByContentHash() = %v, want nil before any move", got)
		}

		if err := db.MarkFileMoved(a.ID, "/dest/a.jpg", testTime); err != nil {
			t.Fatalf("MarkFileMoved() error = %v", err)
		}
		got, err = db.FindMovedFileByContentHash("same", b.ID)
		if err != nil {
			t.Fatalf("FindMovedFileByContentHash() error = %v", err)
		}
		if got == nil || got.ID != a.ID {
			t.Fatalf("FindMovedFileByContentHash() = %v, want id %d", got, a.ID)
		}
		got, err = db.FindMovedFileByContentHash("same", a.ID)
		if err != nil {
			t.Fatalf("FindMovedFileByContentHash() error = %v", err)
		}
		if got != nil {
			t.Errorf("FindMovedFileByContentHash() excluding self = %v, want nil", got)
		}
	})
}

func TestSQLiteCatalog_StatusTransitions(t *testing.T) {
	t.Run("duplicate linkage", func(t *testing.T) {
		db := newTestDB(t)
		a := mustCreateFile(t, db, "/src/a.jpg", "h")
		b := mustCreateFile(t, db, "/src/b.jpg", "h")

		if err := db.MarkFileDuplicate(b.ID, a.ID, testTime); err != nil {
			t.Fatalf("MarkFileDuplicate() error = %v", err)
		}
		got, _ := db.FindFileByID(b.ID)
		if got.Status != fo.StatusDuplicate {
			t.Errorf("Status = %v, want duplicate", got.Status)
		}
		if !got.DuplicateOf.Valid || got.DuplicateOf.Int64 != a.ID {
			t.Errorf("DuplicateOf = %v, want %d", got.DuplicateOf, a.ID)
		}
	})

	t.Run("record cannot duplicate itself", func(t *testing.T) {
		db := newTestDB(t)
		a := mustCreateFile(t, db, "/src/a.jpg", "h")

		if err := db.MarkFileDuplicate(a.ID, a.ID, testTime); err == nil {
			t.Error("MarkFileDuplicate() expected error for self reference")
		}
	})

	t.Run("duplicate status requires linkage", func(t *testing.T) {
		db := newTestDB(t)
		a := mustCreateFile(t, db, "/src/a.jpg", "h")

		if err := db.UpdateFileStatus(a.ID, fo.StatusDuplicate, testTime); err == nil {
			t.Error("UpdateFileStatus(duplicate) expected constraint error")
		}
	})

	t.Run("revert clears linkage", func(t *testing.T) {
		db := newTestDB(t)
		a := mustCreateFile(t, db, "/src/a.jpg", "h")
		b := mustCreateFile(t, db, "/src/b.jpg", "h")
		db.MarkFileDuplicate(b.ID, a.ID, testTime)

		if err := db.MarkFileReverted(b.ID, "/src/b.jpg", testTime); err != nil {
			t.Fatalf("MarkFileReverted() error = %v", err)
		}
		got, _ := db.FindFileByID(b.ID)
		if got.Status != fo.StatusPending {
			t.Errorf("Status = %v, want pending", got.Status)
		}
		if got.DuplicateOf.Valid {
			t.Errorf("DuplicateOf = %v, want null", got.DuplicateOf)
		}
	})

	t.Run("counts by status", func(t *testing.T) {
		db := newTestDB(t)
		a := mustCreateFile(t, db, "/src/a.jpg", "h1")
		mustCreateFile(t, db, "/src/b.jpg", "h2")
		db.MarkFileMoved(a.ID, "/dest/a.jpg", testTime)

		counts, err := db.CountFilesByStatus()
		if err != nil {
			t.Fatalf("CountFilesByStatus() error = %v", err)
		}
		if counts[fo.StatusMoved] != 1 || counts[fo.StatusPending] != 1 {
			t.Errorf("CountFilesByStatus() = %v, want moved=1 pending=1", counts)
		}
	})
}

func TestSQLiteCatalog_UpdateFileScanData(t *testing.T) {
	db := newTestDB(t)
	f := mustCreateFile(t, db, "/src/a.jpg", "h1")
	db.MarkFileMoved(f.ID, "/dest/a.jpg", testTime)

	f.Size = 99
	f.ContentHash = sql.NullString{String: "h2", Valid: true}
	f.UpdatedAt = testTime.Add(time.Hour)
	if err := db.UpdateFileScanData(f); err != nil {
		t.Fatalf("UpdateFileScanData() error = %v", err)
	}

	got, _ := db.FindFileByID(f.ID)
	if got.Size != 99 || got.ContentHash.String != "h2" {
		t.Errorf("got size=%d hash=%s, want 99 h2", got.Size, got.ContentHash.String)
	}
	if got.Status != fo.StatusMoved {
		t.Errorf("Status = %v, want moved to be preserved", got.Status)
	}
}

func TestSQLiteCatalog_FindPendingFilesByIDs(t *testing.T) {
	db := newTestDB(t)
	a := mustCreateFile(t, db, "/src/a.jpg", "h1")
	b := mustCreateFile(t, db, "/src/b.jpg", "h2")
	c := mustCreateFile(t, db, "/src/c.jpg", "h3")
	db.MarkFileMoved(b.ID, "/dest/b.jpg", testTime)

	files, err := db.FindPendingFilesByIDs([]int64{a.ID, b.ID, c.ID, 999})
	if err != nil {
		t.Fatalf("FindPendingFilesByIDs() error = %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("len(files) = %d, want 2", len(files))
	}
	if files[0].ID != a.ID || files[1].ID != c.ID {
		t.Errorf("files = [%d %d], want [%d %d]", files[0].ID, files[1].ID, a.ID, c.ID)
	}

	files, err = db.FindPendingFilesByIDs(nil)
	if err != nil {
		t.Fatalf("FindPendingFilesByIDs(nil) error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("len(files) = %d, want 0", len(files))
	}
}

func TestSQLiteCatalog_SearchFiles(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 5; i++ {
		mustCreateFile(t, db, fmt.Sprintf("/src/holiday_%d.jpg", i), fmt.Sprintf("h%d", i))
	}
	mustCreateFile(t, db, "/src/report.pdf", "r")
	odd := mustCreateFile(t, db, "/src/100%_done.txt", "x")

	tests := []struct {
		name      string
		query     fo.FileQuery
		wantTotal int64
		wantLen   int
	}{
		{"all", fo.FileQuery{}, 7, 7},
		{"case-insensitive search", fo.FileQuery{Search: "HOLIDAY"}, 5, 5},
		{"paginated", fo.FileQuery{Search: "holiday", Limit: 2, Offset: 4}, 5, 1},
		{"status filter", fo.FileQuery{Status: fo.StatusMoved}, 0, 0},
		{"literal percent", fo.FileQuery{Search: "100%"}, 1, 1},
		{"literal underscore", fo.FileQuery{Search: "y_"}, 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, total, err := db.SearchFiles(tt.query)
			if err != nil {
				t.Fatalf("SearchFiles() error = %v", err)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
			if len(files) != tt.wantLen {
				t.Errorf("len(files) = %d, want %d", len(files), tt.wantLen)
			}
		})
	}

	files, _, _ := db.SearchFiles(fo.FileQuery{Search: "100%"})
	if len(files) == 1 && files[0].ID != odd.ID {
		t.Errorf("SearchFiles(100%%) = id %d, want %d", files[0].ID, odd.ID)
	}
}

func TestSQLiteCatalog_Operations(t *testing.T) {
	newOp := func(batch string, fileID int64, kind string, dryRun bool) *sqlc.Operation {
		return &sqlc.Operation{
			BatchID:         batch,
			FileID:          sql.NullInt64{Int64: fileID, Valid: true},
			Kind:            kind,
			SourcePath:      "/src/a.jpg",
			DestinationPath: sql.NullString{String: "/dest/a.jpg", Valid: true},
			Status:          fo.OpStatusCompleted,
			DryRun:          dryRun,
			CreatedAt:       testTime,
		}
	}

	t.Run("append and read back", func(t *testing.T) {
		db := newTestDB(t)
		f := mustCreateFile(t, db, "/src/a.jpg", "h")

		op := newOp("b1", f.ID, fo.OpMove, false)
		if err := db.CreateOperation(op); err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}
		if op.ID == 0 {
			t.Fatal("ID is zero")
		}

		got, err := db.FindOperationByID(op.ID)
		if err != nil {
			t.Fatalf("FindOperationByID() error = %v", err)
		}
		if got == nil || got.Kind != fo.OpMove || got.DryRun {
			t.Errorf("FindOperationByID() = %+v", got)
		}

		missing, err := db.FindOperationByID(999)
		if err != nil {
			t.Fatalf("FindOperationByID() error = %v", err)
		}
		if missing != nil {
			t.Errorf("FindOperationByID(999) = %v, want nil", missing)
		}

		byFile, err := db.FindOperationsByFile(f.ID)
		if err != nil {
			t.Fatalf("FindOperationsByFile() error = %v", err)
		}
		if len(byFile) != 1 {
			t.Errorf("len(FindOperationsByFile()) = %d, want 1", len(byFile))
		}
	})

	t.Run("revertible moves skip dry runs and other kinds", func(t *testing.T) {
		db := newTestDB(t)
		f := mustCreateFile(t, db, "/src/a.jpg", "h")

		first := newOp("b1", f.ID, fo.OpMove, false)
		db.CreateOperation(first)
		db.CreateOperation(newOp("b1", f.ID, fo.OpMove, true))
		db.CreateOperation(newOp("b1", f.ID, fo.OpSkip, false))
		second := newOp("b1", f.ID, fo.OpMove, false)
		db.CreateOperation(second)
		db.CreateOperation(newOp("b2", f.ID, fo.OpMove, false))

		ops, err := db.FindRevertibleMoves("b1")
		if err != nil {
			t.Fatalf("FindRevertibleMoves() error = %v", err)
		}
		if len(ops) != 2 {
			t.Fatalf("len(ops) = %d, want 2", len(ops))
		}
		if ops[0].ID != second.ID || ops[1].ID != first.ID {
			t.Errorf("ops = [%d %d], want newest first [%d %d]", ops[0].ID, ops[1].ID, second.ID, first.ID)
		}

		batch, err := db.FindOperationsByBatch("b1")
		if err != nil {
			t.Fatalf("FindOperationsByBatch() error = %v", err)
		}
		if len(batch) != 4 {
			t.Errorf("len(FindOperationsByBatch()) = %d, want 4", len(batch))
		}
	})

	t.Run("mark reverted only once", func(t *testing.T) {
		db := newTestDB(t)
		op := newOp("b1", 0, fo.OpMove, false)
		op.FileID = sql.NullInt64{}
		db.CreateOperation(op)

		changed, err := db.MarkOperationReverted(op.ID)
		if err != nil {
			t.Fatalf("MarkOperationReverted() error = %v", err)
		}
		if !changed {
			t.Error("first MarkOperationReverted() = false, want true")
		}

		changed, err = db.MarkOperationReverted(op.ID)
		if err != nil {
			t.Fatalf("MarkOperationReverted() error = %v", err)
		}
		if changed {
			t.Error("second MarkOperationReverted() = true, want false")
		}
	})

	t.Run("listing", func(t *testing.T) {
		db := newTestDB(t)

		for i := 0; i < 3; i++ {
			op := newOp("b1", 0, fo.OpScan, false)
			op.FileID = sql.NullInt64{}
			db.CreateOperation(op)
		}

		ops, err := db.ListOperations(2)
		if err != nil {
			t.Fatalf("ListOperations() error = %v", err)
		}
		if len(ops) != 2 || ops[0].ID != 3 {
			t.Errorf("ListOperations(2) returned %d entries, first id %d", len(ops), ops[0].ID)
		}
	})
}

func TestSQLiteCatalog_FileErrors(t *testing.T) {
	db := newTestDB(t)
	f := mustCreateFile(t, db, "/src/a.jpg", "h")

	rec := &sqlc.FileError{
		FileID:    sql.NullInt64{Int64: f.ID, Valid: true},
		Path:      "/src/a.jpg",
		Category:  fo.ErrCategoryPermission,
		Message:   "permission denied",
		CreatedAt: testTime,
	}
	if err := db.CreateFileError(rec); err != nil {
		t.Fatalf("CreateFileError() error = %v", err)
	}
	db.CreateFileError(&sqlc.FileError{Path: "/src/sub", Category: fo.ErrCategoryDirectory, Message: "unreadable", CreatedAt: testTime})

	byFile, err := db.FindFileErrorsByFile(f.ID)
	if err != nil {
		t.Fatalf("FindFileErrorsByFile() error = %v", err)
	}
	if len(byFile) != 1 || byFile[0].ID != rec.ID {
		t.Errorf("FindFileErrorsByFile() = %v, want one record", byFile)
	}

	all, err := db.ListFileErrors(10)
	if err != nil {
		t.Fatalf("ListFileErrors() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(ListFileErrors()) = %d, want 2", len(all))
	}
}

func TestSQLiteCatalog_ScanSessions(t *testing.T) {
	db := newTestDB(t)

	latest, err := db.LatestScanSession()
	if err != nil {
		t.Fatalf("LatestScanSession() error = %v", err)
	}
	if latest != nil {
		t.Errorf("LatestScanSession() = %v, want nil", latest)
	}

	s := &sqlc.ScanSession{
		ID:         "scan-1",
		SourcePath: "/src",
		Recursive:  true,
		Status:     fo.ScanInProgress,
		StartedAt:  testTime,
	}
	if err := db.CreateScanSession(s); err != nil {
		t.Fatalf("CreateScanSession() error = %v", err)
	}

	s.TotalFiles = 10
	s.ProcessedFiles = 4
	if err := db.UpdateScanSessionProgress(s); err != nil {
		t.Fatalf("UpdateScanSessionProgress() error = %v", err)
	}
	got, _ := db.FindScanSession("scan-1")
	if got == nil || got.ProcessedFiles != 4 || got.Status != fo.ScanInProgress {
		t.Fatalf("FindScanSession() = %+v", got)
	}

	s.Status = fo.ScanCompleted
	s.ProcessedFiles = 10
	s.NewFiles = 10
	s.CompletedAt = sql.NullTime{Time: testTime.Add(time.Minute), Valid: true}
	if err := db.FinishScanSession(s); err != nil {
		t.Fatalf("FinishScanSession() error = %v", err)
	}

	latest, err = db.LatestScanSession()
	if err != nil {
		t.Fatalf("LatestScanSession() error = %v", err)
	}
	if latest == nil || latest.Status != fo.ScanCompleted || !latest.CompletedAt.Valid {
		t.Errorf("LatestScanSession() = %+v", latest)
	}
}

func TestSQLiteCatalog_BackupTo(t *testing.T) {
	db := newTestDB(t)
	mustCreateFile(t, db, "/src/a.jpg", "h")

	destPath := filepath.Join(t.TempDir(), "backup.db")
	if err := db.BackupTo(destPath); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}

	// Open the backup and verify it has the data
	backup, err := NewSQLiteCatalog(destPath)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer backup.Close()

	f, err := backup.FindFileByOriginalPath("/src/a.jpg")
	if err != nil {
		t.Fatalf("FindFileByOriginalPath() error = %v", err)
	}
	if f == nil {
		t.Error("backup does not contain the file")
	}
}

func TestSQLiteCatalog_CheckMigrations(t *testing.T) {
	t.Run("fails on DB without migrations applied", func(t *testing.T) {
		db, err := NewSQLiteCatalog(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteCatalog() error = %v", err)
		}
		defer db.Close()

		// DB has no schema at all, so this should fail
		if err := db.CheckMigrations(); err == nil {
			t.Error("CheckMigrations() expected error for missing schema")
		}
	})

	t.Run("passes after Migrate", func(t *testing.T) {
		db, err := NewSQLiteCatalog(":memory:")
		if err != nil {
			t.Fatalf("NewSQLiteCatalog() error = %v", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate() error = %v", err)
		}
		if err := db.CheckMigrations(); err != nil {
			t.Errorf("CheckMigrations() error = %v", err)
		}
	})
}

func TestSQLiteCatalog_Revision(t *testing.T) {
	db := newTestDB(t)

	rev, err := db.Revision()
	if err != nil {
		t.Fatalf("Revision() error = %v", err)
	}
	if rev != 0 {
		t.Errorf("Revision() = %d, want 0", rev)
	}

	f := mustCreateFile(t, db, "/src/a.jpg", "h")
	after := func(step string) int64 {
		t.Helper()
		next, err := db.Revision()
		if err != nil {
			t.Fatalf("Revision() error = %v", err)
		}
		if next <= rev {
			t.Errorf("Revision() after %s = %d, want > %d", step, next, rev)
		}
		return next
	}
	rev = after("file insert")

	db.CreateOperation(&sqlc.Operation{
		BatchID:    "b1",
		FileID:     sql.NullInt64{Int64: f.ID, Valid: true},
		Kind:       fo.OpMove,
		SourcePath: "/src/a.jpg",
		Status:     fo.OpStatusCompleted,
		CreatedAt:  testTime,
	})
	rev = after("ledger insert")

	db.CreateFileError(&sqlc.FileError{Path: "/src/a.jpg", Category: fo.ErrCategoryIO, Message: "boom", CreatedAt: testTime})
	after("error insert")
}

func TestSQLiteCatalog_MarkFileError(t *testing.T) {
	t.Run("promotes the earliest duplicate", func(t *testing.T) {
		db := newTestDB(t)
		orig := mustCreateFile(t, db, "/src/a.jpg", "h")
		b := mustCreateFile(t, db, "/src/b.jpg", "h")
		c := mustCreateFile(t, db, "/src/c.jpg", "h")
		for _, f := range []*sqlc.File{b, c} {
			if err := db.MarkFileDuplicate(f.ID, orig.ID, testTime); err != nil {
				t.Fatalf("MarkFileDuplicate() error = %v", err)
			}
		}

		promoted, err := db.MarkFileError(orig.ID, testTime)
		if err != nil {
			t.Fatalf("MarkFileError() error = %v", err)
		}
		if promoted != b.ID {
			t.Errorf("MarkFileError() promoted %d, want %d", promoted, b.ID)
		}

		got, _ := db.FindFileByID(orig.ID)
		if got.Status != fo.StatusError {
			t.Errorf("status = %s, want error", got.Status)
		}
		got, _ = db.FindFileByID(b.ID)
		if got.Status != fo.StatusPending || got.DuplicateOf.Valid {
			t.Errorf("promoted = %s/%+v, want pending with no link", got.Status, got.DuplicateOf)
		}
		got, _ = db.FindFileByID(c.ID)
		if got.Status != fo.StatusDuplicate || got.DuplicateOf.Int64 != b.ID {
			t.Errorf("other duplicate = %s of %d, want duplicate of %d", got.Status, got.DuplicateOf.Int64, b.ID)
		}

		var dangling int
		if err := db.db.QueryRow(`SELECT COUNT(*) FROM files f JOIN files o ON f.duplicate_of = o.id WHERE o.status = 'error'`).Scan(&dangling); err != nil {
			t.Fatalf("counting links: %v", err)
		}
		if dangling != 0 {
			t.Errorf("%d records still link to an error record", dangling)
		}
	})

	t.Run("no duplicates", func(t *testing.T) {
		db := newTestDB(t)
		f := mustCreateFile(t, db, "/src/a.jpg", "h")

		promoted, err := db.MarkFileError(f.ID, testTime)
		if err != nil {
			t.Fatalf("MarkFileError() error = %v", err)
		}
		if promoted != 0 {
			t.Errorf("MarkFileError() promoted %d, want 0", promoted)
		}
		if got, _ := db.FindFileByID(f.ID); got.Status != fo.StatusError {
			t.Errorf("status = %s, want error", got.Status)
		}
	})
}
