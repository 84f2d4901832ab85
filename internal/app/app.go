package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fo-go/internal/config"
	"fo-go/internal/database"
	"fo-go/internal/database/sqlc"
	"fo-go/internal/encryption"
	"fo-go/internal/fo"
	"fo-go/internal/fs"
	"fo-go/internal/hasher"
	"fo-go/internal/metadata"
	"fo-go/internal/vault"
)

// FOApp is the application layer between the CLI/API and FOService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, admits one mutating operation at a time and
// archives the catalog on Close.
type FOApp struct {
	cfg       *config.Config
	catalog   *database.SQLiteCatalog
	vault     fo.Vault     // nil unless archiving is enabled
	encryptor fo.Encryptor // nil unless archiving is enabled
	fsmgr     *fs.OSFilesystemManager
	service   *fo.FOService
	guard     *OperationGuard
	idgen     fo.IDGenerator
	logger    fo.Logger
	logFile   *os.File

	// ctx parents background operations; Close cancels it.
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mutated atomic.Bool
}

// NewFOApp creates a fully wired FOApp from the given config.
// operation identifies the command being run (e.g. "Scan", "Serve") and
// tags every log line. verbose echoes info-level logs to stderr.
// The caller must call Close when done.
func NewFOApp(cfg *config.Config, operation string, verbose bool) (*FOApp, error) {
	fsmgr := fs.NewOSFilesystemManager()

	loc, err := cfg.Scan.Location()
	if err != nil {
		return nil, fmt.Errorf("loading scan timezone: %w", err)
	}

	skipFiles, skipDirs, err := skipPatterns(cfg.Scan)
	if err != nil {
		return nil, err
	}

	extractor, err := metadata.New(metadata.Options{
		Categories: cfg.Categories,
		SkipFiles:  skipFiles,
		SkipDirs:   skipDirs,
		Location:   loc,
	})
	if err != nil {
		return nil, fmt.Errorf("creating metadata extractor: %w", err)
	}

	catalog, err := database.NewCatalogFromConfig(cfg.Database, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating catalog: %w", err)
	}

	if err := catalog.Migrate(); err != nil {
		catalog.Close()
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}
	if err := catalog.CheckMigrations(); err != nil {
		catalog.Close()
		return nil, fmt.Errorf("catalog schema out of date: %w", err)
	}

	var v fo.Vault
	var enc fo.Encryptor
	if cfg.Archive.Enabled {
		v, enc, err = newArchiveBackend(cfg)
		if err != nil {
			catalog.Close()
			return nil, err
		}
		if err := checkArchiveVersion(v, catalog, cfg.HostID); err != nil {
			catalog.Close()
			return nil, err
		}
	}

	stderrLevel := slog.LevelWarn
	if verbose {
		stderrLevel = slog.LevelInfo
	}
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, stderrLevel)
	if err != nil {
		catalog.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger.With("op", operation)}

	svc := fo.NewFOService(catalog, fsmgr, extractor, hasher.New(cfg.Scan.PrefixHashBytes), log,
		fo.RealClock{}, fo.UUIDGenerator{}, fo.ServiceConfig{
			BatchSize: cfg.Scan.BatchSize,
			Workers:   cfg.Scan.Workers,
		})

	ctx, cancel := context.WithCancel(context.Background())
	return &FOApp{
		cfg:       cfg,
		catalog:   catalog,
		vault:     v,
		encryptor: enc,
		fsmgr:     fsmgr,
		service:   svc,
		guard:     NewOperationGuard(),
		idgen:     fo.UUIDGenerator{},
		logger:    log,
		logFile:   logFile,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// skipPatterns merges the configured skip globs with the ignore file, where
// lines ending in "/" name directories.
func skipPatterns(cfg config.ScanConfig) (files, dirs []string, err error) {
	files = append(files, cfg.SkipFiles...)
	dirs = append(dirs, cfg.SkipDirs...)
	if cfg.IgnoreFile == "" {
		return files, dirs, nil
	}

	lines, err := fs.ParseIgnoreFile(cfg.IgnoreFile)
	if err != nil {
		return nil, nil, err
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasSuffix(line, "/") {
			dirs = append(dirs, strings.TrimSuffix(line, "/"))
			continue
		}
		files = append(files, line)
	}
	return files, dirs, nil
}

// guarded runs fn as the single active operation of kind.
func guarded[T any](ctx context.Context, a *FOApp, kind, id string, fn func(context.Context, *Operation) (T, error)) (T, error) {
	op, ctx, err := a.guard.Begin(ctx, kind, id)
	if err != nil {
		var zero T
		return zero, err
	}
	a.mutated.Store(true)
	res, err := fn(ctx, op)
	op.Finish(res, err)
	return res, err
}

// background admits fn as the single active operation of kind and runs it in
// its own goroutine. Progress and outcome are read back through the guard.
func background[T any](a *FOApp, kind, id string, fn func(context.Context, *Operation) (T, error)) error {
	op, ctx, err := a.guard.Begin(a.ctx, kind, id)
	if err != nil {
		return err
	}
	a.mutated.Store(true)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		res, err := fn(ctx, op)
		if err != nil {
			a.logger.Error("background operation failed", "kind", kind, "id", id, "error", err)
		}
		op.Finish(res, err)
	}()
	return nil
}

func (a *FOApp) resolveDir(rawPath string) (*fo.Path, error) {
	p, err := a.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	if !p.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", p.String())
	}
	return p, nil
}

func (a *FOApp) scanFunc(root *fo.Path, recursive bool, onProgress func(fo.ScanProgress)) func(context.Context, *Operation) (*fo.ScanResult, error) {
	return func(ctx context.Context, op *Operation) (*fo.ScanResult, error) {
		return a.service.Scan(ctx, root, fo.ScanOptions{
			Recursive: recursive,
			SessionID: op.ID,
			OnProgress: func(p fo.ScanProgress) {
				op.Update(p)
				if onProgress != nil {
					onProgress(p)
				}
			},
		})
	}
}

// Scan catalogs the directory at rawPath and waits for the scan to finish.
func (a *FOApp) Scan(ctx context.Context, rawPath string, recursive bool, onProgress func(fo.ScanProgress)) (*fo.ScanResult, error) {
	root, err := a.resolveDir(rawPath)
	if err != nil {
		return nil, err
	}
	return guarded(ctx, a, KindScan, a.idgen.New(), a.scanFunc(root, recursive, onProgress))
}

// StartScan starts a scan in the background and returns its session id.
func (a *FOApp) StartScan(rawPath string, recursive bool) (string, error) {
	root, err := a.resolveDir(rawPath)
	if err != nil {
		return "", err
	}
	id := a.idgen.New()
	if err := background(a, KindScan, id, a.scanFunc(root, recursive, nil)); err != nil {
		return "", err
	}
	return id, nil
}

// ScanStatus describes the running scan, or the most recent persisted one.
type ScanStatus struct {
	fo.ScanProgress
	SourcePath  string     `json:"source_path"`
	Recursive   bool       `json:"recursive"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ScanStatus returns live progress while a scan runs and the latest scan
// session otherwise. It returns nil if no scan was ever recorded.
func (a *FOApp) ScanStatus() (*ScanStatus, error) {
	st, ok := a.guard.State(KindScan)
	running := ok && st.Active

	var session *sqlc.ScanSession
	var err error
	if running {
		session, err = a.service.ScanSession(st.ID)
	} else {
		session, err = a.service.LatestScanSession()
	}
	if err != nil {
		return nil, err
	}

	if session == nil {
		if !running {
			return nil, nil
		}
		return &ScanStatus{
			ScanProgress: fo.ScanProgress{SessionID: st.ID, Status: fo.ScanInProgress},
			StartedAt:    st.StartedAt,
		}, nil
	}

	status := &ScanStatus{
		ScanProgress: fo.ScanProgress{
			SessionID:      session.ID,
			Status:         session.Status,
			TotalFiles:     int(session.TotalFiles),
			ProcessedFiles: int(session.ProcessedFiles),
			NewFiles:       int(session.NewFiles),
			SkippedFiles:   int(session.SkippedFiles),
			ErrorFiles:     int(session.ErrorFiles),
		},
		SourcePath: session.SourcePath,
		Recursive:  session.Recursive,
		Error:      session.ErrorMessage.String,
		StartedAt:  session.StartedAt,
	}
	if session.CompletedAt.Valid {
		t := session.CompletedAt.Time
		status.CompletedAt = &t
	}
	if running {
		if p, ok := st.Progress.(fo.ScanProgress); ok {
			status.ScanProgress = p
		}
		// Still in progress until the guard is released.
		status.Status = fo.ScanInProgress
	}
	return status, nil
}

// Rescan re-inspects one catalog record.
func (a *FOApp) Rescan(ctx context.Context, fileID int64) (*sqlc.File, error) {
	return guarded(ctx, a, KindRescan, strconv.FormatInt(fileID, 10), func(ctx context.Context, _ *Operation) (*sqlc.File, error) {
		return a.service.Rescan(ctx, fileID)
	})
}

// OrganizeRequest selects what an organize batch works on.
type OrganizeRequest struct {
	Destination string
	DryRun      bool
	FileIDs     []int64
}

func (a *FOApp) organizeFunc(req OrganizeRequest, onProgress func(fo.OrganizeProgress)) func(context.Context, *Operation) (*fo.BatchResult, error) {
	return func(ctx context.Context, op *Operation) (*fo.BatchResult, error) {
		return a.service.Organize(ctx, req.Destination, fo.OrganizeOptions{
			DryRun:  req.DryRun,
			FileIDs: req.FileIDs,
			BatchID: op.ID,
			OnProgress: func(p fo.OrganizeProgress) {
				op.Update(p)
				if onProgress != nil {
					onProgress(p)
				}
			},
		})
	}
}

// Organize runs one organize batch and waits for it to finish.
func (a *FOApp) Organize(ctx context.Context, req OrganizeRequest, onProgress func(fo.OrganizeProgress)) (*fo.BatchResult, error) {
	if req.Destination == "" {
		return nil, fmt.Errorf("destination required")
	}
	return guarded(ctx, a, KindOrganize, a.idgen.New(), a.organizeFunc(req, onProgress))
}

// StartOrganize starts an organize batch in the background and returns its
// batch id.
func (a *FOApp) StartOrganize(req OrganizeRequest) (string, error) {
	if req.Destination == "" {
		return "", fmt.Errorf("destination required")
	}
	id := a.idgen.New()
	if err := background(a, KindOrganize, id, a.organizeFunc(req, nil)); err != nil {
		return "", err
	}
	return id, nil
}

// OrganizeStatus describes the running or most recent organize batch of this
// process.
type OrganizeStatus struct {
	BatchID    string               `json:"batch_id"`
	Active     bool                 `json:"active"`
	Progress   *fo.OrganizeProgress `json:"progress,omitempty"`
	Result     *fo.BatchResult      `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
}

// OrganizeStatus returns nil if no batch ran since the app started.
func (a *FOApp) OrganizeStatus() *OrganizeStatus {
	st, ok := a.guard.State(KindOrganize)
	if !ok {
		return nil
	}
	status := &OrganizeStatus{
		BatchID:    st.ID,
		Active:     st.Active,
		Error:      st.Error,
		StartedAt:  st.StartedAt,
		FinishedAt: st.FinishedAt,
	}
	if p, ok := st.Progress.(fo.OrganizeProgress); ok {
		status.Progress = &p
	}
	if r, ok := st.Result.(*fo.BatchResult); ok && r != nil {
		status.Result = r
	}
	return status
}

// Preview projects an organize batch into destination without side effects.
func (a *FOApp) Preview(destination string, fileIDs []int64) ([]*fo.PreviewEntry, error) {
	if destination == "" {
		return nil, fmt.Errorf("destination required")
	}
	return a.service.Preview(destination, fileIDs)
}

// Logger returns the application logger.
func (a *FOApp) Logger() fo.Logger {
	return a.logger
}

func (a *FOApp) Config() *config.Config {
	return a.cfg
}

// CancelActive cancels the running operation, if any.
func (a *FOApp) CancelActive() bool {
	return a.guard.Cancel()
}

// FindDuplicateGroups lists content groups shared by two or more records.
func (a *FOApp) FindDuplicateGroups() ([]*fo.DuplicateGroup, error) {
	return a.service.FindDuplicateGroups()
}

// MarkDuplicates links pending duplicates to their group originals.
func (a *FOApp) MarkDuplicates(ctx context.Context) (*fo.MarkResult, error) {
	return guarded(ctx, a, KindDuplicates, a.idgen.New(), func(context.Context, *Operation) (*fo.MarkResult, error) {
		return a.service.MarkDuplicates()
	})
}

// DuplicateStats reports duplicate counts and wasted space.
func (a *FOApp) DuplicateStats() (*fo.DuplicateStats, error) {
	return a.service.DuplicateStats()
}

// RevertOperation reverses one move entry.
func (a *FOApp) RevertOperation(ctx context.Context, id int64) (*fo.RevertResult, error) {
	return guarded(ctx, a, KindRevert, strconv.FormatInt(id, 10), func(context.Context, *Operation) (*fo.RevertResult, error) {
		return a.service.RevertOperation(id)
	})
}

// RevertBatch reverses every move of a batch.
func (a *FOApp) RevertBatch(ctx context.Context, batchID string) (*fo.BatchRevertResult, error) {
	return guarded(ctx, a, KindRevert, batchID, func(ctx context.Context, _ *Operation) (*fo.BatchRevertResult, error) {
		return a.service.RevertBatch(ctx, batchID)
	})
}

// CanRevert checks one ledger entry. It returns nil if the entry does not
// exist.
func (a *FOApp) CanRevert(id int64) (*fo.RevertCheck, error) {
	op, err := a.service.GetOperation(id)
	if err != nil || op == nil {
		return nil, err
	}
	return a.service.CanRevert(op), nil
}

// PreviewBatchRevert checks every move a batch revert would visit.
func (a *FOApp) PreviewBatchRevert(batchID string) ([]*fo.RevertCheck, error) {
	return a.service.PreviewBatchRevert(batchID)
}

// GetHistory returns the most recent ledger entries.
func (a *FOApp) GetHistory(limit int) ([]*sqlc.Operation, error) {
	return a.service.GetHistory(limit)
}

// GetOperation returns one ledger entry, or nil.
func (a *FOApp) GetOperation(id int64) (*sqlc.Operation, error) {
	return a.service.GetOperation(id)
}

// GetBatch returns a batch's ledger entries.
func (a *FOApp) GetBatch(batchID string) ([]*sqlc.Operation, error) {
	return a.service.GetBatch(batchID)
}

// GetFileHistory returns a record with its ledger entries and errors, or nil.
func (a *FOApp) GetFileHistory(fileID int64) (*fo.FileHistory, error) {
	return a.service.GetFileHistory(fileID)
}

// ListErrors returns the most recent error records.
func (a *FOApp) ListErrors(limit int) ([]*sqlc.FileError, error) {
	return a.service.ListErrors(limit)
}

// GetFile returns one record, or nil.
func (a *FOApp) GetFile(id int64) (*sqlc.File, error) {
	return a.service.GetFile(id)
}

// ListFiles returns a filtered page of the catalog.
func (a *FOApp) ListFiles(q fo.FileQuery) (*fo.FilePage, error) {
	return a.service.ListFiles(q)
}

// CatalogStats counts records by status.
func (a *FOApp) CatalogStats() (*fo.CatalogStats, error) {
	return a.service.CatalogStats()
}

// RetryErrored re-queues every errored record.
func (a *FOApp) RetryErrored(ctx context.Context) (int, error) {
	return guarded(ctx, a, KindRetry, a.idgen.New(), func(context.Context, *Operation) (int, error) {
		return a.service.RetryErrored()
	})
}

// Close cancels and waits for background operations, archives the catalog
// if this run changed it, and closes all resources.
func (a *FOApp) Close() error {
	a.cancel()
	a.wg.Wait()

	var firstErr error
	if a.mutated.Load() && a.vault != nil {
		if err := a.archiveCatalog(); err != nil {
			firstErr = err
		}
	}

	if err := a.catalog.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}

// newArchiveBackend builds the vault and encryptor named by cfg.Archive.
func newArchiveBackend(cfg *config.Config) (fo.Vault, fo.Encryptor, error) {
	v, err := vault.NewVaultFromConfig(cfg.Archive.Vault)
	if err != nil {
		return nil, nil, fmt.Errorf("creating vault: %w", err)
	}
	enc, err := encryption.NewEncryptorFromConfig(cfg.Archive.Encryption)
	if err != nil {
		return nil, nil, fmt.Errorf("creating encryptor: %w", err)
	}
	return v, enc, nil
}
