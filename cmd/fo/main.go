package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"fo-go/internal/app"
	"fo-go/internal/config"
	"fo-go/internal/database/sqlc"
	"fo-go/internal/fo"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env not loaded: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	paths, err := app.DefaultPaths()
	if err != nil {
		return nil, err
	}

	cfg, err := config.ReadFromFile(paths.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates an FOApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "Scan", "Organize").
func newApp(operation string) (*app.FOApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewFOApp(cfg, operation, verbose)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// newBar returns a progress bar on stderr for total items.
func newBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(20),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

var rootCmd = &cobra.Command{
	Use:          "fo",
	Short:        "File organizer",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return err
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, paths.BaseDir)

		if err := config.Init(paths.ConfigFile, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", paths.ConfigFile)
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", paths.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.DefaultPaths()
		if err != nil {
			return err
		}
		cfg, err := config.ReadFromFile(paths.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", paths.ConfigFile)
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Database:    %s\n", cfg.Database.Type)
		fmt.Printf("Batch Size:  %d\n", cfg.Scan.BatchSize)
		fmt.Printf("Workers:     %d\n", cfg.Scan.Workers)
		fmt.Printf("Server Addr: %s\n", cfg.Server.Addr)
		if cfg.Archive.Enabled {
			fmt.Printf("Archive:     %s vault, %s encryption\n", cfg.Archive.Vault.Type, cfg.Archive.Encryption.Type)
		} else {
			fmt.Printf("Archive:     disabled\n")
		}
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan [PATH]",
	Short: "Catalog the files under a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, _ := cmd.Flags().GetBool("recursive")

		a, err := newApp("Scan")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "."
		if len(args) > 0 {
			target = args[0]
		}

		var bar *progressbar.ProgressBar
		res, err := a.Scan(cmd.Context(), target, recursive, func(p fo.ScanProgress) {
			if bar == nil && p.TotalFiles > 0 {
				bar = newBar(p.TotalFiles, "Scanning")
			}
			if bar != nil {
				_ = bar.Set(p.ProcessedFiles)
			}
		})
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		fmt.Printf("Scanned %d file(s): %d new, %d skipped, %d error(s)\n",
			res.TotalFiles, res.NewFiles, res.SkippedFiles, res.ErrorFiles)
		return nil
	},
}

var rescanCmd = &cobra.Command{
	Use:   "rescan FILE_ID",
	Short: "Re-read one cataloged file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp("Rescan")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.Rescan(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d  %s  %s  %s\n", f.ID, f.Status, f.DateSource, f.OriginalPath)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last scan and catalog counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		scan, err := a.ScanStatus()
		if err != nil {
			return err
		}
		if scan == nil {
			fmt.Println("No scans recorded.")
		} else {
			fmt.Printf("Last scan:  %s  %s\n", scan.SourcePath, scan.Status)
			fmt.Printf("Started:    %s\n", formatTime(scan.StartedAt))
			if scan.CompletedAt != nil {
				fmt.Printf("Completed:  %s\n", formatTime(*scan.CompletedAt))
			}
			fmt.Printf("Processed:  %d/%d (%d new, %d skipped, %d errors)\n",
				scan.ProcessedFiles, scan.TotalFiles, scan.NewFiles, scan.SkippedFiles, scan.ErrorFiles)
			if scan.Error != "" {
				fmt.Printf("Error:      %s\n", scan.Error)
			}
		}

		stats, err := a.CatalogStats()
		if err != nil {
			return err
		}
		fmt.Printf("\nCatalog: %d file(s)\n", stats.Total)
		for _, status := range []string{fo.StatusPending, fo.StatusMoved, fo.StatusDuplicate, fo.StatusError} {
			fmt.Printf("  %-10s %d\n", status, stats.ByStatus[status])
		}
		return nil
	},
}

// duplicates command
var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List groups of identical files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("FindDuplicates")
		if err != nil {
			return err
		}
		defer a.Close()

		groups, err := a.FindDuplicateGroups()
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Println("No duplicates found.")
			return nil
		}

		for _, g := range groups {
			fmt.Printf("%s  %d copies  %s wasted\n", g.ContentHash[:12], len(g.Files), humanize.IBytes(uint64(g.WastedBytes())))
			fmt.Printf("  keep  #%d  %s\n", g.Original.ID, g.Original.OriginalPath)
			for _, d := range g.Duplicates {
				fmt.Printf("  dup   #%d  %s  [%s]\n", d.ID, d.OriginalPath, d.Status)
			}
		}
		return nil
	},
}

var duplicatesMarkCmd = &cobra.Command{
	Use:   "mark",
	Short: "Mark every pending duplicate",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("MarkDuplicates")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.MarkDuplicates(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Marked %d duplicate(s) across %d group(s)\n", res.Marked, res.Groups)
		return nil
	},
}

var duplicatesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize duplicate space usage",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DuplicateStats")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.DuplicateStats()
		if err != nil {
			return err
		}
		fmt.Printf("Groups:          %d\n", stats.Groups)
		fmt.Printf("Duplicate files: %d\n", stats.DuplicateFiles)
		fmt.Printf("Wasted space:    %s\n", humanize.IBytes(uint64(stats.WastedBytes)))
		return nil
	},
}

// organize command
var organizeCmd = &cobra.Command{
	Use:   "organize DEST",
	Short: "Move pending files into DEST/<year>/<month>/<day>",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		ids, _ := cmd.Flags().GetInt64Slice("ids")

		a, err := newApp("Organize")
		if err != nil {
			return err
		}
		defer a.Close()

		var bar *progressbar.ProgressBar
		res, err := a.Organize(cmd.Context(), app.OrganizeRequest{
			Destination: args[0],
			DryRun:      dryRun,
			FileIDs:     ids,
		}, func(p fo.OrganizeProgress) {
			if bar == nil && p.TotalFiles > 0 {
				bar = newBar(p.TotalFiles, "Organizing")
			}
			if bar != nil {
				_ = bar.Set(p.ProcessedFiles)
			}
		})
		if bar != nil {
			_ = bar.Finish()
		}
		if err != nil {
			return fmt.Errorf("organize failed: %w", err)
		}

		verb := "Moved"
		if res.DryRun {
			verb = "Would move"
		}
		fmt.Printf("%s %d of %d file(s): %d skipped, %d duplicate(s), %d error(s)\n",
			verb, res.MovedFiles, res.TotalFiles, res.SkippedFiles, res.DuplicateFiles, res.ErrorFiles)
		fmt.Printf("Batch: %s\n", res.BatchID)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview DEST",
	Short: "Show where pending files would go",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, _ := cmd.Flags().GetInt64Slice("ids")

		a, err := newApp("Preview")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.Preview(args[0], ids)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No pending files.")
			return nil
		}
		for _, e := range entries {
			switch e.Action {
			case fo.ActionMove:
				fmt.Printf("%-9s #%d  %s -> %s\n", e.Action, e.FileID, e.Source, e.Destination)
			default:
				fmt.Printf("%-9s #%d  %s  (%s)\n", e.Action, e.FileID, e.Source, e.Reason)
			}
		}
		return nil
	},
}

// revert command
var revertCmd = &cobra.Command{
	Use:   "revert [OPERATION_ID]",
	Short: "Move files back to where they came from",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		batchID, _ := cmd.Flags().GetString("batch")
		preview, _ := cmd.Flags().GetBool("preview")
		if (batchID == "") == (len(args) == 0) {
			return fmt.Errorf("give either an operation id or --batch")
		}

		a, err := newApp("Revert")
		if err != nil {
			return err
		}
		defer a.Close()

		if batchID != "" {
			return revertBatch(cmd, a, batchID, preview)
		}

		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if preview {
			check, err := a.CanRevert(id)
			if err != nil {
				return err
			}
			if check == nil {
				return fmt.Errorf("operation %d not found", id)
			}
			printCheck(check)
			return nil
		}

		res, err := a.RevertOperation(cmd.Context(), id)
		if err != nil {
			return err
		}
		fmt.Printf("Restored %s (revert #%d)\n", res.RestoredPath, res.RevertOperationID)
		return nil
	},
}

func revertBatch(cmd *cobra.Command, a *app.FOApp, batchID string, preview bool) error {
	if preview {
		checks, err := a.PreviewBatchRevert(batchID)
		if err != nil {
			return err
		}
		if len(checks) == 0 {
			fmt.Println("Nothing to revert.")
		}
		for _, c := range checks {
			printCheck(c)
		}
		return nil
	}

	res, err := a.RevertBatch(cmd.Context(), batchID)
	if err != nil {
		return err
	}
	fmt.Printf("Reverted %d of %d: %d skipped, %d failed\n", res.Reverted, res.TotalOperations, res.Skipped, res.Failed)
	for _, f := range res.Errors {
		fmt.Printf("  #%d  %s\n", f.OperationID, f.Error)
	}
	return nil
}

func printCheck(c *fo.RevertCheck) {
	if c.CanRevert {
		fmt.Printf("ok    #%d  %s -> %s\n", c.OperationID, c.Destination, c.Source)
		return
	}
	fmt.Printf("no    #%d  %s  (%s)\n", c.OperationID, c.Source, c.Reason)
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View the operation ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		batchID, _ := cmd.Flags().GetString("batch")

		a, err := newApp("GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		var ops []*sqlc.Operation
		if batchID != "" {
			ops, err = a.GetBatch(batchID)
		} else {
			ops, err = a.GetHistory(limit)
		}
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			dry := ""
			if op.DryRun {
				dry = "  [dry-run]"
			}
			dest := ""
			if op.DestinationPath.Valid {
				dest = " -> " + op.DestinationPath.String
			}
			fmt.Printf("#%d  %-9s  %s  %-9s  %s%s%s\n",
				op.ID,
				op.Kind,
				formatTime(op.CreatedAt),
				op.Status,
				op.SourcePath,
				dest,
				dry,
			)
		}
		return nil
	},
}

// files command
var filesCmd = &cobra.Command{
	Use:   "files [FILE_ID]",
	Short: "Browse the catalog, or show one file's history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return showFile(a, id)
		}

		status, _ := cmd.Flags().GetString("status")
		search, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		page, err := a.ListFiles(fo.FileQuery{Status: status, Search: search, Limit: limit, Offset: offset})
		if err != nil {
			return err
		}
		if len(page.Files) == 0 {
			fmt.Println("No files found.")
			return nil
		}
		for _, f := range page.Files {
			fmt.Printf("#%-6d %-9s %-9s %8s  %s  %s\n",
				f.ID, f.Status, f.Category, humanize.IBytes(uint64(f.Size)),
				f.ResolvedDate.Format("2006-01-02"), currentPath(f))
		}
		fmt.Printf("\n%d-%d of %d\n", offset+1, offset+len(page.Files), page.Total)
		return nil
	},
}

func showFile(a *app.FOApp, id int64) error {
	h, err := a.GetFileHistory(id)
	if err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("file %d not found", id)
	}

	f := h.File
	fmt.Printf("File #%d  %s\n", f.ID, f.Filename)
	fmt.Printf("Original:  %s\n", f.OriginalPath)
	fmt.Printf("Current:   %s\n", currentPath(f))
	fmt.Printf("Status:    %s\n", f.Status)
	fmt.Printf("Category:  %s (%s)\n", f.Category, f.MimeType.String)
	fmt.Printf("Size:      %s\n", humanize.IBytes(uint64(f.Size)))
	fmt.Printf("Date:      %s (%s)\n", f.ResolvedDate.Format("2006-01-02 15:04:05"), f.DateSource)
	if f.ContentHash.Valid {
		fmt.Printf("Hash:      %s\n", f.ContentHash.String)
	}
	if f.DuplicateOf.Valid {
		fmt.Printf("Duplicate: of #%d\n", f.DuplicateOf.Int64)
	}

	if len(h.Operations) > 0 {
		fmt.Println("\nOperations:")
		for _, op := range h.Operations {
			fmt.Printf("  #%d  %-9s %s  %-9s  %s\n", op.ID, op.Kind, formatTime(op.CreatedAt), op.Status, op.Reason)
		}
	}
	if len(h.Errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range h.Errors {
			fmt.Printf("  %s  %-10s %s\n", formatTime(e.CreatedAt), e.Category, e.Message)
		}
	}
	return nil
}

func currentPath(f *sqlc.File) string {
	if f.CurrentPath.Valid {
		return f.CurrentPath.String
	}
	return f.OriginalPath
}

// errors command
var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "List recent file errors",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ListErrors")
		if err != nil {
			return err
		}
		defer a.Close()

		errs, err := a.ListErrors(limit)
		if err != nil {
			return err
		}
		if len(errs) == 0 {
			fmt.Println("No errors recorded.")
			return nil
		}
		for _, e := range errs {
			fmt.Printf("%s  %-10s %s: %s\n", formatTime(e.CreatedAt), e.Category, e.Path, e.Message)
		}
		return nil
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Return errored files to pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RetryErrored")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.RetryErrored(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Re-queued %d file(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// duplicates subcommands
	duplicatesCmd.AddCommand(duplicatesMarkCmd)
	duplicatesCmd.AddCommand(duplicatesStatsCmd)

	// archive subcommands
	archiveCmd.AddCommand(archiveFetchCmd)
	archiveCmd.AddCommand(archiveKeysCmd)
	archiveCmd.AddCommand(archiveValidateCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolP("recursive", "r", true, "Recurse into subdirectories")
	rootCmd.AddCommand(rescanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(duplicatesCmd)
	rootCmd.AddCommand(organizeCmd)
	organizeCmd.Flags().Bool("dry-run", false, "Record what would happen without moving anything")
	organizeCmd.Flags().Int64Slice("ids", nil, "Only organize these file ids")
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().Int64Slice("ids", nil, "Only preview these file ids")
	rootCmd.AddCommand(revertCmd)
	revertCmd.Flags().String("batch", "", "Revert every move of this batch")
	revertCmd.Flags().Bool("preview", false, "Check whether the revert would succeed")
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	historyCmd.Flags().String("batch", "", "Show only this batch")
	rootCmd.AddCommand(filesCmd)
	filesCmd.Flags().String("status", "", "Only files with this status")
	filesCmd.Flags().StringP("search", "s", "", "Substring of the file name or path")
	filesCmd.Flags().IntP("limit", "n", 50, "Page size")
	filesCmd.Flags().Int("offset", 0, "Files to skip")
	rootCmd.AddCommand(errorsCmd)
	errorsCmd.Flags().IntP("limit", "n", 50, "Maximum number of errors to show")
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
	rootCmd.AddCommand(archiveCmd)
}
