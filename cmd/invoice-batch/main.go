package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/haakon-okland/invoice-core/internal/classify"
	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
	"github.com/haakon-okland/invoice-core/internal/export"
	"github.com/haakon-okland/invoice-core/internal/extract"
	"github.com/haakon-okland/invoice-core/internal/pipeline"
	repo "github.com/haakon-okland/invoice-core/internal/repository"
	"github.com/haakon-okland/invoice-core/internal/resolve"
	"github.com/haakon-okland/invoice-core/internal/roster"
	"github.com/haakon-okland/invoice-core/internal/templates"
	"github.com/haakon-okland/invoice-core/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		dir         = flag.String("dir", "", "directory of extracted invoice text files to process (required)")
		rosterPath  = flag.String("roster", "", "cost-center roster XLSX file")
		templateDir = flag.String("templates", "", "directory of supplier template JSON files (optional)")
		out         = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		jsonDir     = flag.String("json-dir", "", "directory for per-document JSON output (optional, defaults to alongside each input)")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "invoices.xlsx")
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Open the profile store and hydrate the in-memory pattern store.
	db, err := repo.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open profile store", "error", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)
	profiles := repo.NewProfileStore(db, logger)

	store := classify.NewStore()
	persisted, err := profiles.ListProfiles(ctx)
	if err != nil {
		logger.Error("failed to list profiles", "error", err)
		os.Exit(1)
	}
	if err := store.Load(persisted); err != nil {
		logger.Error("failed to load profiles", "error", err)
		os.Exit(1)
	}

	registry := extract.NewRegistry()
	if err := templates.RegisterBuiltins(store, registry); err != nil {
		logger.Error("failed to register built-in templates", "error", err)
		os.Exit(1)
	}
	if *templateDir != "" {
		if err := loadTemplateDir(registry, *templateDir, logger); err != nil {
			logger.Error("failed to load template directory", "dir", *templateDir, "error", err)
			os.Exit(1)
		}
	}

	// Roster is optional: without it every line stays UNMATCHED.
	var entries []entity.RosterEntry
	if *rosterPath != "" {
		entries, err = roster.Load(*rosterPath, logger)
		if err != nil {
			logger.Error("failed to load roster", "path", *rosterPath, "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("no roster provided, cost-center matching disabled")
	}

	validator, err := validate.NewValidator(cfg.Validation, logger)
	if err != nil {
		logger.Error("invalid validation configuration", "error", err)
		os.Exit(1)
	}
	processor := pipeline.NewProcessor(
		logger,
		classify.NewDetector(store, cfg.Detection, logger),
		store,
		registry,
		extract.NewExtractor(logger),
		resolve.NewResolver(cfg.Resolution, logger),
		validator,
		entries,
	)
	queue := pipeline.NewQueue(processor, logger,
		pipeline.WithWorkers(cfg.Batch.Workers),
		pipeline.WithQueueSize(cfg.Batch.QueueSize),
		pipeline.WithProcessTimeout(cfg.Batch.ProcessTimeout),
	)

	paths, err := collectInputs(*dir)
	if err != nil {
		logger.Error("failed to scan input directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		logger.Warn("no input files found", "dir", *dir)
	}
	logger.Info("starting batch", "dir", *dir, "files", len(paths))

	var (
		mu      sync.Mutex
		results []*entity.ExtractionResult
		failed  int
	)
	var wg sync.WaitGroup
	for _, path := range paths {
		text, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read input", "path", path, "error", err)
			failed++
			continue
		}
		doc := entity.NewDocument(path, string(text))

		wg.Add(1)
		job := pipeline.Job{
			Doc: doc,
			Done: func(res *entity.ExtractionResult, err error) {
				defer wg.Done()
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					return
				}
				results = append(results, res)
			},
		}
		if err := queue.Enqueue(ctx, job); err != nil {
			wg.Done()
			logger.Error("failed to enqueue", "path", path, "error", err)
			failed++
		}
	}
	wg.Wait()
	queue.Shutdown(ctx)

	// Deterministic output order regardless of worker interleaving.
	sort.Slice(results, func(i, j int) bool { return results[i].SourceFile < results[j].SourceFile })

	for _, res := range results {
		if err := writeJSON(res, *jsonDir); err != nil {
			logger.Error("failed to write JSON output", "source", res.SourceFile, "error", err)
			failed++
		}
	}

	exporter := export.NewService(logger)
	workbook, err := exporter.ExportLinesXLSX(results)
	if err != nil {
		logger.Error("failed to build XLSX summary", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, workbook, 0o644); err != nil {
		logger.Error("failed to write XLSX summary", "path", *out, "error", err)
		os.Exit(1)
	}

	flagged := 0
	for _, res := range results {
		if len(res.Flags) > 0 {
			flagged++
		}
	}
	logger.Info("batch complete",
		"processed", len(results),
		"failed", failed,
		"flagged", flagged,
		"xlsx", *out,
	)
	if failed > 0 {
		os.Exit(1)
	}
}

func collectInputs(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".txt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func loadTemplateDir(registry *extract.Registry, dir string, logger *slog.Logger) error {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	sort.Strings(matches)
	for _, path := range matches {
		def, err := extract.LoadTemplateFile(path)
		if err != nil {
			return fmt.Errorf("template %s: %w", path, err)
		}
		if err := registry.Add(def); err != nil {
			return fmt.Errorf("template %s: %w", path, err)
		}
		logger.Info("template loaded", "path", path, "key", def.Key)
	}
	return nil
}

func writeJSON(res *entity.ExtractionResult, jsonDir string) error {
	data, err := export.WriteJSON(res)
	if err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(res.SourceFile), filepath.Ext(res.SourceFile)) + ".json"
	dir := filepath.Dir(res.SourceFile)
	if jsonDir != "" {
		dir = jsonDir
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filepath.Join(dir, base), data, 0o644)
}
