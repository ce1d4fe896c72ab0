// invoice-train manages supplier profiles: registering new suppliers,
// training signatures from labeled examples, and replaying detection against
// a sample document.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/haakon-okland/invoice-core/internal/classify"
	"github.com/haakon-okland/invoice-core/internal/common"
	"github.com/haakon-okland/invoice-core/internal/entity"
	"github.com/haakon-okland/invoice-core/internal/extract"
	repo "github.com/haakon-okland/invoice-core/internal/repository"
	"github.com/haakon-okland/invoice-core/internal/templates"
)

const usage = `usage: invoice-train <command> [flags]

commands:
  add    register a supplier and/or train a signature from a labeled example
  test   run supplier detection against a sample document and print scores
  stats  list stored profiles with pattern and signature counts
`

// patternFlags collects repeated -pattern flags.
type patternFlags []string

func (p *patternFlags) String() string { return strings.Join(*p, ",") }
func (p *patternFlags) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	if len(os.Args) < 2 {
		printError(usage)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

	db, err := repo.Open(ctx, cfg.Store, logger)
	if err != nil {
		printError("Error: open profile store: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)
	profiles := repo.NewProfileStore(db, logger)

	switch os.Args[1] {
	case "add":
		err = runAdd(ctx, profiles, os.Args[2:])
	case "test":
		err = runTest(ctx, profiles, cfg, logger, os.Args[2:])
	case "stats":
		err = runStats(ctx, profiles)
	default:
		printError("Error: unknown command %q\n%s", os.Args[1], usage)
		os.Exit(1)
	}
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
}

func runAdd(ctx context.Context, profiles repo.ProfileStore, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	var pats patternFlags
	key := fs.String("key", "", "supplier key (required)")
	templateKey := fs.String("template", "", "template key (defaults to the supplier key)")
	file := fs.String("file", "", "labeled example text file to train a signature from")
	fs.Var(&pats, "pattern", "identification pattern (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *key == "" {
		return fmt.Errorf("--key is required")
	}
	if *templateKey == "" {
		*templateKey = *key
	}

	// The in-memory store does the validation (pattern compilation, empty
	// examples); persistence only happens once it accepts the input.
	store := classify.NewStore()
	exists, err := profiles.Exists(ctx, *key)
	if err != nil {
		return err
	}
	if exists {
		p, err := profiles.GetByKey(ctx, *key)
		if err != nil {
			return err
		}
		if err := store.Load([]entity.SupplierProfile{*p}); err != nil {
			return err
		}
		if len(pats) > 0 {
			// Compile-check the new patterns before touching the database.
			if err := classify.NewStore().Register(*key, *templateKey, pats); err != nil {
				return err
			}
			if err := profiles.AddPatterns(ctx, *key, pats); err != nil {
				return err
			}
			fmt.Printf("added %d patterns to %s\n", len(pats), *key)
		}
	} else {
		if err := store.Register(*key, *templateKey, pats); err != nil {
			return err
		}
		p, err := store.Get(*key)
		if err != nil {
			return err
		}
		if err := profiles.CreateProfile(ctx, &p); err != nil {
			return err
		}
		fmt.Printf("registered supplier %s (template %s, %d patterns)\n", *key, *templateKey, len(pats))
	}

	if *file != "" {
		text, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		sig, err := store.Train(*key, string(text))
		if err != nil {
			return err
		}
		if err := profiles.AddSignature(ctx, *key, sig); err != nil {
			return err
		}
		fmt.Printf("trained signature from %s (%d fingerprint tokens)\n", *file, len(strings.Split(sig.Fingerprint, "|")))
	}
	return nil
}

func runTest(ctx context.Context, profiles repo.ProfileStore, cfg *common.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	file := fs.String("file", "", "document text file to classify (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}

	store := classify.NewStore()
	persisted, err := profiles.ListProfiles(ctx)
	if err != nil {
		return err
	}
	if err := store.Load(persisted); err != nil {
		return err
	}
	if err := templates.RegisterBuiltins(store, extract.NewRegistry()); err != nil {
		return err
	}

	text, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	detection := classify.NewDetector(store, cfg.Detection, logger).Detect(string(text))

	fmt.Printf("status: %s\n", detection.Status)
	if detection.SupplierKey != "" {
		fmt.Printf("supplier: %s (confidence %.3f)\n", detection.SupplierKey, detection.Confidence)
	}
	keys := make([]string, 0, len(detection.Scores))
	for k := range detection.Scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-24s score=%.3f\n", k, detection.Scores[k])
	}
	return nil
}

func runStats(ctx context.Context, profiles repo.ProfileStore) error {
	persisted, err := profiles.ListProfiles(ctx)
	if err != nil {
		return err
	}
	if len(persisted) == 0 {
		fmt.Println("no profiles stored")
		return nil
	}
	for _, p := range persisted {
		fmt.Printf("%-24s template=%-24s patterns=%d signatures=%d updated=%s\n",
			p.Key, p.TemplateKey, len(p.Patterns), len(p.Signatures), p.UpdatedAt.Format("2006-01-02"))
	}
	return nil
}
