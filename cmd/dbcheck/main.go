// dbcheck verifies that the profile store is reachable and readable.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/haakon-okland/invoice-core/internal/common"
	repo "github.com/haakon-okland/invoice-core/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := common.LoadConfig()

	db, err := repo.Open(ctx, cfg.Store, nil)
	if err != nil {
		log.Fatalf("opening profile store: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("ERROR: closing profile store: %v", err)
		}
	}()
	log.Println("profile store health: OK")

	profiles := repo.NewProfileStore(db, nil)
	list, err := profiles.ListProfiles(ctx)
	if err != nil {
		log.Fatalf("listing profiles: %v", err)
	}

	log.Printf("profiles count: %d", len(list))
	for _, p := range list {
		log.Printf("  - %s (template=%s, patterns=%d, signatures=%d)",
			p.Key, p.TemplateKey, len(p.Patterns), len(p.Signatures))
	}
}
