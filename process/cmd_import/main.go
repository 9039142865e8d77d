package main

import (
	"context"
	"flag"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/BlackBlossom/kmj-billing-system-sub001/pkg/billing"
	"github.com/BlackBlossom/kmj-billing-system-sub001/process/importer"
)

// Imports legacy bill dumps (*.json) from a drop directory, optional watch mode.
func main() {
	dirFlag := flag.String("dir", "dumps", "directory to scan for legacy bill dumps")
	watch := flag.Bool("watch", false, "watch directory for new files after the initial scan")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	verbose := flag.Bool("verbose", false, "verbose per-record logging")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	store := billing.NewGormStore(db)
	svc := billing.NewService(store, store)

	im := importer.New(svc, *dirFlag, *workers)
	im.SetVerbose(*verbose)

	ctx := context.Background()
	res, err := im.ScanOnce(ctx)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}
	log.Printf("Initial scan: imported=%d failed=%d", res.Imported, res.Failed)

	if *watch {
		if err := im.Watch(ctx); err != nil && err != context.Canceled {
			log.Fatalf("watch failed: %v", err)
		}
	}
}
