package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/pkg/logging"
	"websiteemas/pkg/storage"
	"websiteemas/process/flyerimport"
)

// Imports every image in --dir as a flyer.
func main() {
	dir := flag.String("dir", "public/flyers", "directory to scan for flyer images")
	dryRun := flag.Bool("dry-run", false, "validate and report without storing anything")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	keterangan := flag.String("keterangan", "", "description set on every imported flyer")
	verbose := flag.Bool("verbose", false, "Verbose per-file logging")
	flag.Parse()

	cfg, err := config.LoadTool()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	level := cfg.Log.Level
	if *verbose {
		level = "debug"
	}
	logg := logging.New(level, cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logging.Gorm(logg, *verbose))
	if err != nil {
		logg.Fatalf("database: %v", err)
	}
	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logg.Fatalf("storage: %v", err)
	}
	im := flyerimport.New(db, store, flyerimport.Options{Workers: *workers, DryRun: *dryRun, Keterangan: *keterangan}, logg)
	rep, err := im.Import(ctx, *dir)
	if err != nil {
		logg.Fatalf("import: %v", err)
	}
	fmt.Printf("found=%d imported=%d skipped=%d failed=%d\n", rep.Found, rep.Imported, rep.Skipped, len(rep.Failed))
	names := make([]string, 0, len(rep.Failed))
	for n := range rep.Failed {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Printf("failed: %s: %s\n", n, rep.Failed[n])
	}
}
