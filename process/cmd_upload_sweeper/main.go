package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/pkg/logging"
	"websiteemas/pkg/storage"
	"websiteemas/process/sweeper"
)

// Sweeps the upload folders for files no flyer or LPJ row references.
// With --watch it keeps following the local folders afterwards.
func main() {
	dir := flag.String("dir", "", "local upload base (default UPLOAD_BASE)")
	dryRun := flag.Bool("dry-run", false, "report orphans without deleting them")
	watch := flag.Bool("watch", false, "keep watching the local upload folders")
	grace := flag.Duration("grace", 10*time.Minute, "leave files younger than this alone")
	verbose := flag.Bool("verbose", false, "debug logging")
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
	if *dir != "" {
		cfg.Storage.Driver = "local"
		cfg.Storage.UploadBase = *dir
	}

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

	logg.WithFields(logrus.Fields{"folders": sweeper.Folders(), "dryRun": *dryRun, "grace": *grace}).Info("sweeping uploads")
	sw := sweeper.New(db, store, sweeper.Options{DryRun: *dryRun, Grace: *grace}, logg)
	rep, err := sw.Run(ctx)
	if err != nil {
		logg.Fatalf("sweep: %v", err)
	}
	fmt.Printf("scanned=%d orphans=%d removed=%d skipped=%d dangling=%d\n",
		rep.Scanned, len(rep.Orphans), rep.Removed, rep.Skipped, len(rep.Dangling))
	for _, o := range rep.Orphans {
		fmt.Println("orphan:", o)
	}
	for _, d := range rep.Dangling {
		fmt.Println("dangling:", d)
	}

	if !*watch {
		return
	}
	local, ok := store.(*storage.Local)
	if !ok {
		logg.Fatal("--watch needs STORAGE_DRIVER=local")
	}
	if err := sw.Watch(ctx, local.Base); err != nil {
		logg.Fatalf("watch: %v", err)
	}
}
