package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	gormlogger "gorm.io/gorm/logger"

	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/pkg/logging"
	"websiteemas/process/sanitize"
)

func main() {
	var (
		dryRun = flag.Bool("dry-run", true, "Don't perform destructive actions; show what would be done")
		yes    = flag.Bool("yes", false, "Confirm destructive action (required to actually delete)")
		reseed = flag.Bool("reseed", false, "After deleting, reseed the default admin and user accounts")
		tables = flag.String("tables", "", "Comma-separated tables to empty (default: all of "+strings.Join(sanitize.Tables(), ",")+")")
	)
	flag.Parse()

	cfg, err := config.LoadTool()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if !*dryRun && !*yes {
		fmt.Println("Destructive operation. Pass --yes to confirm execution. Aborting.")
		os.Exit(1)
	}
	logg := logging.New(cfg.Log.Level, cfg.IsDevelopment())
	db, err := database.Open(cfg.Database, gormlogger.Discard)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	var list []string
	if *tables != "" {
		list = strings.Split(*tables, ",")
	}
	opts := sanitize.Options{Tables: list, DryRun: *dryRun, Reseed: *reseed}
	if err := sanitize.Run(context.Background(), db, opts, logg, os.Stdout); err != nil {
		log.Fatalf("sanitize: %v", err)
	}
}
