package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"websiteemas/models"
	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
)

// Deletes expired and revoked login sessions.
func main() {
	keep := flag.Duration("keep", 0, "keep expired sessions younger than this")
	dryRun := flag.Bool("dry-run", false, "only count what would be deleted")
	flag.Parse()

	cfg, err := config.LoadTool()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Open(cfg.Database, gormlogger.Discard)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	cutoff := time.Now().UTC().Add(-*keep)
	q := db.Where("revoked = ? OR expires_at < ?", true, cutoff)
	if *dryRun {
		var n int64
		if err := q.Model(&models.Session{}).Count(&n).Error; err != nil {
			log.Fatalf("count sessions: %v", err)
		}
		fmt.Printf("would delete %d sessions\n", n)
		return
	}
	res := q.Delete(&models.Session{})
	if res.Error != nil {
		log.Fatalf("delete sessions: %v", res.Error)
	}
	fmt.Printf("cleanup done: sessions deleted=%d\n", res.RowsAffected)
}
