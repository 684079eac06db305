package sanitize

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"websiteemas/models"
	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
)

func testDB(t *testing.T) (*gorm.DB, *logrus.Logger) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "sanitize.db"), MaxOpen: 1}, gormlogger.Discard)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	logg := logrus.New()
	logg.SetOutput(io.Discard)
	if err := database.Migrate(db, logg, models.All()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db, logg
}

func TestPlanOrdersChildrenFirst(t *testing.T) {
	db, _ := testDB(t)
	plan, err := Plan(db, []string{"rab", "lpj"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if strings.Join(plan, ",") != "lpj,rab" {
		t.Fatalf("plan = %v, want lpj before rab", plan)
	}
	if _, err := Plan(db, []string{"users; DROP TABLE users"}); err == nil {
		t.Fatalf("unknown table name must be rejected")
	}
	all, _ := Plan(db, nil)
	if len(all) != len(Tables()) || all[len(all)-1] != "users" {
		t.Fatalf("unexpected full plan %v", all)
	}
}

func TestRunDryRunThenReseed(t *testing.T) {
	db, logg := testDB(t)
	ctx := context.Background()
	rab := models.RAB{NamaKegiatan: "Uji", Anggaran: decimal.NewFromInt(1000)}
	if err := db.Create(&rab).Error; err != nil {
		t.Fatalf("create rab: %v", err)
	}
	if err := database.Seed(db, logg); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var out bytes.Buffer
	if err := Run(ctx, db, Options{DryRun: true}, logg, &out); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	var n int64
	db.Model(&models.RAB{}).Count(&n)
	if n != 1 || !strings.Contains(out.String(), "dry-run") {
		t.Fatalf("dry run changed data (rab=%d) or said nothing: %s", n, out.String())
	}

	out.Reset()
	if err := Run(ctx, db, Options{Reseed: true}, logg, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	db.Model(&models.RAB{}).Count(&n)
	if n != 0 {
		t.Fatalf("rab rows left: %d", n)
	}
	db.Model(&models.User{}).Count(&n)
	if n != 2 {
		t.Fatalf("expected the two default accounts after reseed, got %d", n)
	}
}
