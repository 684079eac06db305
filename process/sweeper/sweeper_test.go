package sweeper

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"websiteemas/models"
	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/pkg/storage"
)

func setup(t *testing.T) (*gorm.DB, *storage.Local) {
	t.Helper()
	dir := t.TempDir()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "sweep.db"), MaxOpen: 1}, gormlogger.Discard)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	logg := logrus.New()
	logg.SetOutput(io.Discard)
	if err := database.Migrate(db, logg, models.All()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := storage.NewLocal(filepath.Join(dir, "uploads"), "/public/uploads")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}
	return db, store
}

func put(t *testing.T, store *storage.Local, folder, name string, age time.Duration) {
	t.Helper()
	if err := store.Put(context.Background(), folder, name, []byte("x"), "application/octet-stream"); err != nil {
		t.Fatalf("put %s: %v", name, err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(store.Path(folder, name), mod, mod); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestRunRemovesOldOrphans(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()

	put(t, store, storage.FolderFlyers, "kept.png", time.Hour)
	put(t, store, storage.FolderThumbs, "kept.jpg", time.Hour)
	put(t, store, storage.FolderFlyers, "orphan.png", time.Hour)
	put(t, store, storage.FolderFlyers, "fresh.png", 0)
	if err := db.Create(&models.Flyer{Gambar: "kept.png", Thumbnail: "kept.jpg", Nama: "Promo"}).Error; err != nil {
		t.Fatalf("create flyer: %v", err)
	}
	lpj := models.LPJ{NamaKegiatan: "Rapat", TotalPengeluaran: decimal.NewFromInt(1000), BuktiDokumen: "missing.pdf"}
	if err := db.Create(&lpj).Error; err != nil {
		t.Fatalf("create lpj: %v", err)
	}

	rep, err := New(db, store, Options{Grace: 10 * time.Minute}, quiet()).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if rep.Scanned != 4 {
		t.Fatalf("scanned %d files, want 4", rep.Scanned)
	}
	if len(rep.Orphans) != 1 || rep.Orphans[0] != "flyers/orphan.png" || rep.Removed != 1 {
		t.Fatalf("unexpected orphans %+v", rep)
	}
	if rep.Skipped != 1 {
		t.Fatalf("fresh file should be skipped, got %d", rep.Skipped)
	}
	if len(rep.Dangling) != 1 || rep.Dangling[0] != "laporan/missing.pdf" {
		t.Fatalf("unexpected dangling %v", rep.Dangling)
	}
	for name, want := range map[string]bool{"orphan.png": false, "fresh.png": true, "kept.png": true} {
		got, err := store.Exists(ctx, storage.FolderFlyers, name)
		if err != nil || got != want {
			t.Fatalf("%s exists=%v err=%v, want %v", name, got, err, want)
		}
	}
}

func TestRunDryRunKeepsFiles(t *testing.T) {
	db, store := setup(t)
	ctx := context.Background()
	put(t, store, storage.FolderLaporan, "old.pdf", 2*time.Hour)

	rep, err := New(db, store, Options{DryRun: true, Grace: time.Minute}, quiet()).Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rep.Orphans) != 1 || rep.Removed != 0 {
		t.Fatalf("dry run should report without removing: %+v", rep)
	}
	if ok, _ := store.Exists(ctx, storage.FolderLaporan, "old.pdf"); !ok {
		t.Fatalf("dry run removed the file")
	}
}

func TestFolders(t *testing.T) {
	got := Folders()
	if len(got) != 3 || got[0] != storage.FolderFlyers || got[2] != storage.FolderLaporan {
		t.Fatalf("unexpected folders %v", got)
	}
}
