package flyerimport

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	gormlogger "gorm.io/gorm/logger"

	"websiteemas/models"
	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/pkg/storage"
)

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	img.Set(1, 1, color.RGBA{B: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestNameFor(t *testing.T) {
	if got := NameFor("promo_emas-agustus.PNG"); got != "promo emas agustus" {
		t.Fatalf("NameFor = %q", got)
	}
}

func TestImport(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(src, "promo-satu.png"))
	writePNG(t, filepath.Join(src, "promo-dua.png"))
	_ = os.WriteFile(filepath.Join(src, "palsu.jpg"), []byte("not an image"), 0o644)
	_ = os.WriteFile(filepath.Join(src, "catatan.txt"), []byte("ignored"), 0o644)

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(root, "import.db"), MaxOpen: 1}, gormlogger.Discard)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	logg := logrus.New()
	logg.SetOutput(io.Discard)
	if err := database.Migrate(db, logg, models.All()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Create(&models.Flyer{Nama: "Promo Dua", Gambar: "lama.png"}).Error; err != nil {
		t.Fatalf("create flyer: %v", err)
	}
	store, err := storage.NewLocal(filepath.Join(root, "uploads"), "/public/uploads")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	rep, err := New(db, store, Options{Workers: 2}, logg).Import(context.Background(), src)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if rep.Found != 3 || rep.Imported != 1 || rep.Skipped != 1 || len(rep.Failed) != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if _, ok := rep.Failed["palsu.jpg"]; !ok {
		t.Fatalf("disguised file should fail: %+v", rep.Failed)
	}

	var f models.Flyer
	if err := db.Where("nama = ?", "promo satu").First(&f).Error; err != nil {
		t.Fatalf("imported flyer missing: %v", err)
	}
	for folder, name := range map[string]string{storage.FolderFlyers: f.Gambar, storage.FolderThumbs: f.Thumbnail} {
		if ok, _ := store.Exists(context.Background(), folder, name); !ok {
			t.Fatalf("%s/%s was not stored", folder, name)
		}
	}

	rep, err = New(db, store, Options{Workers: 1}, logg).Import(context.Background(), src)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if rep.Imported != 0 {
		t.Fatalf("second run imported %d flyers again", rep.Imported)
	}
}
