// Package flyerimport loads a directory of promotional images as flyers,
// generating thumbnails the same way the upload endpoint does.
package flyerimport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"websiteemas/models"
	"websiteemas/pkg/storage"
)

type Options struct {
	Workers int
	DryRun  bool
	// Keterangan is set on every imported flyer.
	Keterangan string
	Now        func() time.Time
}

type Report struct {
	Found    int
	Imported int
	Skipped  int
	Failed   map[string]string
}

type Importer struct {
	db    *gorm.DB
	store storage.Store
	opts  Options
	log   *logrus.Logger

	mu       sync.RWMutex
	existing map[string]bool // flyer names already in the table
}

func New(db *gorm.DB, store storage.Store, opts Options, logg *logrus.Logger) *Importer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Importer{db: db, store: store, opts: opts, log: logg}
}

// NameFor turns a file name into a flyer name: "promo_emas-agustus.png"
// becomes "promo emas agustus".
func NameFor(file string) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}

// ListImages returns the top-level files in dir with an image extension,
// sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, allowed := range storage.FlyerImage.Extensions {
			if ext == allowed {
				out = append(out, e.Name())
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

func (im *Importer) preload(ctx context.Context) error {
	var names []string
	if err := im.db.WithContext(ctx).Model(&models.Flyer{}).Pluck("nama", &names).Error; err != nil {
		return fmt.Errorf("load flyer names: %w", err)
	}
	im.existing = make(map[string]bool, len(names))
	for _, n := range names {
		im.existing[strings.ToLower(n)] = true
	}
	return nil
}

// claim marks name as taken and reports whether it was free.
func (im *Importer) claim(name string) bool {
	key := strings.ToLower(name)
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.existing[key] {
		return false
	}
	im.existing[key] = true
	return true
}

// Import processes every image in dir with a pool of workers. Files whose
// flyer name already exists are skipped, so re-running is safe.
func (im *Importer) Import(ctx context.Context, dir string) (*Report, error) {
	files, err := ListImages(dir)
	if err != nil {
		return nil, err
	}
	if err := im.preload(ctx); err != nil {
		return nil, err
	}
	rep := &Report{Found: len(files), Failed: map[string]string{}}
	var repMu sync.Mutex

	fileCh := make(chan string, len(files))
	for _, f := range files {
		fileCh <- f
	}
	close(fileCh)

	var wg sync.WaitGroup
	for i := 0; i < im.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				if ctx.Err() != nil {
					return
				}
				imported, err := im.importFile(ctx, dir, name)
				repMu.Lock()
				switch {
				case err != nil:
					rep.Failed[name] = err.Error()
				case imported:
					rep.Imported++
				default:
					rep.Skipped++
				}
				repMu.Unlock()
			}
		}()
	}
	wg.Wait()
	return rep, ctx.Err()
}

func (im *Importer) importFile(ctx context.Context, dir, file string) (bool, error) {
	entry := im.log.WithField("file", file)
	nama := NameFor(file)
	if nama == "" || !im.claim(nama) {
		entry.Debug("flyer already exists, skipping")
		return false, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, file))
	if err != nil {
		return false, err
	}
	mime, err := storage.Check(file, data, storage.FlyerImage)
	if err != nil {
		return false, err
	}
	thumbData, err := storage.Thumbnail(data)
	if err != nil {
		return false, err
	}
	if im.opts.DryRun {
		entry.WithField("nama", nama).Info("would import flyer")
		return true, nil
	}

	image := storage.UniqueName(file, im.opts.Now())
	thumb := storage.ThumbName(image)
	if err := im.store.Put(ctx, storage.FolderFlyers, image, data, mime); err != nil {
		return false, err
	}
	if err := im.store.Put(ctx, storage.FolderThumbs, thumb, thumbData, "image/jpeg"); err != nil {
		_ = im.store.Delete(ctx, storage.FolderFlyers, image)
		return false, err
	}
	f := models.Flyer{Nama: nama, Keterangan: im.opts.Keterangan, Gambar: image, Thumbnail: thumb}
	if err := im.db.WithContext(ctx).Create(&f).Error; err != nil {
		_ = im.store.Delete(ctx, storage.FolderFlyers, image)
		_ = im.store.Delete(ctx, storage.FolderThumbs, thumb)
		return false, fmt.Errorf("create flyer: %w", err)
	}
	entry.WithFields(logrus.Fields{"id": f.ID, "nama": nama}).Info("flyer imported")
	return true, nil
}
