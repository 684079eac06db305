// Package sweeper reconciles stored upload files with the rows that
// reference them. Files no row points at are orphans (left by a failed
// request or a crash between the file write and the insert); rows pointing at
// a missing file are dangling and only reported.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"websiteemas/models"
	"websiteemas/pkg/storage"
)

// reference says which column holds the names stored in a folder.
type reference struct {
	folder string
	model  any
	column string
}

var references = []reference{
	{storage.FolderFlyers, &models.Flyer{}, "gambar"},
	{storage.FolderThumbs, &models.Flyer{}, "thumbnail"},
	{storage.FolderLaporan, &models.LPJ{}, "bukti_dokumen"},
}

// Folders lists the upload folders the sweeper looks after.
func Folders() []string {
	out := make([]string, len(references))
	for i, r := range references {
		out[i] = r.folder
	}
	return out
}

type Options struct {
	DryRun bool
	// Grace protects files younger than this; a request may still be about
	// to insert the row that references them.
	Grace time.Duration
	Now   func() time.Time
}

// Report is the outcome of one sweep. Entries are "<folder>/<name>".
type Report struct {
	Scanned  int
	Orphans  []string
	Removed  int
	Skipped  int
	Dangling []string
}

type Sweeper struct {
	db    *gorm.DB
	store storage.Store
	opts  Options
	log   *logrus.Logger
}

func New(db *gorm.DB, store storage.Store, opts Options, logg *logrus.Logger) *Sweeper {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Sweeper{db: db, store: store, opts: opts, log: logg}
}

// referenced loads the names stored in r's column.
func (s *Sweeper) referenced(ctx context.Context, r reference) (map[string]bool, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(r.model).
		Where(r.column+" IS NOT NULL AND "+r.column+" <> ''").
		Pluck(r.column, &names).Error
	if err != nil {
		return nil, fmt.Errorf("load %s references: %w", r.folder, err)
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

func (s *Sweeper) isReferenced(ctx context.Context, r reference, name string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(r.model).Where(r.column+" = ?", name).Count(&n).Error
	return n > 0, err
}

// Run sweeps every folder once.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	rep := &Report{}
	for _, r := range references {
		if err := s.sweepFolder(ctx, r, rep); err != nil {
			return rep, err
		}
	}
	sort.Strings(rep.Orphans)
	sort.Strings(rep.Dangling)
	return rep, nil
}

func (s *Sweeper) sweepFolder(ctx context.Context, r reference, rep *Report) error {
	refs, err := s.referenced(ctx, r)
	if err != nil {
		return err
	}
	files, err := s.store.List(ctx, r.folder)
	if err != nil {
		return fmt.Errorf("list %s: %w", r.folder, err)
	}
	present := make(map[string]bool, len(files))
	for _, name := range files {
		present[name] = true
		rep.Scanned++
		if refs[name] {
			continue
		}
		removed, err := s.collect(ctx, r.folder, name)
		if err != nil {
			return err
		}
		if removed {
			rep.Orphans = append(rep.Orphans, r.folder+"/"+name)
			if !s.opts.DryRun {
				rep.Removed++
			}
		} else {
			rep.Skipped++
		}
	}
	for name := range refs {
		if !present[name] {
			rep.Dangling = append(rep.Dangling, r.folder+"/"+name)
			s.log.WithFields(logrus.Fields{"folder": r.folder, "file": name}).Warn("row references a missing file")
		}
	}
	return nil
}

// collect removes one unreferenced file once it is past the grace period.
// It reports false when the file is still too young.
func (s *Sweeper) collect(ctx context.Context, folder, name string) (bool, error) {
	mod, err := s.store.ModTime(ctx, folder, name)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s/%s: %w", folder, name, err)
	}
	if s.opts.Now().Sub(mod) < s.opts.Grace {
		return false, nil
	}
	entry := s.log.WithFields(logrus.Fields{"folder": folder, "file": name, "dryRun": s.opts.DryRun})
	if s.opts.DryRun {
		entry.Info("orphaned upload")
		return true, nil
	}
	if err := s.store.Delete(ctx, folder, name); err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", folder, name, err)
	}
	entry.Info("removed orphaned upload")
	return true, nil
}

// Watch follows the local upload folders. New files are re-checked once the
// grace period passes and removed if still unreferenced; removed files that a
// row still points at are reported. It returns when ctx is done.
func (s *Sweeper) Watch(ctx context.Context, base string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	byDir := map[string]reference{}
	for _, r := range references {
		dir := filepath.Join(base, filepath.FromSlash(r.folder))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		byDir[dir] = r
	}
	s.log.WithField("base", base).Info("watching upload folders")

	type key struct {
		folder string
		name   string
	}
	pending := map[key]time.Time{}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			r, known := byDir[filepath.Dir(ev.Name)]
			name := filepath.Base(ev.Name)
			if !known || storage.IsTemp(name) || name[0] == '.' {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				pending[key{r.folder, name}] = s.opts.Now()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				delete(pending, key{r.folder, name})
				if ref, err := s.isReferenced(ctx, r, name); err == nil && ref {
					s.log.WithFields(logrus.Fields{"folder": r.folder, "file": name}).Warn("referenced upload was removed")
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.WithError(err).Warn("watch error")
		case <-ticker.C:
			now := s.opts.Now()
			for k, seen := range pending {
				if now.Sub(seen) < s.opts.Grace {
					continue
				}
				delete(pending, k)
				s.recheck(ctx, k.folder, k.name)
			}
		}
	}
}

func (s *Sweeper) recheck(ctx context.Context, folder, name string) {
	for _, r := range references {
		if r.folder != folder {
			continue
		}
		ref, err := s.isReferenced(ctx, r, name)
		if err != nil {
			s.log.WithError(err).Warn("reference lookup failed")
			return
		}
		if ref {
			return
		}
		if _, err := s.collect(ctx, folder, name); err != nil {
			s.log.WithError(err).Warn("removing orphaned upload failed")
		}
		return
	}
}
