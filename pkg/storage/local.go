package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const tempPrefix = ".upload-"

// Local stores files under a base directory served at a public URL prefix.
type Local struct {
	Base   string
	Prefix string
}

func NewLocal(base, prefix string) (*Local, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("create upload base %s: %w", base, err)
	}
	return &Local{Base: base, Prefix: strings.TrimRight(prefix, "/")}, nil
}

// Path returns the on-disk path of a stored file.
func (l *Local) Path(folder, name string) string {
	return filepath.Join(l.Base, filepath.FromSlash(folder), name)
}

// Put writes to a temp file in the target folder and renames it into place,
// so readers never see a partial file.
func (l *Local) Put(_ context.Context, folder, name string, data []byte, _ string) error {
	if err := SafeName(name); err != nil {
		return err
	}
	dir := filepath.Join(l.Base, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, filepath.Join(dir, name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Delete removes a file; a missing file is not an error.
func (l *Local) Delete(_ context.Context, folder, name string) error {
	if name == "" {
		return nil
	}
	if err := SafeName(name); err != nil {
		return err
	}
	err := os.Remove(l.Path(folder, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (l *Local) Exists(_ context.Context, folder, name string) (bool, error) {
	if err := SafeName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(l.Path(folder, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l *Local) ModTime(_ context.Context, folder, name string) (time.Time, error) {
	if err := SafeName(name); err != nil {
		return time.Time{}, err
	}
	fi, err := os.Stat(l.Path(folder, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return time.Time{}, ErrNotFound
		}
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

func (l *Local) List(_ context.Context, folder string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Base, filepath.FromSlash(folder)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func (l *Local) URL(folder, name string) string {
	if name == "" {
		return ""
	}
	return l.Prefix + "/" + folder + "/" + name
}

// IsTemp reports whether name is an in-flight upload written by Put.
func IsTemp(name string) bool {
	return strings.HasPrefix(filepath.Base(name), tempPrefix)
}
