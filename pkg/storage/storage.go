package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"websiteemas/pkg/config"
)

// Upload folders, relative to the store root.
const (
	FolderFlyers  = "flyers"
	FolderThumbs  = "flyers/thumbs"
	FolderLaporan = "laporan"
)

var (
	ErrTooLarge = errors.New("file too large")
	ErrFileType = errors.New("file type not allowed")
	ErrNotFound = errors.New("file not found")
)

// Store keeps uploaded files addressed by folder and file name.
type Store interface {
	Put(ctx context.Context, folder, name string, data []byte, contentType string) error
	Delete(ctx context.Context, folder, name string) error
	Exists(ctx context.Context, folder, name string) (bool, error)
	// List returns the file names directly inside folder.
	List(ctx context.Context, folder string) ([]string, error)
	// ModTime is when the file was last written; ErrNotFound if missing.
	ModTime(ctx context.Context, folder, name string) (time.Time, error)
	URL(folder, name string) string
}

// New returns the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3(ctx, cfg)
	case "local", "":
		return NewLocal(cfg.UploadBase, cfg.PublicURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Rule constrains one kind of upload.
type Rule struct {
	MaxBytes   int64
	MIMEs      []string
	Extensions []string
	// Message is shown to the user when the type check fails.
	Message string
}

var (
	FlyerImage = Rule{
		MaxBytes:   2 << 20,
		MIMEs:      []string{"image/jpeg", "image/png", "image/gif"},
		Extensions: []string{".jpg", ".jpeg", ".png", ".gif"},
		Message:    "Hanya file gambar (JPEG, PNG, GIF) yang diperbolehkan!",
	}
	LPJDocument = Rule{
		MaxBytes:   5 << 20,
		MIMEs:      []string{"application/pdf"},
		Extensions: []string{".pdf"},
		Message:    "Hanya file PDF yang diperbolehkan!",
	}
)

// SizeMessage is the user-facing text for ErrTooLarge.
func (r Rule) SizeMessage() string {
	return fmt.Sprintf("Ukuran file maksimal %dMB", r.MaxBytes>>20)
}

// Read loads a multipart file after checking its size, extension and sniffed
// content type. It returns the bytes and the detected MIME type.
func Read(fh *multipart.FileHeader, rule Rule) ([]byte, string, error) {
	if fh.Size > rule.MaxBytes {
		return nil, "", ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(f, rule.MaxBytes+1)); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	mime, err := Check(fh.Filename, buf.Bytes(), rule)
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mime, nil
}

// Check applies rule to already loaded file content named name and returns
// the allowed MIME type it matched.
func Check(name string, data []byte, rule Rule) (string, error) {
	if int64(len(data)) > rule.MaxBytes {
		return "", ErrTooLarge
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !contains(rule.Extensions, ext) {
		return "", fmt.Errorf("%w: extension %q", ErrFileType, ext)
	}
	mt := mimetype.Detect(data)
	for _, allowed := range rule.MIMEs {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: detected %s", ErrFileType, mt.String())
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// UniqueName builds <base>-<unix millis>-<random><ext> from the client's file
// name. The base is reduced to [a-zA-Z0-9_-] and capped at 60 characters.
func UniqueName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = strings.Trim(unsafeChars.ReplaceAllString(base, "-"), "-")
	if len(base) > 60 {
		base = base[:60]
	}
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s-%d-%s%s", base, now.UnixMilli(), uuid.NewString()[:8], ext)
}

// SafeName rejects names that could escape their folder.
func SafeName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
