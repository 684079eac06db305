package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"websiteemas/pkg/logging"
	"websiteemas/pkg/storage"
)

// upload is a validated file taken from a multipart form.
type upload struct {
	Filename string
	MIME     string
	Data     []byte
}

// formUpload reads the optional file in field and checks it against rule.
// It returns nil when no file was sent and reports false after answering 400.
func formUpload(c *gin.Context, field string, rule storage.Rule) (*upload, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, true
		}
		respondError(c, http.StatusBadRequest, "Gagal membaca file upload")
		return nil, false
	}
	data, mime, err := storage.Read(fh, rule)
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		respondError(c, http.StatusBadRequest, rule.SizeMessage())
		return nil, false
	case errors.Is(err, storage.ErrFileType):
		respondError(c, http.StatusBadRequest, rule.Message)
		return nil, false
	case err != nil:
		respondError(c, http.StatusBadRequest, "Gagal membaca file upload")
		return nil, false
	}
	return &upload{Filename: fh.Filename, MIME: mime, Data: data}, true
}

// putUpload stores up under a fresh unique name and returns that name.
func (s *server) putUpload(ctx context.Context, folder string, up *upload) (string, error) {
	name := storage.UniqueName(up.Filename, s.now())
	if err := s.store.Put(ctx, folder, name, up.Data, up.MIME); err != nil {
		return "", err
	}
	return name, nil
}

// removeUpload deletes a stored file; failures are only logged.
func (s *server) removeUpload(ctx context.Context, folder, name string) {
	if name == "" {
		return
	}
	if err := s.store.Delete(context.WithoutCancel(ctx), folder, name); err != nil {
		logging.LogError(s.log, "storage", "removeUpload", folder, name, err)
	}
}
