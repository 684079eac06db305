package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"websiteemas/models"
	"websiteemas/pkg/storage"
)

const (
	msgInvalidFlyerID = "ID flyer tidak valid"
	msgFlyerNotFound  = "Flyer tidak ditemukan"
)

func (s *server) withFlyerURLs(f *models.Flyer) {
	if f.Gambar != "" {
		f.GambarURL = s.store.URL(storage.FolderFlyers, f.Gambar)
	}
	if f.Thumbnail != "" {
		f.ThumbnailURL = s.store.URL(storage.FolderThumbs, f.Thumbnail)
	}
}

// storeFlyerImage saves the image and its carousel thumbnail. The thumbnail
// doubles as the check that the bytes really decode as an image.
func (s *server) storeFlyerImage(c *gin.Context, up *upload) (image, thumb string, ok bool) {
	ctx := c.Request.Context()
	thumbData, err := storage.Thumbnail(up.Data)
	if err != nil {
		respondError(c, http.StatusBadRequest, storage.FlyerImage.Message)
		return "", "", false
	}
	image, err = s.putUpload(ctx, storage.FolderFlyers, up)
	if err != nil {
		s.respondServerError(c, "storeFlyerImage", "Gagal menyimpan gambar", err)
		return "", "", false
	}
	thumb = storage.ThumbName(image)
	if err := s.store.Put(ctx, storage.FolderThumbs, thumb, thumbData, "image/jpeg"); err != nil {
		s.removeUpload(ctx, storage.FolderFlyers, image)
		s.respondServerError(c, "storeFlyerImage", "Gagal menyimpan gambar", err)
		return "", "", false
	}
	return image, thumb, true
}

func (s *server) removeFlyerFiles(ctx context.Context, image, thumb string) {
	s.removeUpload(ctx, storage.FolderFlyers, image)
	s.removeUpload(ctx, storage.FolderThumbs, thumb)
}

func (s *server) listFlyersHandler(c *gin.Context) {
	var flyers []models.Flyer
	if err := s.db.WithContext(c.Request.Context()).Order("created_at DESC").Order("id_flyer DESC").Find(&flyers).Error; err != nil {
		s.respondServerError(c, "listFlyersHandler", "Gagal memuat data flyers", err)
		return
	}
	for i := range flyers {
		s.withFlyerURLs(&flyers[i])
	}
	respondList(c, flyers)
}

func (s *server) getFlyerHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidFlyerID)
	if !ok {
		return
	}
	var f models.Flyer
	if !s.findByID(c, &f, id, msgFlyerNotFound, "getFlyerHandler") {
		return
	}
	s.withFlyerURLs(&f)
	respondOK(c, "", f)
}

func (s *server) createFlyerHandler(c *gin.Context) {
	nama := strings.TrimSpace(c.PostForm("nama"))
	img, ok := formUpload(c, "gambar", storage.FlyerImage)
	if !ok {
		return
	}
	if nama == "" || img == nil {
		respondError(c, http.StatusBadRequest, "Nama dan gambar harus diisi")
		return
	}
	image, thumb, ok := s.storeFlyerImage(c, img)
	if !ok {
		return
	}
	f := models.Flyer{Nama: nama, Keterangan: c.PostForm("keterangan"), Gambar: image, Thumbnail: thumb}
	ctx := c.Request.Context()
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		s.removeFlyerFiles(ctx, image, thumb)
		s.respondServerError(c, "createFlyerHandler", "Gagal menambahkan flyer", err)
		return
	}
	s.withFlyerURLs(&f)
	respondCreated(c, "Flyer berhasil ditambahkan", f)
}

func (s *server) updateFlyerHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidFlyerID)
	if !ok {
		return
	}
	var f models.Flyer
	if !s.findByID(c, &f, id, msgFlyerNotFound, "updateFlyerHandler") {
		return
	}
	nama := strings.TrimSpace(c.PostForm("nama"))
	if nama == "" {
		respondError(c, http.StatusBadRequest, "Nama harus diisi")
		return
	}
	img, ok := formUpload(c, "gambar", storage.FlyerImage)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	oldImage, oldThumb := f.Gambar, f.Thumbnail
	updates := map[string]any{"nama": nama, "keterangan": c.PostForm("keterangan")}
	var image, thumb string
	if img != nil {
		if image, thumb, ok = s.storeFlyerImage(c, img); !ok {
			return
		}
		updates["gambar"] = image
		updates["thumbnail"] = thumb
	}
	if err := s.db.WithContext(ctx).Model(&f).Updates(updates).Error; err != nil {
		s.removeFlyerFiles(ctx, image, thumb)
		s.respondServerError(c, "updateFlyerHandler", "Gagal mengupdate flyer", err)
		return
	}
	if img != nil {
		s.removeFlyerFiles(ctx, oldImage, oldThumb)
	}
	if err := s.db.WithContext(ctx).First(&f, id).Error; err != nil {
		s.respondServerError(c, "updateFlyerHandler", "Gagal mengupdate flyer", err)
		return
	}
	s.withFlyerURLs(&f)
	respondOK(c, "Flyer berhasil diupdate", f)
}

func (s *server) deleteFlyerHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidFlyerID)
	if !ok {
		return
	}
	var f models.Flyer
	if !s.findByID(c, &f, id, msgFlyerNotFound, "deleteFlyerHandler") {
		return
	}
	ctx := c.Request.Context()
	if err := s.db.WithContext(ctx).Delete(&models.Flyer{}, id).Error; err != nil {
		s.respondServerError(c, "deleteFlyerHandler", "Gagal menghapus flyer", err)
		return
	}
	s.removeFlyerFiles(ctx, f.Gambar, f.Thumbnail)
	respondOK(c, "Flyer berhasil dihapus", nil)
}
