package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"websiteemas/models"
)

const (
	msgInvalidInventarisID = "ID inventaris tidak valid"
	msgInventarisNotFound  = "Data inventaris tidak ditemukan"
)

type inventarisRequest struct {
	NamaBarang    string `json:"nama_barang"`
	Jumlah        *int   `json:"jumlah" binding:"omitempty,min=0"`
	Kondisi       string `json:"kondisi" binding:"omitempty,kondisi"`
	TanggalUpdate string `json:"tanggal_update"`
	Keterangan    string `json:"keterangan"`
}

func (s *server) applyInventaris(c *gin.Context, req inventarisRequest, item *models.Inventaris) bool {
	name := strings.TrimSpace(req.NamaBarang)
	if name == "" || req.Jumlah == nil || req.Kondisi == "" {
		respondError(c, http.StatusBadRequest, "Nama barang, jumlah, dan kondisi harus diisi")
		return false
	}
	date, err := s.dateOrToday(req.TanggalUpdate)
	if err != nil {
		respondInvalid(c, "Format tanggal tidak valid", map[string]string{"tanggal_update": "date"})
		return false
	}
	item.NamaBarang = name
	item.Jumlah = *req.Jumlah
	item.Kondisi = req.Kondisi
	item.TanggalUpdate = date
	item.Keterangan = req.Keterangan
	return true
}

func (s *server) listInventarisHandler(c *gin.Context) {
	q := s.db.WithContext(c.Request.Context()).Model(&models.Inventaris{})
	if k := c.Query("kondisi"); k != "" {
		q = q.Where("kondisi = ?", k)
	}
	var items []models.Inventaris
	if err := q.Order("id_inventaris DESC").Find(&items).Error; err != nil {
		s.respondServerError(c, "listInventarisHandler", "Gagal memuat data inventaris", err)
		return
	}
	respondList(c, items)
}

func (s *server) getInventarisHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidInventarisID)
	if !ok {
		return
	}
	var item models.Inventaris
	if !s.findByID(c, &item, id, msgInventarisNotFound, "getInventarisHandler") {
		return
	}
	respondOK(c, "", item)
}

func (s *server) createInventarisHandler(c *gin.Context) {
	var req inventarisRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	var item models.Inventaris
	if !s.applyInventaris(c, req, &item) {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&item).Error; err != nil {
		s.respondServerError(c, "createInventarisHandler", "Gagal menambahkan data inventaris", err)
		return
	}
	respondCreated(c, "Data inventaris berhasil ditambahkan", item)
}

func (s *server) updateInventarisHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidInventarisID)
	if !ok {
		return
	}
	var req inventarisRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	var item models.Inventaris
	if !s.findByID(c, &item, id, msgInventarisNotFound, "updateInventarisHandler") {
		return
	}
	if !s.applyInventaris(c, req, &item) {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Save(&item).Error; err != nil {
		s.respondServerError(c, "updateInventarisHandler", "Gagal mengupdate data inventaris", err)
		return
	}
	respondOK(c, "Data inventaris berhasil diupdate", item)
}

func (s *server) deleteInventarisHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidInventarisID)
	if !ok {
		return
	}
	var item models.Inventaris
	if !s.findByID(c, &item, id, msgInventarisNotFound, "deleteInventarisHandler") {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Delete(&item).Error; err != nil {
		s.respondServerError(c, "deleteInventarisHandler", "Gagal menghapus data inventaris", err)
		return
	}
	respondOK(c, "Data inventaris berhasil dihapus", nil)
}
