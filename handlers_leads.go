package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"websiteemas/models"
	"websiteemas/pkg/validate"
)

const (
	msgInvalidLeadID = "ID lead tidak valid"
	msgLeadNotFound  = "Lead tidak ditemukan"
)

type leadRequest struct {
	NamaNasabah  string `json:"nama_nasabah"`
	NoHP         string `json:"no_hp" binding:"idphone"`
	Email        string `json:"email" binding:"email_loose"`
	Produk       string `json:"produk"`
	StatusLeads  string `json:"status_leads"`
	TanggalInput string `json:"tanggal_input"`
	Keterangan   string `json:"keterangan"`
}

// applyLead validates req and copies it onto lead.
func (s *server) applyLead(c *gin.Context, req leadRequest, lead *models.Lead) bool {
	name := strings.TrimSpace(req.NamaNasabah)
	if name == "" {
		respondError(c, http.StatusBadRequest, "Nama nasabah harus diisi")
		return false
	}
	phone, err := validate.NormalizePhone(req.NoHP)
	if err != nil {
		respondInvalid(c, "Nomor HP tidak valid", map[string]string{"no_hp": "idphone"})
		return false
	}
	date, err := s.dateOrToday(req.TanggalInput)
	if err != nil {
		respondInvalid(c, "Format tanggal tidak valid", map[string]string{"tanggal_input": "date"})
		return false
	}
	lead.NamaNasabah = name
	lead.NoHP = phone
	lead.Email = strings.TrimSpace(req.Email)
	lead.Produk = strings.TrimSpace(req.Produk)
	lead.StatusLeads = strings.TrimSpace(req.StatusLeads)
	lead.TanggalInput = date
	lead.Keterangan = req.Keterangan
	lead.StatusKategori = models.LeadStatusCategory(lead.StatusLeads)
	return true
}

// listLeadsHandler supports ?status= (substring) and ?q= (name, email or
// product).
func (s *server) listLeadsHandler(c *gin.Context) {
	q := s.db.WithContext(c.Request.Context()).Model(&models.Lead{})
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("LOWER(status_leads) LIKE ?", "%"+strings.ToLower(status)+"%")
	}
	if term := strings.TrimSpace(c.Query("q")); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(nama_nasabah) LIKE ? OR LOWER(email) LIKE ? OR LOWER(produk) LIKE ?", like, like, like)
	}
	var leads []models.Lead
	if err := q.Order("tanggal_input DESC").Order("id_leads DESC").Find(&leads).Error; err != nil {
		s.respondServerError(c, "listLeadsHandler", "Gagal memuat data leads", err)
		return
	}
	respondList(c, leads)
}

func (s *server) getLeadHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidLeadID)
	if !ok {
		return
	}
	var lead models.Lead
	if !s.findByID(c, &lead, id, msgLeadNotFound, "getLeadHandler") {
		return
	}
	respondOK(c, "", lead)
}

func (s *server) createLeadHandler(c *gin.Context) {
	var req leadRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	var lead models.Lead
	if !s.applyLead(c, req, &lead) {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&lead).Error; err != nil {
		s.respondServerError(c, "createLeadHandler", "Gagal menambahkan lead", err)
		return
	}
	respondCreated(c, "Lead berhasil ditambahkan", lead)
}

func (s *server) updateLeadHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidLeadID)
	if !ok {
		return
	}
	var req leadRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	var lead models.Lead
	if !s.findByID(c, &lead, id, msgLeadNotFound, "updateLeadHandler") {
		return
	}
	if !s.applyLead(c, req, &lead) {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Save(&lead).Error; err != nil {
		s.respondServerError(c, "updateLeadHandler", "Gagal mengupdate lead", err)
		return
	}
	respondOK(c, "Lead berhasil diupdate", lead)
}

func (s *server) deleteLeadHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidLeadID)
	if !ok {
		return
	}
	var lead models.Lead
	if !s.findByID(c, &lead, id, msgLeadNotFound, "deleteLeadHandler") {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Delete(&lead).Error; err != nil {
		s.respondServerError(c, "deleteLeadHandler", "Gagal menghapus lead", err)
		return
	}
	respondOK(c, "Lead berhasil dihapus", nil)
}
