package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"websiteemas/models"
	"websiteemas/pkg/export"
	"websiteemas/pkg/logging"
)

const (
	msgInvalidRABID = "ID RAB tidak valid"
	msgRABNotFound  = "Data RAB tidak ditemukan"
	msgOverBudget   = "Realisasi tidak boleh melebihi anggaran"
)

type rabRequest struct {
	NamaKegiatan     string           `json:"nama_kegiatan"`
	Anggaran         *decimal.Decimal `json:"anggaran"`
	Realisasi        *decimal.Decimal `json:"realisasi"`
	TanggalPengajuan string           `json:"tanggal_pengajuan"`
	Status           string           `json:"status" binding:"rabstatus"`
	Keterangan       string           `json:"keterangan"`
}

// applyRAB validates req against rab. On update a missing realisasi keeps
// the stored value. Nothing is written when it reports false.
func (s *server) applyRAB(c *gin.Context, req rabRequest, rab *models.RAB) bool {
	name := strings.TrimSpace(req.NamaKegiatan)
	if name == "" || req.Anggaran == nil {
		respondError(c, http.StatusBadRequest, "Nama kegiatan dan anggaran harus diisi")
		return false
	}
	if req.Anggaran.IsNegative() {
		respondError(c, http.StatusBadRequest, "Anggaran harus berupa angka positif")
		return false
	}
	realisasi := rab.Realisasi
	if req.Realisasi != nil {
		realisasi = *req.Realisasi
	}
	if realisasi.IsNegative() {
		respondError(c, http.StatusBadRequest, "Realisasi harus berupa angka positif")
		return false
	}
	date, err := s.dateOrToday(req.TanggalPengajuan)
	if err != nil {
		respondInvalid(c, "Format tanggal tidak valid", map[string]string{"tanggal_pengajuan": "date"})
		return false
	}
	next := *rab
	next.NamaKegiatan = name
	next.Anggaran = *req.Anggaran
	next.Realisasi = realisasi
	next.TanggalPengajuan = date
	if req.Status != "" {
		next.Status = req.Status
	}
	if next.Status == "" {
		next.Status = models.RABDiajukan
	}
	next.Keterangan = req.Keterangan
	if next.OverBudget() {
		respondError(c, http.StatusBadRequest, msgOverBudget)
		return false
	}
	next.Derive()
	*rab = next
	return true
}

func (s *server) listRABHandler(c *gin.Context) {
	rows, err := s.queryRAB(c)
	if err != nil {
		s.respondServerError(c, "listRABHandler", "Gagal memuat data RAB", err)
		return
	}
	respondList(c, rows)
}

func (s *server) queryRAB(c *gin.Context) ([]models.RAB, error) {
	q := s.db.WithContext(c.Request.Context()).Model(&models.RAB{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	var rows []models.RAB
	err := q.Order("tanggal_pengajuan DESC").Order("id_rab DESC").Find(&rows).Error
	return rows, err
}

func (s *server) getRABHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidRABID)
	if !ok {
		return
	}
	var rab models.RAB
	if !s.findByID(c, &rab, id, msgRABNotFound, "getRABHandler") {
		return
	}
	respondOK(c, "", rab)
}

func (s *server) createRABHandler(c *gin.Context) {
	var req rabRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	var rab models.RAB
	if !s.applyRAB(c, req, &rab) {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&rab).Error; err != nil {
		s.respondServerError(c, "createRABHandler", "Gagal menambahkan RAB", err)
		return
	}
	respondCreated(c, "RAB berhasil ditambahkan", rab)
}

func (s *server) updateRABHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidRABID)
	if !ok {
		return
	}
	var req rabRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	var rab models.RAB
	if !s.findByID(c, &rab, id, msgRABNotFound, "updateRABHandler") {
		return
	}
	if !s.applyRAB(c, req, &rab) {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Save(&rab).Error; err != nil {
		s.respondServerError(c, "updateRABHandler", "Gagal mengupdate RAB", err)
		return
	}
	respondOK(c, "RAB berhasil diupdate", rab)
}

// deleteRABHandler detaches linked LPJ rows before removing the RAB. The
// ON DELETE SET NULL constraint covers rows written concurrently.
func (s *server) deleteRABHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidRABID)
	if !ok {
		return
	}
	var rab models.RAB
	if !s.findByID(c, &rab, id, msgRABNotFound, "deleteRABHandler") {
		return
	}
	var unlinked int64
	err := s.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.LPJ{}).Where("id_rab = ?", id).Update("id_rab", nil)
		if res.Error != nil {
			return res.Error
		}
		unlinked = res.RowsAffected
		return tx.Delete(&models.RAB{}, id).Error
	})
	if err != nil {
		s.respondServerError(c, "deleteRABHandler", "Gagal menghapus RAB", err)
		return
	}
	respondOK(c, "RAB berhasil dihapus", gin.H{"id_rab": id, "lpj_unlinked": unlinked})
}

func (s *server) exportRABHandler(c *gin.Context) {
	rows, err := s.queryRAB(c)
	if err != nil {
		s.respondServerError(c, "exportRABHandler", "Gagal mengekspor RAB", err)
		return
	}
	wb, err := export.NewWorkbook()
	if err != nil {
		s.respondServerError(c, "exportRABHandler", "Gagal mengekspor RAB", err)
		return
	}
	if err := wb.AddRAB(rows); err != nil {
		s.respondServerError(c, "exportRABHandler", "Gagal mengekspor RAB", err)
		return
	}
	var anggaran, realisasi decimal.Decimal
	for _, r := range rows {
		anggaran = anggaran.Add(r.Anggaran)
		realisasi = realisasi.Add(r.Realisasi)
	}
	if err := wb.Summary("Ringkasan", [][2]any{
		{"Jumlah RAB", len(rows)},
		{"Total Anggaran", anggaran.InexactFloat64()},
		{"Total Realisasi", realisasi.InexactFloat64()},
		{"Sisa Anggaran", anggaran.Sub(realisasi).InexactFloat64()},
		{"Persentase Realisasi (%)", models.Percent(realisasi, anggaran).InexactFloat64()},
	}); err != nil {
		s.respondServerError(c, "exportRABHandler", "Gagal mengekspor RAB", err)
		return
	}
	s.sendWorkbook(c, wb, "rab")
}

// sendWorkbook streams wb as an attachment named <prefix>-YYYYMMDD.xlsx.
func (s *server) sendWorkbook(c *gin.Context, wb *export.Workbook, prefix string) {
	name := fmt.Sprintf("%s-%s.xlsx", prefix, s.now().In(s.loc).Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Header("Content-Type", export.ContentType)
	c.Status(http.StatusOK)
	if err := wb.Write(c.Writer); err != nil {
		logging.LogError(s.log, "export", "sendWorkbook", prefix, nil, err)
	}
}
