package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"websiteemas/models"
	"websiteemas/pkg/export"
	"websiteemas/pkg/storage"
)

const (
	msgInvalidLPJID = "ID laporan tidak valid"
	msgLPJNotFound  = "Data laporan tidak ditemukan"
)

// lpjForm is the validated multipart input of create and update.
type lpjForm struct {
	IDRab            *uint
	NamaKegiatan     string
	TotalPengeluaran decimal.Decimal
	TanggalLPJ       models.Date
	Keterangan       string
	Dokumen          *upload
}

func (s *server) readLPJForm(c *gin.Context) (*lpjForm, bool) {
	name := strings.TrimSpace(c.PostForm("nama_kegiatan"))
	total, present, err := formDecimal(c, "total_pengeluaran")
	if name == "" || !present {
		respondError(c, http.StatusBadRequest, "Nama kegiatan dan total pengeluaran harus diisi")
		return nil, false
	}
	if err != nil || total.IsNegative() {
		respondInvalid(c, "Total pengeluaran harus berupa angka positif", map[string]string{"total_pengeluaran": "decimal"})
		return nil, false
	}
	idRab, err := formOptionalID(c, "id_rab")
	if err != nil {
		respondInvalid(c, msgInvalidRABID, map[string]string{"id_rab": "id"})
		return nil, false
	}
	if idRab != nil {
		var n int64
		if err := s.db.WithContext(c.Request.Context()).Model(&models.RAB{}).Where("id_rab = ?", *idRab).Count(&n).Error; err != nil {
			s.respondServerError(c, "readLPJForm", "Gagal menyimpan laporan", err)
			return nil, false
		}
		if n == 0 {
			respondError(c, http.StatusBadRequest, "RAB yang dipilih tidak ditemukan")
			return nil, false
		}
	}
	date, err := s.dateOrToday(c.PostForm("tanggal_lpj"))
	if err != nil {
		respondInvalid(c, "Format tanggal tidak valid", map[string]string{"tanggal_lpj": "date"})
		return nil, false
	}
	doc, ok := formUpload(c, "bukti_dokumen", storage.LPJDocument)
	if !ok {
		return nil, false
	}
	return &lpjForm{
		IDRab:            idRab,
		NamaKegiatan:     name,
		TotalPengeluaran: total,
		TanggalLPJ:       date,
		Keterangan:       c.PostForm("keterangan"),
		Dokumen:          doc,
	}, true
}

func (s *server) withDocumentURL(l *models.LPJ) {
	if l.BuktiDokumen != "" {
		l.BuktiDokumenURL = s.store.URL(storage.FolderLaporan, l.BuktiDokumen)
	}
}

func (s *server) queryLPJ(c *gin.Context) ([]models.LPJ, error) {
	q := s.db.WithContext(c.Request.Context()).Preload("RAB")
	if raw := c.Query("id_rab"); raw != "" {
		q = q.Where("id_rab = ?", raw)
	}
	var rows []models.LPJ
	if err := q.Order("tanggal_lpj DESC").Order("id_lpj DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		s.withDocumentURL(&rows[i])
	}
	return rows, nil
}

// loadLPJ fetches one report with its RAB summary.
func (s *server) loadLPJ(c *gin.Context, id uint, funcName string) (*models.LPJ, bool) {
	var l models.LPJ
	err := s.db.WithContext(c.Request.Context()).Preload("RAB").First(&l, id).Error
	switch {
	case err == nil:
		s.withDocumentURL(&l)
		return &l, true
	case isNotFound(err):
		respondError(c, http.StatusNotFound, msgLPJNotFound)
	default:
		s.respondServerError(c, funcName, "Gagal memuat data laporan", err)
	}
	return nil, false
}

func (s *server) listLPJHandler(c *gin.Context) {
	rows, err := s.queryLPJ(c)
	if err != nil {
		s.respondServerError(c, "listLPJHandler", "Gagal memuat data laporan", err)
		return
	}
	respondList(c, rows)
}

func (s *server) getLPJHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidLPJID)
	if !ok {
		return
	}
	l, ok := s.loadLPJ(c, id, "getLPJHandler")
	if !ok {
		return
	}
	respondOK(c, "", l)
}

func (s *server) createLPJHandler(c *gin.Context) {
	form, ok := s.readLPJForm(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	l := models.LPJ{
		IDRab:            form.IDRab,
		NamaKegiatan:     form.NamaKegiatan,
		TotalPengeluaran: form.TotalPengeluaran,
		TanggalLPJ:       form.TanggalLPJ,
		Keterangan:       form.Keterangan,
	}
	if form.Dokumen != nil {
		name, err := s.putUpload(ctx, storage.FolderLaporan, form.Dokumen)
		if err != nil {
			s.respondServerError(c, "createLPJHandler", "Gagal menyimpan dokumen", err)
			return
		}
		l.BuktiDokumen = name
	}
	if err := s.db.WithContext(ctx).Omit("RAB").Create(&l).Error; err != nil {
		s.removeUpload(ctx, storage.FolderLaporan, l.BuktiDokumen)
		s.respondServerError(c, "createLPJHandler", "Gagal menambahkan laporan", err)
		return
	}
	saved, ok := s.loadLPJ(c, l.ID, "createLPJHandler")
	if !ok {
		return
	}
	respondCreated(c, "Laporan berhasil ditambahkan", saved)
}

// updateLPJHandler replaces the document only when a new file is sent. The
// old file is removed after the row points at the new one.
func (s *server) updateLPJHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidLPJID)
	if !ok {
		return
	}
	current, ok := s.loadLPJ(c, id, "updateLPJHandler")
	if !ok {
		return
	}
	form, ok := s.readLPJForm(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	oldDoc := current.BuktiDokumen
	newDoc := ""
	if form.Dokumen != nil {
		name, err := s.putUpload(ctx, storage.FolderLaporan, form.Dokumen)
		if err != nil {
			s.respondServerError(c, "updateLPJHandler", "Gagal menyimpan dokumen", err)
			return
		}
		newDoc = name
	}
	updates := map[string]any{
		"id_rab":            form.IDRab,
		"nama_kegiatan":     form.NamaKegiatan,
		"total_pengeluaran": form.TotalPengeluaran,
		"tanggal_lpj":       form.TanggalLPJ,
		"keterangan":        form.Keterangan,
	}
	if newDoc != "" {
		updates["bukti_dokumen"] = newDoc
	}
	if err := s.db.WithContext(ctx).Model(&models.LPJ{}).Where("id_lpj = ?", id).Updates(updates).Error; err != nil {
		s.removeUpload(ctx, storage.FolderLaporan, newDoc)
		s.respondServerError(c, "updateLPJHandler", "Gagal mengupdate laporan", err)
		return
	}
	if newDoc != "" {
		s.removeUpload(ctx, storage.FolderLaporan, oldDoc)
	}
	saved, ok := s.loadLPJ(c, id, "updateLPJHandler")
	if !ok {
		return
	}
	respondOK(c, "Laporan berhasil diupdate", saved)
}

func (s *server) deleteLPJHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidLPJID)
	if !ok {
		return
	}
	l, ok := s.loadLPJ(c, id, "deleteLPJHandler")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := s.db.WithContext(ctx).Delete(&models.LPJ{}, id).Error; err != nil {
		s.respondServerError(c, "deleteLPJHandler", "Gagal menghapus laporan", err)
		return
	}
	s.removeUpload(ctx, storage.FolderLaporan, l.BuktiDokumen)
	respondOK(c, "Laporan berhasil dihapus", nil)
}

func (s *server) exportLPJHandler(c *gin.Context) {
	rows, err := s.queryLPJ(c)
	if err != nil {
		s.respondServerError(c, "exportLPJHandler", "Gagal mengekspor laporan", err)
		return
	}
	wb, err := export.NewWorkbook()
	if err == nil {
		err = wb.AddLPJ(rows)
	}
	if err != nil {
		s.respondServerError(c, "exportLPJHandler", "Gagal mengekspor laporan", err)
		return
	}
	total := decimal.Zero
	linked := 0
	for _, r := range rows {
		total = total.Add(r.TotalPengeluaran)
		if r.IDRab != nil {
			linked++
		}
	}
	if err := wb.Summary("Ringkasan", [][2]any{
		{"Jumlah Laporan", len(rows)},
		{"Terhubung ke RAB", linked},
		{"Total Pengeluaran", total.InexactFloat64()},
	}); err != nil {
		s.respondServerError(c, "exportLPJHandler", "Gagal mengekspor laporan", err)
		return
	}
	s.sendWorkbook(c, wb, "laporan")
}
