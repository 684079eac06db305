package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"websiteemas/models"
)

const (
	msgInvalidEventID = "ID event tidak valid"
	msgEventNotFound  = "Event tidak ditemukan"
)

type eventRequest struct {
	NamaEvent       string `json:"nama_event"`
	Lokasi          string `json:"lokasi"`
	TanggalEvent    string `json:"tanggal_event"`
	WaktuEvent      string `json:"waktu_event"`
	PenanggungJawab string `json:"penanggung_jawab"`
	Keterangan      string `json:"keterangan"`
}

func applyEvent(c *gin.Context, req eventRequest, ev *models.Event) bool {
	name := strings.TrimSpace(req.NamaEvent)
	if name == "" || strings.TrimSpace(req.TanggalEvent) == "" {
		respondError(c, http.StatusBadRequest, "Nama event dan tanggal event harus diisi")
		return false
	}
	date, err := models.ParseDate(req.TanggalEvent)
	if err != nil {
		respondInvalid(c, "Format tanggal tidak valid", map[string]string{"tanggal_event": "date"})
		return false
	}
	clock, err := models.NormalizeClock(req.WaktuEvent)
	if err != nil {
		respondInvalid(c, "Format waktu tidak valid", map[string]string{"waktu_event": "time"})
		return false
	}
	ev.NamaEvent = name
	ev.Lokasi = strings.TrimSpace(req.Lokasi)
	ev.TanggalEvent = date
	ev.WaktuEvent = nil
	if clock != "" {
		ev.WaktuEvent = &clock
	}
	ev.PenanggungJawab = strings.TrimSpace(req.PenanggungJawab)
	ev.Keterangan = req.Keterangan
	return true
}

// listEventsHandler accepts ?start=&end= (inclusive dates) for the calendar
// view.
func (s *server) listEventsHandler(c *gin.Context) {
	q := s.db.WithContext(c.Request.Context()).Model(&models.Event{})
	for _, bound := range []struct{ param, op string }{{"start", ">="}, {"end", "<="}} {
		raw := c.Query(bound.param)
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			respondInvalid(c, "Format tanggal tidak valid", map[string]string{bound.param: "date"})
			return
		}
		q = q.Where("tanggal_event "+bound.op+" ?", d)
	}
	var events []models.Event
	if err := q.Order("tanggal_event ASC").Order("waktu_event ASC").Find(&events).Error; err != nil {
		s.respondServerError(c, "listEventsHandler", "Gagal memuat data event", err)
		return
	}
	respondList(c, events)
}

func (s *server) getEventHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidEventID)
	if !ok {
		return
	}
	var ev models.Event
	if !s.findByID(c, &ev, id, msgEventNotFound, "getEventHandler") {
		return
	}
	respondOK(c, "", ev)
}

func (s *server) createEventHandler(c *gin.Context) {
	var req eventRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	var ev models.Event
	if !applyEvent(c, req, &ev) {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Create(&ev).Error; err != nil {
		s.respondServerError(c, "createEventHandler", "Gagal menambahkan event", err)
		return
	}
	respondCreated(c, "Event berhasil ditambahkan", ev)
}

func (s *server) updateEventHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidEventID)
	if !ok {
		return
	}
	var req eventRequest
	if !bindJSON(c, &req, msgInvalidData) {
		return
	}
	var ev models.Event
	if !s.findByID(c, &ev, id, msgEventNotFound, "updateEventHandler") {
		return
	}
	if !applyEvent(c, req, &ev) {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Save(&ev).Error; err != nil {
		s.respondServerError(c, "updateEventHandler", "Gagal mengupdate event", err)
		return
	}
	respondOK(c, "Event berhasil diupdate", ev)
}

func (s *server) deleteEventHandler(c *gin.Context) {
	id, ok := parseID(c, msgInvalidEventID)
	if !ok {
		return
	}
	var ev models.Event
	if !s.findByID(c, &ev, id, msgEventNotFound, "deleteEventHandler") {
		return
	}
	if err := s.db.WithContext(c.Request.Context()).Delete(&ev).Error; err != nil {
		s.respondServerError(c, "deleteEventHandler", "Gagal menghapus event", err)
		return
	}
	respondOK(c, "Event berhasil dihapus", nil)
}
