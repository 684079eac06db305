package models

import (
	"fmt"
	"strings"
	"time"
)

// Event is an agenda item shown on the calendar page.
type Event struct {
	ID              uint    `gorm:"column:id_event;primaryKey" json:"id_event"`
	NamaEvent       string  `gorm:"column:nama_event;size:150;not null" json:"nama_event"`
	Lokasi          string  `gorm:"column:lokasi;size:150" json:"lokasi"`
	TanggalEvent    Date    `gorm:"column:tanggal_event;not null;index" json:"tanggal_event"`
	WaktuEvent      *string `gorm:"column:waktu_event;type:time" json:"waktu_event"`
	PenanggungJawab string  `gorm:"column:penanggung_jawab;size:100" json:"penanggung_jawab"`
	Keterangan      string  `gorm:"column:keterangan;type:text" json:"keterangan"`
}

func (Event) TableName() string { return "event" }

// NormalizeClock accepts HH:MM or HH:MM:SS and returns HH:MM:SS. An empty
// input stays empty.
func NormalizeClock(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q, expected HH:MM", s)
}
