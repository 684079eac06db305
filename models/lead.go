package models

import (
	"strings"

	"gorm.io/gorm"
)

// Lead is a prospective customer tracked by the sales team.
type Lead struct {
	ID           uint   `gorm:"column:id_leads;primaryKey" json:"id_leads"`
	NamaNasabah  string `gorm:"column:nama_nasabah;size:100;not null" json:"nama_nasabah"`
	NoHP         string `gorm:"column:no_hp;size:20" json:"no_hp"`
	Email        string `gorm:"column:email;size:100" json:"email"`
	Produk       string `gorm:"column:produk;size:100" json:"produk"`
	StatusLeads  string `gorm:"column:status_leads;size:50;index" json:"status_leads"`
	TanggalInput Date   `gorm:"column:tanggal_input;index" json:"tanggal_input"`
	Keterangan   string `gorm:"column:keterangan;type:text" json:"keterangan"`
	// StatusKategori is derived from StatusLeads on read.
	StatusKategori string `gorm:"-" json:"status_kategori"`
}

func (Lead) TableName() string { return "leads" }

// Lead status categories, used by the dashboard badges.
const (
	LeadBaru    = "baru"
	LeadProses  = "proses"
	LeadDeal    = "deal"
	LeadBatal   = "batal"
	LeadLainnya = "lainnya"
)

// LeadStatusCategory buckets a free-text lead status by substring, the same
// rules the dashboard uses for its colored badges.
func LeadStatusCategory(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case strings.Contains(s, "baru") || s == "new":
		return LeadBaru
	case containsAny(s, "proses", "process", "follow", "hot"):
		return LeadProses
	case containsAny(s, "deal", "closed", "done"):
		return LeadDeal
	case containsAny(s, "tidak aktif", "inactive", "cold", "batal"):
		return LeadBatal
	default:
		return LeadLainnya
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func (l *Lead) AfterFind(tx *gorm.DB) error {
	l.StatusKategori = LeadStatusCategory(l.StatusLeads)
	return nil
}
