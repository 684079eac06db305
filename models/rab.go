package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RAB (Rencana Anggaran Biaya) is a planned activity budget.
type RAB struct {
	ID               uint            `gorm:"column:id_rab;primaryKey" json:"id_rab"`
	NamaKegiatan     string          `gorm:"column:nama_kegiatan;size:200;not null" json:"nama_kegiatan"`
	Anggaran         decimal.Decimal `gorm:"column:anggaran;type:decimal(15,2);not null" json:"anggaran"`
	Realisasi        decimal.Decimal `gorm:"column:realisasi;type:decimal(15,2);not null;default:0" json:"realisasi"`
	TanggalPengajuan Date            `gorm:"column:tanggal_pengajuan;index" json:"tanggal_pengajuan"`
	Status           string          `gorm:"column:status;size:30;not null;default:Diajukan;index" json:"status"`
	Keterangan       string          `gorm:"column:keterangan;type:text" json:"keterangan"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	SisaAnggaran        decimal.Decimal `gorm:"-" json:"sisa_anggaran"`
	PersentaseRealisasi decimal.Decimal `gorm:"-" json:"persentase_realisasi"`
}

func (RAB) TableName() string { return "rab" }

// RAB workflow states.
const (
	RABDiajukan    = "Diajukan"
	RABDalamProses = "Dalam Proses"
	RABDisetujui   = "Disetujui"
	RABDitolak     = "Ditolak"
	RABSelesai     = "Selesai"
)

var rabStatuses = []string{RABDiajukan, RABDalamProses, RABDisetujui, RABDitolak, RABSelesai}

func ValidRABStatus(s string) bool {
	for _, v := range rabStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// OverBudget reports whether realisasi exceeds anggaran.
func (r *RAB) OverBudget() bool {
	return r.Realisasi.GreaterThan(r.Anggaran)
}

// Derive fills the computed remaining-budget fields.
func (r *RAB) Derive() {
	r.SisaAnggaran = r.Anggaran.Sub(r.Realisasi)
	r.PersentaseRealisasi = Percent(r.Realisasi, r.Anggaran)
}

func (r *RAB) AfterFind(tx *gorm.DB) error {
	r.Derive()
	return nil
}
