package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LPJ (Laporan Pertanggungjawaban) is an expenditure report, optionally tied
// to the RAB it accounts for. BuktiDokumen holds the stored PDF key.
type LPJ struct {
	ID               uint            `gorm:"column:id_lpj;primaryKey" json:"id_lpj"`
	IDRab            *uint           `gorm:"column:id_rab;index" json:"id_rab"`
	RAB              *RAB            `gorm:"foreignKey:IDRab;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	NamaKegiatan     string          `gorm:"column:nama_kegiatan;size:200;not null" json:"nama_kegiatan"`
	TotalPengeluaran decimal.Decimal `gorm:"column:total_pengeluaran;type:decimal(15,2);not null" json:"total_pengeluaran"`
	TanggalLPJ       Date            `gorm:"column:tanggal_lpj;index" json:"tanggal_lpj"`
	BuktiDokumen     string          `gorm:"column:bukti_dokumen;size:255" json:"bukti_dokumen"`
	Keterangan       string          `gorm:"column:keterangan;type:text" json:"keterangan"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	BuktiDokumenURL       string           `gorm:"-" json:"bukti_dokumen_url,omitempty"`
	RabNamaKegiatan       *string          `gorm:"-" json:"rab_nama_kegiatan"`
	RabAnggaran           *decimal.Decimal `gorm:"-" json:"rab_anggaran"`
	RabStatus             *string          `gorm:"-" json:"rab_status"`
	PersentaseTerhadapRab *decimal.Decimal `gorm:"-" json:"persentase_terhadap_rab"`
}

func (LPJ) TableName() string { return "lpj" }

// Derive copies the linked RAB summary onto the report. It expects RAB to be
// preloaded; without it the rab_* fields stay null.
func (l *LPJ) Derive() {
	l.RabNamaKegiatan, l.RabAnggaran, l.RabStatus, l.PersentaseTerhadapRab = nil, nil, nil, nil
	if l.RAB == nil || l.IDRab == nil {
		return
	}
	nama, status, anggaran := l.RAB.NamaKegiatan, l.RAB.Status, l.RAB.Anggaran
	pct := Percent(l.TotalPengeluaran, anggaran)
	l.RabNamaKegiatan = &nama
	l.RabAnggaran = &anggaran
	l.RabStatus = &status
	l.PersentaseTerhadapRab = &pct
}

func (l *LPJ) AfterFind(tx *gorm.DB) error {
	l.Derive()
	return nil
}
