package models

// Inventaris is an office inventory item.
type Inventaris struct {
	ID            uint   `gorm:"column:id_inventaris;primaryKey" json:"id_inventaris"`
	NamaBarang    string `gorm:"column:nama_barang;size:150;not null" json:"nama_barang"`
	Jumlah        int    `gorm:"column:jumlah;not null;default:0" json:"jumlah"`
	Kondisi       string `gorm:"column:kondisi;size:30;not null" json:"kondisi"`
	TanggalUpdate Date   `gorm:"column:tanggal_update" json:"tanggal_update"`
	Keterangan    string `gorm:"column:keterangan;type:text" json:"keterangan"`
}

func (Inventaris) TableName() string { return "inventaris" }

// Known item conditions.
const (
	KondisiBaik           = "Baik"
	KondisiRusak          = "Rusak"
	KondisiPerluPerbaikan = "Perlu Perbaikan"
)

var kondisiValues = []string{KondisiBaik, KondisiRusak, KondisiPerluPerbaikan}

// ValidKondisi reports whether k is one of the known conditions.
func ValidKondisi(k string) bool {
	for _, v := range kondisiValues {
		if v == k {
			return true
		}
	}
	return false
}
