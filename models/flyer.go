package models

import "time"

// Flyer is a promotional image shown in the dashboard carousel. Gambar and
// Thumbnail are storage keys; the URLs are resolved per request.
type Flyer struct {
	ID         uint      `gorm:"column:id_flyer;primaryKey" json:"id_flyer"`
	Gambar     string    `gorm:"column:gambar;size:255;not null" json:"gambar"`
	Thumbnail  string    `gorm:"column:thumbnail;size:255" json:"thumbnail"`
	Nama       string    `gorm:"column:nama;size:150;not null" json:"nama"`
	Keterangan string    `gorm:"column:keterangan;type:text" json:"keterangan"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	GambarURL    string `gorm:"-" json:"gambar_url"`
	ThumbnailURL string `gorm:"-" json:"thumbnail_url"`
}

func (Flyer) TableName() string { return "flyers" }
