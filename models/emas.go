package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Where a gold price sample came from.
const (
	SourceScheduler = "scheduler"
	SourceManual    = "manual"
)

// GoldPrice is one spot price sample. Timestamp is the provider's quote time
// and is unique, so re-fetching the same quote inserts nothing.
type GoldPrice struct {
	ID            uint            `gorm:"column:id_emas;primaryKey" json:"id_emas"`
	Timestamp     time.Time       `gorm:"column:timestamp;not null;uniqueIndex" json:"timestamp"`
	Currency      string          `gorm:"column:currency;size:10;not null;default:IDR" json:"currency"`
	Metal         string          `gorm:"column:metal;size:20;not null;default:gold" json:"metal"`
	Unit          string          `gorm:"column:unit;size:20" json:"unit"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(20,4);not null" json:"price"`
	Ask           decimal.Decimal `gorm:"column:ask;type:decimal(20,4)" json:"ask"`
	Bid           decimal.Decimal `gorm:"column:bid;type:decimal(20,4)" json:"bid"`
	High          decimal.Decimal `gorm:"column:high;type:decimal(20,4)" json:"high"`
	Low           decimal.Decimal `gorm:"column:low;type:decimal(20,4)" json:"low"`
	ChangeValue   decimal.Decimal `gorm:"column:change_value;type:decimal(20,4)" json:"change_value"`
	ChangePercent decimal.Decimal `gorm:"column:change_percent;type:decimal(10,4)" json:"change_percent"`
	Source        string          `gorm:"column:source;size:20;not null;default:scheduler;index:idx_emas_source_created,priority:1" json:"source"`
	CreatedAt     time.Time       `gorm:"index:idx_emas_source_created,priority:2" json:"created_at"`
}

func (GoldPrice) TableName() string { return "emas" }

// GoldRefreshQuota counts manual refreshes per calendar month (period is
// YYYY-MM in the business timezone).
type GoldRefreshQuota struct {
	Period    string    `gorm:"column:period;primaryKey;size:7" json:"period"`
	Used      int       `gorm:"column:used;not null;default:0" json:"used"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GoldRefreshQuota) TableName() string { return "emas_refresh_quota" }
