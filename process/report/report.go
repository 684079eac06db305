// Package report builds a month-bounded summary of budgets, expenditure
// reports and gold prices.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"websiteemas/models"
	"websiteemas/pkg/export"
)

const MonthLayout = "2006-01"

// Month is a calendar month in a given location.
type Month struct {
	Start time.Time
	End   time.Time
}

// ParseMonth parses YYYY-MM. An empty string selects the month of now.
func ParseMonth(s string, now time.Time, loc *time.Location) (Month, error) {
	now = now.In(loc)
	y, m := now.Year(), now.Month()
	if s != "" {
		t, err := time.ParseInLocation(MonthLayout, s, loc)
		if err != nil {
			return Month{}, fmt.Errorf("invalid month %q, expected YYYY-MM", s)
		}
		y, m = t.Year(), t.Month()
	}
	start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	return Month{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

func (m Month) String() string { return m.Start.Format(MonthLayout) }

type Report struct {
	Month Month

	RAB              []models.RAB
	RABByStatus      map[string]int
	TotalAnggaran    decimal.Decimal
	TotalRealisasi   decimal.Decimal
	LPJ              []models.LPJ
	TotalPengeluaran decimal.Decimal

	Gold      []models.GoldPrice
	GoldOpen  decimal.Decimal
	GoldClose decimal.Decimal
	GoldHigh  decimal.Decimal
	GoldLow   decimal.Decimal
}

// Build loads every row that falls in month.
func Build(ctx context.Context, db *gorm.DB, month Month) (*Report, error) {
	r := &Report{Month: month, RABByStatus: map[string]int{}}
	first := models.NewDate(month.Start)
	next := models.NewDate(month.End)
	tx := db.WithContext(ctx)

	if err := tx.Where("tanggal_pengajuan >= ? AND tanggal_pengajuan < ?", first, next).
		Order("tanggal_pengajuan, id_rab").Find(&r.RAB).Error; err != nil {
		return nil, fmt.Errorf("load rab: %w", err)
	}
	for _, row := range r.RAB {
		r.RABByStatus[row.Status]++
		r.TotalAnggaran = r.TotalAnggaran.Add(row.Anggaran)
		r.TotalRealisasi = r.TotalRealisasi.Add(row.Realisasi)
	}

	if err := tx.Preload("RAB").Where("tanggal_lpj >= ? AND tanggal_lpj < ?", first, next).
		Order("tanggal_lpj, id_lpj").Find(&r.LPJ).Error; err != nil {
		return nil, fmt.Errorf("load lpj: %w", err)
	}
	for _, row := range r.LPJ {
		r.TotalPengeluaran = r.TotalPengeluaran.Add(row.TotalPengeluaran)
	}

	if err := tx.Where("timestamp >= ? AND timestamp < ?", month.Start.UTC(), month.End.UTC()).
		Order("timestamp").Find(&r.Gold).Error; err != nil {
		return nil, fmt.Errorf("load gold prices: %w", err)
	}
	if n := len(r.Gold); n > 0 {
		r.GoldOpen, r.GoldClose = r.Gold[0].Price, r.Gold[n-1].Price
		r.GoldHigh, r.GoldLow = r.GoldOpen, r.GoldOpen
		for _, g := range r.Gold {
			r.GoldHigh = decimal.Max(r.GoldHigh, g.Price)
			r.GoldLow = decimal.Min(r.GoldLow, g.Price)
		}
	}
	return r, nil
}

// Print writes a plain-text summary; list adds one line per row.
func (r *Report) Print(w io.Writer, list bool) {
	fmt.Fprintf(w, "Report for %s (%s):\n", r.Month, r.Month.Start.Location())
	fmt.Fprintf(w, "  rab=%d anggaran=%s realisasi=%s sisa=%s\n", len(r.RAB),
		r.TotalAnggaran.StringFixed(2), r.TotalRealisasi.StringFixed(2), r.TotalAnggaran.Sub(r.TotalRealisasi).StringFixed(2))
	statuses := make([]string, 0, len(r.RABByStatus))
	for s := range r.RABByStatus {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(w, "    %s=%d\n", s, r.RABByStatus[s])
	}
	fmt.Fprintf(w, "  lpj=%d pengeluaran=%s\n", len(r.LPJ), r.TotalPengeluaran.StringFixed(2))
	if len(r.Gold) == 0 {
		fmt.Fprintln(w, "  gold: no samples")
	} else {
		fmt.Fprintf(w, "  gold samples=%d open=%s close=%s high=%s low=%s\n", len(r.Gold),
			r.GoldOpen.StringFixed(2), r.GoldClose.StringFixed(2), r.GoldHigh.StringFixed(2), r.GoldLow.StringFixed(2))
	}
	if !list {
		return
	}
	for _, row := range r.RAB {
		fmt.Fprintf(w, "rab|%d|%s|%s|%s|%s|%s\n", row.ID, row.TanggalPengajuan, row.NamaKegiatan,
			row.Anggaran.StringFixed(2), row.Realisasi.StringFixed(2), row.Status)
	}
	for _, row := range r.LPJ {
		rab := "-"
		if row.IDRab != nil {
			rab = fmt.Sprint(*row.IDRab)
		}
		fmt.Fprintf(w, "lpj|%d|%s|%s|%s|rab=%s\n", row.ID, row.TanggalLPJ, row.NamaKegiatan,
			row.TotalPengeluaran.StringFixed(2), rab)
	}
}

// Workbook renders the report as xlsx with one sheet per resource.
func (r *Report) Workbook() (*export.Workbook, error) {
	wb, err := export.NewWorkbook()
	if err != nil {
		return nil, err
	}
	if err := wb.AddRAB(r.RAB); err != nil {
		return nil, err
	}
	if err := wb.AddLPJ(r.LPJ); err != nil {
		return nil, err
	}
	if err := wb.AddGold(r.Gold); err != nil {
		return nil, err
	}
	pairs := [][2]any{
		{"Bulan", r.Month.String()},
		{"Jumlah RAB", len(r.RAB)},
		{"Total Anggaran", r.TotalAnggaran.InexactFloat64()},
		{"Total Realisasi", r.TotalRealisasi.InexactFloat64()},
		{"Jumlah LPJ", len(r.LPJ)},
		{"Total Pengeluaran", r.TotalPengeluaran.InexactFloat64()},
		{"Sampel Harga Emas", len(r.Gold)},
	}
	if len(r.Gold) > 0 {
		pairs = append(pairs,
			[2]any{"Harga Emas Awal", r.GoldOpen.InexactFloat64()},
			[2]any{"Harga Emas Akhir", r.GoldClose.InexactFloat64()},
		)
	}
	if err := wb.Summary("Ringkasan "+r.Month.String(), pairs); err != nil {
		return nil, err
	}
	return wb, nil
}
