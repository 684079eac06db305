package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"websiteemas/models"
)

// ContentType of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Workbook is an xlsx file built one sheet at a time.
type Workbook struct {
	f           *excelize.File
	headerStyle int
	sheets      int
}

func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F2C94C"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	return &Workbook{f: f, headerStyle: style}, nil
}

// sheet writes one table. The first sheet reuses excelize's default
// "Sheet1" so the file never has an empty tab.
func (w *Workbook) sheet(name string, headers []string, widths []float64, rows [][]any) error {
	if w.sheets == 0 {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	w.sheets++

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := w.f.SetCellValue(name, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := w.f.SetCellStyle(name, "A1", last, w.headerStyle); err != nil {
		return err
	}
	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := w.f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
	}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := w.f.SetColWidth(name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workbook) AddRAB(rows []models.RAB) error {
	data := make([][]any, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		r.Derive()
		data = append(data, []any{
			r.ID, r.NamaKegiatan, money(r.Anggaran), money(r.Realisasi), money(r.SisaAnggaran),
			r.PersentaseRealisasi.InexactFloat64(), r.TanggalPengajuan.String(), r.Status, r.Keterangan,
		})
	}
	return w.sheet("RAB",
		[]string{"ID", "Nama Kegiatan", "Anggaran", "Realisasi", "Sisa Anggaran", "Realisasi (%)", "Tanggal Pengajuan", "Status", "Keterangan"},
		[]float64{6, 36, 16, 16, 16, 12, 16, 14, 36},
		data)
}

func (w *Workbook) AddLPJ(rows []models.LPJ) error {
	data := make([][]any, 0, len(rows))
	for i := range rows {
		l := &rows[i]
		l.Derive()
		var rabName, rabStatus string
		var rabAnggaran, pct any
		if l.RabNamaKegiatan != nil {
			rabName, rabStatus = *l.RabNamaKegiatan, *l.RabStatus
			rabAnggaran = money(*l.RabAnggaran)
			pct = l.PersentaseTerhadapRab.InexactFloat64()
		}
		data = append(data, []any{
			l.ID, l.NamaKegiatan, money(l.TotalPengeluaran), l.TanggalLPJ.String(),
			rabName, rabStatus, rabAnggaran, pct, l.BuktiDokumen, l.Keterangan,
		})
	}
	return w.sheet("LPJ",
		[]string{"ID", "Nama Kegiatan", "Total Pengeluaran", "Tanggal LPJ", "RAB", "Status RAB", "Anggaran RAB", "Terhadap RAB (%)", "Bukti Dokumen", "Keterangan"},
		[]float64{6, 36, 18, 14, 36, 14, 16, 14, 30, 36},
		data)
}

func (w *Workbook) AddGold(rows []models.GoldPrice) error {
	data := make([][]any, 0, len(rows))
	for _, g := range rows {
		data = append(data, []any{
			g.Timestamp.UTC().Format("2006-01-02 15:04:05"), g.Currency, g.Unit,
			money(g.Price), money(g.Ask), money(g.Bid), money(g.High), money(g.Low),
			g.ChangePercent.InexactFloat64(), g.Source,
		})
	}
	return w.sheet("Emas",
		[]string{"Waktu (UTC)", "Mata Uang", "Satuan", "Harga", "Ask", "Bid", "High", "Low", "Perubahan (%)", "Sumber"},
		[]float64{20, 10, 8, 18, 18, 18, 18, 18, 14, 12},
		data)
}

// Summary adds a two-column key/value sheet.
func (w *Workbook) Summary(title string, pairs [][2]any) error {
	rows := make([][]any, len(pairs))
	for i, p := range pairs {
		rows[i] = []any{p[0], p[1]}
	}
	return w.sheet(title, []string{"Keterangan", "Nilai"}, []float64{36, 24}, rows)
}

func (w *Workbook) Write(out io.Writer) error {
	defer w.f.Close()
	return w.f.Write(out)
}

// SaveAs writes the workbook to a file path.
func (w *Workbook) SaveAs(path string) error {
	defer w.f.Close()
	return w.f.SaveAs(path)
}

// File exposes the underlying workbook, mostly for tests.
func (w *Workbook) File() *excelize.File { return w.f }

func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
