package export

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"websiteemas/models"
)

func TestRABAndLPJWorkbook(t *testing.T) {
	wb, err := NewWorkbook()
	if err != nil {
		t.Fatalf("new workbook: %v", err)
	}
	rab := models.RAB{ID: 1, NamaKegiatan: "Pameran Emas", Anggaran: decimal.NewFromInt(1000000), Realisasi: decimal.NewFromInt(250000), Status: models.RABDisetujui}
	if err := wb.AddRAB([]models.RAB{rab}); err != nil {
		t.Fatalf("add rab: %v", err)
	}
	id := uint(1)
	lpj := models.LPJ{ID: 7, IDRab: &id, RAB: &rab, NamaKegiatan: "Pameran Emas", TotalPengeluaran: decimal.NewFromInt(500000)}
	orphan := models.LPJ{ID: 8, NamaKegiatan: "Tanpa RAB", TotalPengeluaran: decimal.NewFromInt(1)}
	if err := wb.AddLPJ([]models.LPJ{lpj, orphan}); err != nil {
		t.Fatalf("add lpj: %v", err)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != "RAB" || sheets[1] != "LPJ" {
		t.Fatalf("sheets = %v", sheets)
	}
	if v, _ := f.GetCellValue("RAB", "B2"); v != "Pameran Emas" {
		t.Fatalf("RAB!B2 = %q", v)
	}
	if v, _ := f.GetCellValue("RAB", "E2"); v != "750000" {
		t.Fatalf("sisa anggaran = %q", v)
	}
	if v, _ := f.GetCellValue("RAB", "F2"); v != "25" {
		t.Fatalf("persentase = %q", v)
	}
	if v, _ := f.GetCellValue("LPJ", "H2"); v != "50" {
		t.Fatalf("terhadap RAB = %q", v)
	}
	if v, _ := f.GetCellValue("LPJ", "E3"); v != "" {
		t.Fatalf("unlinked LPJ should have no RAB name, got %q", v)
	}
}
