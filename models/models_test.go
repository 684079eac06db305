package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-08-17")
	if err != nil || d.String() != "2025-08-17" {
		t.Fatalf("ParseDate = %v, %v", d, err)
	}
	d, err = ParseDate("2025-08-17T23:30:00+07:00")
	if err != nil || d.String() != "2025-08-17" {
		t.Fatalf("RFC3339 input kept the wrong day: %v, %v", d, err)
	}
	if _, err := ParseDate("17/08/2025"); err == nil {
		t.Fatalf("expected error for DD/MM/YYYY")
	}
	if d, _ := ParseDate("  "); !d.IsZero() {
		t.Fatalf("blank should be zero")
	}
}

func TestDateJSONAndScan(t *testing.T) {
	b, _ := json.Marshal(struct {
		A Date `json:"a"`
		B Date `json:"b"`
	}{A: NewDate(time.Date(2025, 1, 2, 15, 0, 0, 0, time.UTC))})
	if string(b) != `{"a":"2025-01-02","b":null}` {
		t.Fatalf("unexpected json %s", b)
	}
	var d Date
	if err := d.Scan([]byte("2025-03-04 00:00:00")); err != nil || d.String() != "2025-03-04" {
		t.Fatalf("scan bytes: %v %v", d, err)
	}
	if err := d.Scan(nil); err != nil || !d.IsZero() {
		t.Fatalf("scan nil: %v %v", d, err)
	}
	if v, _ := d.Value(); v != nil {
		t.Fatalf("zero date should store NULL, got %v", v)
	}
}

func TestLeadStatusCategory(t *testing.T) {
	cases := map[string]string{
		"Baru":           LeadBaru,
		"NEW":            LeadBaru,
		"Follow up":      LeadProses,
		"Dalam Proses":   LeadProses,
		"Deal":           LeadDeal,
		"closed won":     LeadDeal,
		"Tidak Aktif":    LeadBatal,
		"batal":          LeadBatal,
		"menunggu kabar": LeadLainnya,
		"":               LeadLainnya,
	}
	for in, want := range cases {
		if got := LeadStatusCategory(in); got != want {
			t.Errorf("LeadStatusCategory(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRABDerive(t *testing.T) {
	r := RAB{Anggaran: decimal.NewFromInt(3000000), Realisasi: decimal.NewFromInt(1000000)}
	r.Derive()
	if !r.SisaAnggaran.Equal(decimal.NewFromInt(2000000)) {
		t.Fatalf("sisa = %s", r.SisaAnggaran)
	}
	if !r.PersentaseRealisasi.Equal(decimal.RequireFromString("33.33")) {
		t.Fatalf("persentase = %s", r.PersentaseRealisasi)
	}
	if r.OverBudget() {
		t.Fatalf("not over budget")
	}
	r.Realisasi = decimal.RequireFromString("3000000.01")
	if !r.OverBudget() {
		t.Fatalf("realisasi above anggaran must be over budget")
	}
	if !Percent(decimal.NewFromInt(5), decimal.Zero).IsZero() {
		t.Fatalf("percent of zero budget should be zero")
	}
}

func TestLPJDerive(t *testing.T) {
	id := uint(7)
	l := LPJ{IDRab: &id, TotalPengeluaran: decimal.NewFromInt(250), RAB: &RAB{ID: id, NamaKegiatan: "Pameran", Anggaran: decimal.NewFromInt(1000), Status: RABDisetujui}}
	l.Derive()
	if l.RabNamaKegiatan == nil || *l.RabNamaKegiatan != "Pameran" || !l.PersentaseTerhadapRab.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected derived fields %+v", l)
	}
	l.IDRab, l.RAB = nil, nil
	l.Derive()
	if l.RabNamaKegiatan != nil || l.PersentaseTerhadapRab != nil {
		t.Fatalf("unlinked report must have null rab fields")
	}
}

func TestNormalizeClock(t *testing.T) {
	for in, want := range map[string]string{"09:30": "09:30:00", "23:59:59": "23:59:59", "": ""} {
		got, err := NormalizeClock(in)
		if err != nil || got != want {
			t.Fatalf("NormalizeClock(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := NormalizeClock("25:00"); err == nil {
		t.Fatalf("expected error for 25:00")
	}
}

func TestValidators(t *testing.T) {
	if !ValidKondisi(KondisiPerluPerbaikan) || ValidKondisi("hilang") {
		t.Fatalf("ValidKondisi mismatch")
	}
	if !ValidRABStatus(RABDalamProses) || ValidRABStatus("dalam proses") {
		t.Fatalf("ValidRABStatus must be exact")
	}
	if !ValidRole(RoleAdmin) || ValidRole("superadmin") {
		t.Fatalf("ValidRole mismatch")
	}
}
