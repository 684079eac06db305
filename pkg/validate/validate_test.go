package validate

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"081234567890":     "+6281234567890",
		"+62 812-3456-7890": "+6281234567890",
		"":                 "",
	}
	for in, want := range cases {
		got, err := NormalizePhone(in)
		if err != nil {
			t.Fatalf("NormalizePhone(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := NormalizePhone("12"); !errors.Is(err, ErrInvalidPhone) {
		t.Fatalf("expected ErrInvalidPhone, got %v", err)
	}
}

func TestEmail(t *testing.T) {
	if !Email("budi@example.com") {
		t.Fatal("valid email rejected")
	}
	for _, bad := range []string{"budi", "budi@", "budi@example", "bu di@example.com"} {
		if Email(bad) {
			t.Fatalf("%q accepted", bad)
		}
	}
}

type itemReq struct {
	NamaBarang string `json:"nama_barang" binding:"required"`
	Kondisi    string `json:"kondisi" validate:"kondisi"`
	NoHP       string `json:"no_hp" validate:"idphone"`
	Status     string `json:"status" validate:"rabstatus"`
}

func TestRegisteredRules(t *testing.T) {
	v := validator.New()
	if err := Register(v); err != nil {
		t.Fatalf("register: %v", err)
	}
	ok := itemReq{NamaBarang: "Meja", Kondisi: "Perlu Perbaikan", NoHP: "081234567890", Status: "Selesai"}
	if err := v.Struct(ok); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
	bad := itemReq{Kondisi: "Hilang", NoHP: "abc", Status: "Batal"}
	err := v.Struct(bad)
	fields := Fields(err)
	for _, f := range []string{"kondisi", "no_hp", "status"} {
		if _, found := fields[f]; !found {
			t.Fatalf("expected %s in %v", f, fields)
		}
	}
}
