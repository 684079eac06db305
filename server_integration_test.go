package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
	"websiteemas/pkg/export"
	"websiteemas/pkg/storage"
)

// setupIntegrationServer runs against the database configured in the
// environment (DB_DRIVER, DB_DSN or DB_HOST/...). Opt-in with DB_DSN_TEST=1.
func setupIntegrationServer(t *testing.T) http.Handler {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	gin.SetMode(gin.TestMode)
	cfg, err := config.LoadTool()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Session.Secret = "integration-secret"
	cfg.Session.MaxAge = time.Hour
	cfg.Gold.ManualLimit = 10
	logg := logrus.New()
	logg.SetOutput(io.Discard)

	db, err := openDB(cfg, logg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { closeDB(db) })
	if err := migrateAndSeed(db, logg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := storage.NewLocal(t.TempDir(), "/public/uploads")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	srv, err := newServer(cfg, logg, db, store, nil, &stubSource{base: time.Now().UTC()}, time.Now)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv.newRouter()
}

func TestFullFlow(t *testing.T) {
	r := setupIntegrationServer(t)

	// 1. Login as the seeded admin
	loginBody, _ := json.Marshal(map[string]string{"email": "admin@websiteemas.com", "password": database.DefaultPassword})
	resp := performRequest(r, http.MethodPost, "/api/auth/login", bytes.NewBuffer(loginBody), "", "application/json")
	if resp.Code != 200 {
		t.Fatalf("login failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var loginResp map[string]any
	_ = json.Unmarshal(resp.Body.Bytes(), &loginResp)
	token, _ := loginResp["token"].(string)
	if token == "" {
		t.Fatalf("empty token in login response: %+v", loginResp)
	}

	// 2. Create RAB
	rabBody, _ := json.Marshal(map[string]any{"nama_kegiatan": "Integrasi", "anggaran": "1500000.50", "realisasi": 0})
	resp = performRequest(r, http.MethodPost, "/api/rab", bytes.NewBuffer(rabBody), token, "application/json")
	if resp.Code != http.StatusCreated {
		t.Fatalf("create rab failed status=%d body=%s", resp.Code, resp.Body.String())
	}
	var rabResp struct {
		Data struct {
			ID uint `json:"id_rab"`
		} `json:"data"`
	}
	_ = json.Unmarshal(resp.Body.Bytes(), &rabResp)

	// 3. Create LPJ with a PDF attached
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	_ = mw.WriteField("nama_kegiatan", "Integrasi")
	_ = mw.WriteField("total_pengeluaran", "750000")
	_ = mw.WriteField("id_rab", fmt.Sprint(rabResp.Data.ID))
	w, _ := mw.CreateFormFile("bukti_dokumen", "bukti.pdf")
	_, _ = w.Write([]byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"))
	_ = mw.Close()
	resp = performRequest(r, http.MethodPost, "/api/laporan", buf, token, mw.FormDataContentType())
	if resp.Code != http.StatusCreated {
		t.Fatalf("create lpj failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 4. Export both as xlsx
	for _, path := range []string{"/api/rab/export", "/api/laporan/export"} {
		resp = performRequest(r, http.MethodGet, path, nil, token, "")
		if resp.Code != 200 || resp.Header().Get("Content-Type") != export.ContentType {
			t.Fatalf("export %s failed status=%d type=%s", path, resp.Code, resp.Header().Get("Content-Type"))
		}
	}

	// 5. Delete the RAB; the LPJ stays
	resp = performRequest(r, http.MethodDelete, fmt.Sprintf("/api/rab/%d", rabResp.Data.ID), nil, token, "")
	if resp.Code != 200 {
		t.Fatalf("delete rab failed status=%d body=%s", resp.Code, resp.Body.String())
	}

	// 6. Unauthorized access to protected endpoint should be 401
	unauth := performRequest(r, http.MethodGet, "/api/laporan", nil, "", "")
	if unauth.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unauthorized list laporan got %d", unauth.Code)
	}
}

func TestMigrateCommand(t *testing.T) {
	if os.Getenv("DB_DSN_TEST") != "1" {
		t.Skip("integration tests are disabled; set DB_DSN_TEST=1 to enable")
	}
	cfg, err := config.LoadTool()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	logg := logrus.New()
	db, err := openDB(cfg, logg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer closeDB(db)
	if err := migrateAndSeed(db, logg); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}
