package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"websiteemas/models"
	"websiteemas/pkg/database"
	"websiteemas/pkg/goldprice"
	"websiteemas/pkg/storage"
)

var pdfDocument = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func multipartBody(t *testing.T, fields map[string]string, fileField, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(data)
	}
	_ = mw.Close()
	return body, mw.FormDataContentType()
}

func (e *testEnv) uploadExists(t *testing.T, folder, name string) bool {
	t.Helper()
	if name == "" {
		t.Fatalf("empty upload name in %s", folder)
	}
	_, err := os.Stat(filepath.Join(e.srv.cfg.Storage.UploadBase, filepath.FromSlash(folder), name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("stat %s/%s: %v", folder, name, err)
	}
	return err == nil
}

func listData(t *testing.T, resp interface{ Bytes() []byte }) []map[string]any {
	t.Helper()
	var out struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Bytes(), &out); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	return out.Data
}

func TestEventCRUDAndRange(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "user@websiteemas.com")

	resp := e.do(t, http.MethodPost, "/api/event", map[string]any{"nama_event": "Tanpa tanggal"}, token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing tanggal_event: status=%d", resp.Code)
	}
	resp = e.do(t, http.MethodPost, "/api/event", map[string]any{"nama_event": "Jam rusak", "tanggal_event": "2024-05-02", "waktu_event": "25:99"}, token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("bad waktu_event: status=%d", resp.Code)
	}

	var ids []uint
	for _, day := range []string{"2024-04-30", "2024-05-01", "2024-05-15", "2024-05-31", "2024-06-01"} {
		resp := e.do(t, http.MethodPost, "/api/event", map[string]any{
			"nama_event": "Expo " + day, "lokasi": "Jakarta", "tanggal_event": day, "waktu_event": "09:30",
		}, token)
		if resp.Code != http.StatusCreated {
			t.Fatalf("create event %s: status=%d body=%s", day, resp.Code, resp.Body.String())
		}
		data := dataField(t, resp)
		if data["waktu_event"] != "09:30:00" || data["tanggal_event"] != day {
			t.Fatalf("unexpected event %s", resp.Body.String())
		}
		ids = append(ids, uint(data["id_event"].(float64)))
	}

	resp = e.do(t, http.MethodGet, "/api/event?start=2024-05-01&end=2024-05-31", nil, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("range: status=%d", resp.Code)
	}
	got := listData(t, resp.Body)
	if len(got) != 3 || got[0]["tanggal_event"] != "2024-05-01" || got[2]["tanggal_event"] != "2024-05-31" {
		t.Fatalf("range should include both ends: %s", resp.Body.String())
	}
	if resp := e.do(t, http.MethodGet, "/api/event?start=kemarin", nil, token); resp.Code != http.StatusBadRequest {
		t.Fatalf("bad range date: status=%d", resp.Code)
	}

	resp = e.do(t, http.MethodPut, "/api/event/"+itoa(ids[2]), map[string]any{
		"nama_event": "Expo diundur", "tanggal_event": "2024-05-20", "waktu_event": "14:05:30",
	}, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("update event: status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = e.do(t, http.MethodGet, "/api/event/"+itoa(ids[2]), nil, token)
	data := dataField(t, resp)
	if data["nama_event"] != "Expo diundur" || data["tanggal_event"] != "2024-05-20" || data["waktu_event"] != "14:05:30" {
		t.Fatalf("update not stored: %s", resp.Body.String())
	}

	if resp := e.do(t, http.MethodDelete, "/api/event/"+itoa(ids[2]), nil, token); resp.Code != http.StatusOK {
		t.Fatalf("delete event: status=%d", resp.Code)
	}
	if resp := e.do(t, http.MethodGet, "/api/event/"+itoa(ids[2]), nil, token); resp.Code != http.StatusNotFound {
		t.Fatalf("deleted event still readable: status=%d", resp.Code)
	}
}

func TestInventarisValidation(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "user@websiteemas.com")

	bad := []map[string]any{
		{"jumlah": 1, "kondisi": models.KondisiBaik},
		{"nama_barang": "Kursi", "kondisi": models.KondisiBaik},
		{"nama_barang": "Kursi", "jumlah": 1},
		{"nama_barang": "Kursi", "jumlah": 1, "kondisi": "Hilang"},
		{"nama_barang": "Kursi", "jumlah": -1, "kondisi": models.KondisiBaik},
	}
	for i, body := range bad {
		if resp := e.do(t, http.MethodPost, "/api/inventaris", body, token); resp.Code != http.StatusBadRequest {
			t.Fatalf("case %d: status=%d body=%s", i, resp.Code, resp.Body.String())
		}
	}
	var n int64
	e.db.Model(&models.Inventaris{}).Count(&n)
	if n != 0 {
		t.Fatalf("rejected items were stored: %d", n)
	}

	resp := e.do(t, http.MethodPost, "/api/inventaris", map[string]any{
		"nama_barang": "Brankas", "jumlah": 0, "kondisi": models.KondisiPerluPerbaikan, "tanggal_update": "2024-05-01",
	}, token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("zero jumlah is valid: status=%d body=%s", resp.Code, resp.Body.String())
	}
	id := uint(dataField(t, resp)["id_inventaris"].(float64))

	resp = e.do(t, http.MethodPut, "/api/inventaris/"+itoa(id), map[string]any{
		"nama_barang": "Brankas", "jumlah": 2, "kondisi": models.KondisiBaik,
	}, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("update: status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = e.do(t, http.MethodGet, "/api/inventaris?kondisi="+models.KondisiBaik, nil, token)
	items := listData(t, resp.Body)
	if len(items) != 1 || items[0]["jumlah"] != float64(2) {
		t.Fatalf("kondisi filter: %s", resp.Body.String())
	}
	if resp := e.do(t, http.MethodDelete, "/api/inventaris/"+itoa(id), nil, token); resp.Code != http.StatusOK {
		t.Fatalf("delete: status=%d", resp.Code)
	}
}

func TestLeadUpdateAndDelete(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "user@websiteemas.com")

	resp := e.do(t, http.MethodPost, "/api/leads", map[string]any{"nama_nasabah": "Rina", "no_hp": "081234567890", "status_leads": "Baru"}, token)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create lead: status=%d body=%s", resp.Code, resp.Body.String())
	}
	id := uint(dataField(t, resp)["id_leads"].(float64))

	resp = e.do(t, http.MethodPut, "/api/leads/"+itoa(id), map[string]any{"nama_nasabah": "Rina", "no_hp": "12ab", "status_leads": "Deal"}, token)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("invalid phone: status=%d", resp.Code)
	}

	resp = e.do(t, http.MethodPut, "/api/leads/"+itoa(id), map[string]any{
		"nama_nasabah": "Rina S", "no_hp": "+62 812 1111 2222", "status_leads": "Deal",
	}, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("update lead: status=%d body=%s", resp.Code, resp.Body.String())
	}
	resp = e.do(t, http.MethodGet, "/api/leads/"+itoa(id), nil, token)
	lead := dataField(t, resp)
	if lead["no_hp"] != "+6281211112222" || lead["nama_nasabah"] != "Rina S" || lead["status_kategori"] != models.LeadDeal {
		t.Fatalf("unexpected lead %s", resp.Body.String())
	}

	if resp := e.do(t, http.MethodDelete, "/api/leads/"+itoa(id), nil, token); resp.Code != http.StatusOK {
		t.Fatalf("delete lead: status=%d", resp.Code)
	}
	if resp := e.do(t, http.MethodGet, "/api/leads/"+itoa(id), nil, token); resp.Code != http.StatusNotFound {
		t.Fatalf("deleted lead still readable: status=%d", resp.Code)
	}
}

func TestFlyerReplaceAndDeleteRemoveFiles(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "user@websiteemas.com")

	body, ct := multipartBody(t, map[string]string{"nama": "Promo"}, "gambar", "promo.png", pngImage(t))
	resp := performRequest(e.router, http.MethodPost, "/api/flyers", body, token, ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create flyer: status=%d body=%s", resp.Code, resp.Body.String())
	}
	data := dataField(t, resp)
	id := uint(data["id_flyer"].(float64))
	oldImage, oldThumb := data["gambar"].(string), data["thumbnail"].(string)
	if !e.uploadExists(t, storage.FolderFlyers, oldImage) || !e.uploadExists(t, storage.FolderThumbs, oldThumb) {
		t.Fatalf("flyer files missing after create")
	}

	// renaming without a new image keeps the files
	body, ct = multipartBody(t, map[string]string{"nama": "Promo Baru"}, "", "", nil)
	resp = performRequest(e.router, http.MethodPut, "/api/flyers/"+itoa(id), body, token, ct)
	if resp.Code != http.StatusOK || !e.uploadExists(t, storage.FolderFlyers, oldImage) {
		t.Fatalf("rename: status=%d body=%s", resp.Code, resp.Body.String())
	}

	body, ct = multipartBody(t, map[string]string{"nama": "Promo Baru"}, "gambar", "ganti.png", pngImage(t))
	resp = performRequest(e.router, http.MethodPut, "/api/flyers/"+itoa(id), body, token, ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("replace image: status=%d body=%s", resp.Code, resp.Body.String())
	}
	data = dataField(t, resp)
	newImage, newThumb := data["gambar"].(string), data["thumbnail"].(string)
	if newImage == oldImage {
		t.Fatalf("image name was reused")
	}
	if e.uploadExists(t, storage.FolderFlyers, oldImage) || e.uploadExists(t, storage.FolderThumbs, oldThumb) {
		t.Fatalf("old flyer files left behind")
	}
	if !e.uploadExists(t, storage.FolderFlyers, newImage) || !e.uploadExists(t, storage.FolderThumbs, newThumb) {
		t.Fatalf("new flyer files missing")
	}

	if resp := e.do(t, http.MethodDelete, "/api/flyers/"+itoa(id), nil, token); resp.Code != http.StatusOK {
		t.Fatalf("delete flyer: status=%d", resp.Code)
	}
	if e.uploadExists(t, storage.FolderFlyers, newImage) || e.uploadExists(t, storage.FolderThumbs, newThumb) {
		t.Fatalf("flyer files left after delete")
	}
}

func TestLPJReplaceAndDeleteRemoveFiles(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "user@websiteemas.com")
	fields := map[string]string{"nama_kegiatan": "Rapat", "total_pengeluaran": "150000", "tanggal_lpj": "2024-05-10"}

	body, ct := multipartBody(t, fields, "bukti_dokumen", "bukti.pdf", pdfDocument)
	resp := performRequest(e.router, http.MethodPost, "/api/laporan", body, token, ct)
	if resp.Code != http.StatusCreated {
		t.Fatalf("create lpj: status=%d body=%s", resp.Code, resp.Body.String())
	}
	data := dataField(t, resp)
	id := uint(data["id_lpj"].(float64))
	oldDoc := data["bukti_dokumen"].(string)
	if !e.uploadExists(t, storage.FolderLaporan, oldDoc) {
		t.Fatalf("document missing after create")
	}

	body, ct = multipartBody(t, fields, "bukti_dokumen", "bukti-revisi.pdf", pdfDocument)
	resp = performRequest(e.router, http.MethodPut, "/api/laporan/"+itoa(id), body, token, ct)
	if resp.Code != http.StatusOK {
		t.Fatalf("replace document: status=%d body=%s", resp.Code, resp.Body.String())
	}
	var stored models.LPJ
	if err := e.db.First(&stored, id).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.BuktiDokumen == oldDoc || e.uploadExists(t, storage.FolderLaporan, oldDoc) {
		t.Fatalf("old document was not replaced")
	}
	if !e.uploadExists(t, storage.FolderLaporan, stored.BuktiDokumen) {
		t.Fatalf("new document missing")
	}

	if resp := e.do(t, http.MethodDelete, "/api/laporan/"+itoa(id), nil, token); resp.Code != http.StatusOK {
		t.Fatalf("delete lpj: status=%d", resp.Code)
	}
	if e.uploadExists(t, storage.FolderLaporan, stored.BuktiDokumen) {
		t.Fatalf("document left after delete")
	}
}

func TestConcurrentManualFetchesRespectLimit(t *testing.T) {
	e := newTestEnv(t)
	token := e.login(t, "user@websiteemas.com")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
		bad   []string
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := performRequest(e.router, http.MethodPost, "/api/emas/fetch", nil, token, "")
			var body struct {
				Error any `json:"error"`
			}
			_ = json.Unmarshal(resp.Body.Bytes(), &body)
			mu.Lock()
			defer mu.Unlock()
			codes[resp.Code]++
			switch {
			case resp.Code == http.StatusOK:
			case resp.Code == http.StatusTooManyRequests && body.Error == goldprice.CodeManualLimit:
			case resp.Code == http.StatusServiceUnavailable && body.Error == goldprice.CodeQuotaBusy:
			default:
				bad = append(bad, resp.Body.String())
			}
		}()
	}
	wg.Wait()

	if len(bad) > 0 {
		t.Fatalf("unexpected responses: %v", bad)
	}
	var n int64
	e.db.Model(&models.GoldPrice{}).Where("source = ?", models.SourceManual).Count(&n)
	if n > 10 || int(n) != codes[http.StatusOK] {
		t.Fatalf("stored %d manual rows, %d requests succeeded, limit 10", n, codes[http.StatusOK])
	}
}

func TestPasswordChangeRevokesOtherSessions(t *testing.T) {
	e := newTestEnv(t)
	current := e.login(t, "user@websiteemas.com")
	other := e.login(t, "user@websiteemas.com")

	resp := e.do(t, http.MethodPost, "/api/auth/change-password", map[string]string{
		"old_password": database.DefaultPassword, "new_password": "rahasiabaru",
	}, current)
	if resp.Code != http.StatusOK {
		t.Fatalf("change password: status=%d body=%s", resp.Code, resp.Body.String())
	}
	if resp := e.do(t, http.MethodGet, "/api/auth/me", nil, current); resp.Code != http.StatusOK {
		t.Fatalf("caller's session should survive: status=%d", resp.Code)
	}
	if resp := e.do(t, http.MethodGet, "/api/auth/me", nil, other); resp.Code != http.StatusUnauthorized {
		t.Fatalf("other session survived the password change: status=%d", resp.Code)
	}

	// an admin reset logs the user out everywhere
	admin := e.login(t, "admin@websiteemas.com")
	var user models.User
	if err := e.db.Where("email = ?", "user@websiteemas.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	resp = e.do(t, http.MethodPut, "/api/users/"+itoa(user.ID), map[string]string{
		"nama": user.Nama, "email": user.Email, "role": models.RoleUser, "password": "direset1",
	}, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("admin reset: status=%d body=%s", resp.Code, resp.Body.String())
	}
	if resp := e.do(t, http.MethodGet, "/api/auth/me", nil, current); resp.Code != http.StatusUnauthorized {
		t.Fatalf("user session survived the admin reset: status=%d", resp.Code)
	}
	if resp := e.do(t, http.MethodGet, "/api/auth/me", nil, admin); resp.Code != http.StatusOK {
		t.Fatalf("admin session should survive: status=%d", resp.Code)
	}

	// editing without a password leaves sessions alone
	fresh := performRequest(e.router, http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{"email":"user@websiteemas.com","password":"direset1"}`)), "", "application/json")
	if fresh.Code != http.StatusOK {
		t.Fatalf("login with reset password: status=%d", fresh.Code)
	}
	var out struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(fresh.Body.Bytes(), &out)
	resp = e.do(t, http.MethodPut, "/api/users/"+itoa(user.ID), map[string]string{
		"nama": "User Ganti Nama", "email": user.Email, "role": models.RoleUser,
	}, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("rename: status=%d", resp.Code)
	}
	if resp := e.do(t, http.MethodGet, "/api/auth/me", nil, out.Token); resp.Code != http.StatusOK {
		t.Fatalf("rename revoked the session: status=%d", resp.Code)
	}
}
