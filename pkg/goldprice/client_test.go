package goldprice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const spotJSON = `{"status":"success","currency":"IDR","unit":"toz","metal":"gold",
"rate":{"price":41234567.89,"ask":41240000,"bid":41230000,"high":41300000,"low":41100000,"change":12345.6,"change_percent":0.03},
"timestamp":"2024-05-01T07:00:01.512Z"}`

func TestClientSpot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/metal/spot" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("api_key") != "k" || q.Get("metal") != "gold" || q.Get("currency") != "IDR" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(spotJSON))
	}))
	defer srv.Close()

	quote, err := NewClient(srv.URL, "k", time.Second).Spot(context.Background())
	if err != nil {
		t.Fatalf("spot: %v", err)
	}
	if quote.Rate.Price.String() != "41234567.89" {
		t.Fatalf("price = %s", quote.Rate.Price)
	}
	row := FromQuote(quote, "manual")
	if !row.Timestamp.Equal(time.Date(2024, 5, 1, 7, 0, 1, 0, time.UTC)) {
		t.Fatalf("timestamp not truncated to second: %s", row.Timestamp)
	}
	if row.ChangeValue.String() != "12345.6" || row.Source != "manual" {
		t.Fatalf("unexpected row %+v", row)
	}
}

func TestClientSpotErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		code   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, CodeRateLimit},
		{"server error", http.StatusInternalServerError, `{}`, CodeFetch},
		{"api failure", http.StatusOK, `{"status":"failure"}`, CodeFetch},
		{"garbage", http.StatusOK, `<html>`, CodeFetch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			_, err := NewClient(srv.URL, "k", time.Second).Spot(context.Background())
			fe, ok := AsFetchError(err)
			if !ok || fe.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestClientConnectionFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	_, err := NewClient(url, "k", time.Second).Spot(context.Background())
	fe, ok := AsFetchError(err)
	if !ok || fe.Code != CodeConnection || fe.HTTPStatus() != http.StatusBadGateway {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
}

func TestClientUsageAcceptsStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","used":"37","total":"100","plan":"Free"}`))
	}))
	defer srv.Close()
	u, err := NewClient(srv.URL, "k", time.Second).Usage(context.Background())
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if u.Used != 37 || u.Total != 100 || u.Remaining != 63 || u.Plan != "Free" {
		t.Fatalf("unexpected usage %+v", u)
	}
}
