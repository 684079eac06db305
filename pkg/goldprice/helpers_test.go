package goldprice

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"websiteemas/models"
	"websiteemas/pkg/config"
	"websiteemas/pkg/database"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "emas.db"), MaxOpen: 1}, gormlogger.Discard)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db, quietLogger(), models.All()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeSource serves a fixed quote and usage; errors take precedence. With
// hang set, Spot waits for the caller's context to end.
type fakeSource struct {
	mu        sync.Mutex
	quote     *Quote
	spotErr   error
	usage     *Usage
	usageErr  error
	spotCalls int
	hang      chan struct{}
	step      time.Duration
}

func (f *fakeSource) Spot(ctx context.Context) (*Quote, error) {
	f.mu.Lock()
	f.spotCalls++
	hang := f.hang
	f.mu.Unlock()
	if hang != nil {
		close(hang)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spotErr != nil {
		return nil, f.spotErr
	}
	q := *f.quote
	q.Timestamp = q.Timestamp.Add(time.Duration(f.spotCalls) * f.step)
	return &q, nil
}

func (f *fakeSource) Usage(context.Context) (*Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.usageErr != nil {
		return nil, f.usageErr
	}
	if f.usage == nil {
		return &Usage{Used: 1, Total: 100, Remaining: 99, Plan: "free"}, nil
	}
	u := *f.usage
	return &u, nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spotCalls
}

func quoteAt(ts time.Time, price int64) *Quote {
	return &Quote{
		Status:    "success",
		Timestamp: ts,
		Currency:  "IDR",
		Unit:      "toz",
		Metal:     "gold",
		Rate: Rate{
			Price: decimal.NewFromInt(price),
			Ask:   decimal.NewFromInt(price + 1000),
			Bid:   decimal.NewFromInt(price - 1000),
			High:  decimal.NewFromInt(price + 5000),
			Low:   decimal.NewFromInt(price - 5000),
		},
	}
}

var errBoom = errors.New("boom")
