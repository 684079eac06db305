package goldprice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"websiteemas/models"
)

// ErrQuotaContention means the counter kept changing under us. Reserve
// returns it wrapped in a *FetchError with CodeQuotaBusy.
var ErrQuotaContention = errors.New("manual refresh counter is busy")

const casAttempts = 5

// QuotaStatus is the manual refresh usage for the current month.
type QuotaStatus struct {
	Count     int  `json:"count"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Exceeded  bool `json:"exceeded"`
}

// Quota enforces the monthly cap on manual refreshes. The month is the
// calendar month in loc.
type Quota struct {
	db    *gorm.DB
	limit int
	loc   *time.Location
	now   func() time.Time
}

func NewQuota(db *gorm.DB, limit int, loc *time.Location, now func() time.Time) *Quota {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Quota{db: db, limit: limit, loc: loc, now: now}
}

func (q *Quota) Limit() int { return q.limit }

// period returns the YYYY-MM key and the UTC instant the month started.
func (q *Quota) period() (string, time.Time) {
	local := q.now().In(q.loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, q.loc)
	return local.Format("2006-01"), start.UTC()
}

// Status reports the current count without reserving anything.
func (q *Quota) Status(ctx context.Context) (QuotaStatus, error) {
	period, since := q.period()
	rows, err := q.manualRows(ctx, since)
	if err != nil {
		return QuotaStatus{}, err
	}
	var counter models.GoldRefreshQuota
	err = q.db.WithContext(ctx).Where("period = ?", period).First(&counter).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return QuotaStatus{}, fmt.Errorf("load quota %s: %w", period, err)
	}
	return q.status(max(counter.Used, rows)), nil
}

// Reserve takes one slot of the monthly cap with a compare-and-swap on the
// period's counter row. The count is max(counter, manual rows inserted since
// the month started), so rows written before the counter existed still
// count. The returned release gives the slot back; call it when the fetch
// does not end in an insert. It runs detached from ctx's cancellation so a
// client that hangs up mid-fetch still gets its slot back.
func (q *Quota) Reserve(ctx context.Context) (QuotaStatus, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	period, since := q.period()
	db := q.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.GoldRefreshQuota{Period: period}).Error; err != nil {
		return QuotaStatus{}, noop, fmt.Errorf("init quota %s: %w", period, err)
	}

	for attempt := 0; attempt < casAttempts; attempt++ {
		var counter models.GoldRefreshQuota
		if err := db.Where("period = ?", period).First(&counter).Error; err != nil {
			return QuotaStatus{}, noop, fmt.Errorf("load quota %s: %w", period, err)
		}
		rows, err := q.manualRows(ctx, since)
		if err != nil {
			return QuotaStatus{}, noop, err
		}
		count := max(counter.Used, rows)
		if count >= q.limit {
			st := q.status(count)
			return st, noop, newFetchError(CodeManualLimit,
				fmt.Sprintf("Batas manual refresh bulan ini sudah tercapai (%dx). Silakan coba lagi bulan depan.", q.limit), nil)
		}
		res := db.Model(&models.GoldRefreshQuota{}).
			Where("period = ? AND used = ?", period, counter.Used).
			Updates(map[string]any{"used": count + 1, "updated_at": q.now().UTC()})
		if res.Error != nil {
			return QuotaStatus{}, noop, fmt.Errorf("reserve quota %s: %w", period, res.Error)
		}
		if res.RowsAffected == 1 {
			release := func(ctx context.Context) error {
				return q.release(context.WithoutCancel(ctx), period)
			}
			return q.status(count + 1), release, nil
		}
	}
	return QuotaStatus{}, noop, newFetchError(CodeQuotaBusy,
		"Manual refresh sedang diproses. Silakan coba lagi sebentar.", ErrQuotaContention)
}

func (q *Quota) release(ctx context.Context, period string) error {
	err := q.db.WithContext(ctx).Model(&models.GoldRefreshQuota{}).
		Where("period = ? AND used > 0", period).
		UpdateColumn("used", gorm.Expr("used - 1")).Error
	if err != nil {
		return fmt.Errorf("release quota %s: %w", period, err)
	}
	return nil
}

func (q *Quota) manualRows(ctx context.Context, since time.Time) (int, error) {
	var n int64
	err := q.db.WithContext(ctx).Model(&models.GoldPrice{}).
		Where("source = ? AND created_at >= ?", models.SourceManual, since).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count manual rows: %w", err)
	}
	return int(n), nil
}

func (q *Quota) status(count int) QuotaStatus {
	remaining := q.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return QuotaStatus{Count: count, Limit: q.limit, Remaining: remaining, Exceeded: count >= q.limit}
}
