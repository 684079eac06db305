package goldprice

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"websiteemas/models"
	"websiteemas/pkg/cache"
	"websiteemas/pkg/logging"
)

const (
	usageCacheKey = "emas:usage"
	usageCacheTTL = 5 * time.Minute

	MessageDuplicate = "Data already exists"
	MessageInserted  = "Harga emas berhasil diperbarui"
)

// Result describes a completed fetch. Inserted is false when the quote's
// timestamp was already stored.
type Result struct {
	Inserted bool              `json:"inserted"`
	Message  string            `json:"message"`
	Price    *models.GoldPrice `json:"price,omitempty"`
	Manual   *QuotaStatus      `json:"manualLimit,omitempty"`
}

// Poller runs one fetch-and-store cycle on demand.
type Poller struct {
	db     *gorm.DB
	source Source
	quota  *Quota
	cache  *cache.Redis
	log    *logrus.Logger
}

func NewPoller(db *gorm.DB, source Source, quota *Quota, rc *cache.Redis, logg *logrus.Logger) *Poller {
	return &Poller{db: db, source: source, quota: quota, cache: rc, log: logg}
}

func (p *Poller) Quota() *Quota { return p.quota }

// Fetch runs one cycle for the given source (models.SourceScheduler or
// models.SourceManual). Business failures come back as *FetchError.
func (p *Poller) Fetch(ctx context.Context, source string) (*Result, error) {
	manual := source == models.SourceManual
	res, err := p.fetch(ctx, source, manual)
	switch {
	case err != nil:
		code := "error"
		if fe, ok := AsFetchError(err); ok {
			code = fe.Code
		}
		fetchTotal.WithLabelValues(source, code).Inc()
	case res.Inserted:
		fetchTotal.WithLabelValues(source, resultInserted).Inc()
	default:
		fetchTotal.WithLabelValues(source, resultDuplicate).Inc()
	}
	return res, err
}

func (p *Poller) fetch(ctx context.Context, source string, manual bool) (*Result, error) {
	var (
		manualStatus *QuotaStatus
		giveBack     = func(context.Context) error { return nil }
	)
	if manual {
		st, rel, err := p.quota.Reserve(ctx)
		if err != nil {
			p.log.WithFields(logrus.Fields{"count": st.Count, "limit": st.Limit}).WithError(err).Warn("manual refresh rejected")
			return &Result{Manual: &st}, err
		}
		manualStatus, giveBack = &st, rel
	}
	release := func(ctx context.Context) {
		if err := giveBack(ctx); err != nil {
			logging.LogError(p.log, "goldprice", "Fetch", "release", source, err)
		}
	}

	if usage, err := p.source.Usage(ctx); err != nil {
		// best effort: an unreachable usage endpoint does not block the fetch
		p.log.WithError(err).Warn("checking API usage failed, continuing")
	} else {
		apiRemaining.Set(float64(usage.Remaining))
		if usage.Remaining <= 0 {
			release(ctx)
			msg := "API limit reached"
			if manual {
				msg = "API quota bulanan sudah habis. Silakan coba lagi bulan depan."
			}
			return &Result{Manual: manualStatus}, newFetchError(CodeAPILimit, msg, nil)
		}
	}

	quote, err := p.source.Spot(ctx)
	if err != nil {
		release(ctx)
		if _, ok := AsFetchError(err); !ok {
			err = newFetchError(CodeFetch, "Gagal mengambil harga emas dari API", err)
		}
		logging.LogError(p.log, "goldprice", "Fetch", "spot", source, err)
		return &Result{Manual: manualStatus}, err
	}

	row := FromQuote(quote, source)
	inserted, err := p.insert(ctx, row)
	if err != nil {
		release(ctx)
		return nil, fmt.Errorf("store gold price: %w", err)
	}
	_ = p.cache.Remove(ctx, usageCacheKey)

	if !inserted {
		release(ctx)
		if manualStatus != nil {
			st, _ := p.quota.Status(ctx)
			manualStatus = &st
		}
		p.log.WithField("timestamp", row.Timestamp).Info("gold price for this timestamp already exists")
		return &Result{Inserted: false, Message: MessageDuplicate, Price: row, Manual: manualStatus}, nil
	}

	lastPrice.Set(row.Price.InexactFloat64())
	p.log.WithFields(logrus.Fields{
		"price":     row.Price.StringFixed(0),
		"timestamp": row.Timestamp,
		"source":    source,
	}).Info("gold price saved")
	return &Result{Inserted: true, Message: MessageInserted, Price: row, Manual: manualStatus}, nil
}

// insert stores row unless a sample with the same timestamp exists.
func (p *Poller) insert(ctx context.Context, row *models.GoldPrice) (bool, error) {
	res := p.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "timestamp"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FromQuote maps a provider quote onto a row. The timestamp is truncated to
// whole seconds in UTC so that equal quotes compare equal on every driver.
func FromQuote(q *Quote, source string) *models.GoldPrice {
	return &models.GoldPrice{
		Timestamp:     q.Timestamp.UTC().Truncate(time.Second),
		Currency:      orDefault(q.Currency, "IDR"),
		Metal:         orDefault(q.Metal, "gold"),
		Unit:          orDefault(q.Unit, "toz"),
		Price:         q.Rate.Price,
		Ask:           q.Rate.Ask,
		Bid:           q.Rate.Bid,
		High:          q.Rate.High,
		Low:           q.Rate.Low,
		ChangeValue:   q.Rate.Change,
		ChangePercent: q.Rate.ChangePercent,
		Source:        source,
	}
}

// Usage returns the provider quota, cached for five minutes when redis is
// available.
func (p *Poller) Usage(ctx context.Context) (*Usage, error) {
	var cached Usage
	if found, err := p.cache.GetObject(ctx, usageCacheKey, &cached); err == nil && found {
		return &cached, nil
	}
	u, err := p.source.Usage(ctx)
	if err != nil {
		return nil, err
	}
	apiRemaining.Set(float64(u.Remaining))
	if err := p.cache.SetObject(ctx, usageCacheKey, u, usageCacheTTL); err != nil {
		p.log.WithError(err).Warn("caching API usage failed")
	}
	return u, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
