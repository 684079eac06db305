package main

import (
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"websiteemas/models"
	"websiteemas/pkg/goldprice"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 500
	defaultStatsDays    = 30
	maxStatsDays        = 366
	msgNoGoldData       = "Belum ada data harga emas"
)

// queryInt reads a positive integer query parameter, clamped to max.
func queryInt(c *gin.Context, key string, def, max int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func (s *server) latestGoldHandler(c *gin.Context) {
	var row models.GoldPrice
	err := s.db.WithContext(c.Request.Context()).Order("timestamp DESC").First(&row).Error
	switch {
	case err == nil:
		respondOK(c, "", row)
	case isNotFound(err):
		respondError(c, http.StatusNotFound, msgNoGoldData)
	default:
		s.respondServerError(c, "latestGoldHandler", "Gagal memuat harga emas", err)
	}
}

// goldHistoryHandler returns the newest ?limit= samples, oldest first so the
// chart can plot them directly.
func (s *server) goldHistoryHandler(c *gin.Context) {
	limit := queryInt(c, "limit", defaultHistoryLimit, maxHistoryLimit)
	var rows []models.GoldPrice
	if err := s.db.WithContext(c.Request.Context()).Order("timestamp DESC").Limit(limit).Find(&rows).Error; err != nil {
		s.respondServerError(c, "goldHistoryHandler", "Gagal memuat riwayat harga emas", err)
		return
	}
	slices.Reverse(rows)
	respondList(c, rows)
}

// fetchGoldHandler is the manual refresh button.
func (s *server) fetchGoldHandler(c *gin.Context) {
	res, err := s.poller.Fetch(c.Request.Context(), models.SourceManual)
	if err != nil {
		fe, ok := goldprice.AsFetchError(err)
		if !ok {
			s.respondServerError(c, "fetchGoldHandler", "Gagal memperbarui harga emas", err)
			return
		}
		body := gin.H{"success": false, "message": fe.Message, "error": fe.Code}
		if res != nil && res.Manual != nil {
			body["manualLimit"] = res.Manual
		}
		c.AbortWithStatusJSON(fe.HTTPStatus(), body)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     res.Message,
		"inserted":    res.Inserted,
		"data":        res.Price,
		"manualLimit": res.Manual,
	})
}

// goldStats summarizes the samples of the last N days.
type goldStats struct {
	Latest   *models.GoldPrice `json:"latest"`
	Previous *models.GoldPrice `json:"previous"`
	Highest  *models.GoldPrice `json:"highest"`
	Lowest   *models.GoldPrice `json:"lowest"`
	Average  decimal.Decimal   `json:"average"`
	Count    int               `json:"count"`
	Days     int               `json:"days"`
	Since    time.Time         `json:"since"`
}

func summarizeGold(rows []models.GoldPrice) goldStats {
	var st goldStats
	st.Count = len(rows)
	if len(rows) == 0 {
		return st
	}
	sum := decimal.Zero
	hi, lo := 0, 0
	for i, r := range rows {
		sum = sum.Add(r.Price)
		if r.Price.GreaterThan(rows[hi].Price) {
			hi = i
		}
		if r.Price.LessThan(rows[lo].Price) {
			lo = i
		}
	}
	// rows are newest first
	st.Latest = &rows[0]
	if len(rows) > 1 {
		st.Previous = &rows[1]
	}
	st.Highest = &rows[hi]
	st.Lowest = &rows[lo]
	st.Average = sum.Div(decimal.NewFromInt(int64(len(rows)))).Round(2)
	return st
}

func (s *server) goldStatsHandler(c *gin.Context) {
	days := queryInt(c, "days", defaultStatsDays, maxStatsDays)
	since := s.now().UTC().AddDate(0, 0, -days)
	var rows []models.GoldPrice
	if err := s.db.WithContext(c.Request.Context()).
		Where("timestamp >= ?", since).
		Order("timestamp DESC").Find(&rows).Error; err != nil {
		s.respondServerError(c, "goldStatsHandler", "Gagal memuat statistik harga emas", err)
		return
	}
	st := summarizeGold(rows)
	if st.Latest == nil {
		// nothing in the window; still show the last known price
		var last models.GoldPrice
		if err := s.db.WithContext(c.Request.Context()).Order("timestamp DESC").First(&last).Error; err == nil {
			st.Latest = &last
		}
	}
	st.Days, st.Since = days, since
	respondOK(c, "", st)
}

func (s *server) goldUsageHandler(c *gin.Context) {
	usage, err := s.poller.Usage(c.Request.Context())
	if err != nil {
		status, code := http.StatusBadGateway, goldprice.CodeFetch
		if fe, ok := goldprice.AsFetchError(err); ok {
			status, code = fe.HTTPStatus(), fe.Code
		}
		s.log.WithError(err).Warn("gold API usage lookup failed")
		c.AbortWithStatusJSON(status, gin.H{"success": false, "message": "Gagal mengambil data penggunaan API", "error": code})
		return
	}
	respondOK(c, "", usage)
}

func (s *server) manualRefreshStatusHandler(c *gin.Context) {
	st, err := s.poller.Quota().Status(c.Request.Context())
	if err != nil {
		s.respondServerError(c, "manualRefreshStatusHandler", "Gagal memuat status manual refresh", err)
		return
	}
	respondOK(c, "", st)
}

func (s *server) schedulerStatusHandler(c *gin.Context) {
	respondOK(c, "", s.scheduler.Status())
}
