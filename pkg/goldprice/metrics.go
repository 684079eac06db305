package goldprice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emas_fetch_total",
		Help: "Gold price fetch attempts by source and outcome.",
	}, []string{"source", "result"})

	lastPrice = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "emas_last_price_idr",
		Help: "Most recently inserted gold spot price (IDR per troy ounce).",
	})

	apiRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "emas_api_remaining_requests",
		Help: "Remaining monthly requests reported by the price provider.",
	})
)

// result labels
const (
	resultInserted  = "inserted"
	resultDuplicate = "duplicate"
)
