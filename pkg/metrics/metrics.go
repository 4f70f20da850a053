package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counters for the exchange core. Labels are low-cardinality enums only.
var (
	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_ledger_entries_total",
		Help: "Ledger entries appended, by kind.",
	}, []string{"kind"})

	CallsLogged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_calls_logged_total",
		Help: "Call records created, by disposition.",
	}, []string{"disposition"})

	CampaignTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "exchange_campaign_transitions_total",
		Help: "Campaign status transitions, by resulting status.",
	}, []string{"status"})
)

// Handler exposes the default prometheus registry on a gin route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
