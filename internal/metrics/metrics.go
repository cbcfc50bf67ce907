// Package metrics exposes engine activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexus-erp/nexusctl/internal/channel"
	"github.com/nexus-erp/nexusctl/internal/errors"
	"github.com/nexus-erp/nexusctl/internal/series"
	"github.com/nexus-erp/nexusctl/internal/snapshot"
)

const namespace = "nexusctl"

// Collector records engine callbacks. It implements engine.Observer and
// engine.RejectionObserver.
type Collector struct {
	registry *prometheus.Registry

	channelState       *prometheus.GaugeVec
	channelTransitions *prometheus.CounterVec
	sales              prometheus.Counter
	rejected           prometheus.Counter
	refreshes          *prometheus.CounterVec
	lastRefresh        prometheus.Gauge

	salesToday    prometheus.Gauge
	lowStock      prometheus.Gauge
	averageTicket prometheus.Gauge
	alertActive   prometheus.Gauge
	chartLast     prometheus.Gauge
	chartPoints   prometheus.Gauge
}

// NewCollector creates a collector with its own registry, so tests and
// multiple watchers never collide on the global one.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Collector{
		registry: reg,
		channelState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_state",
			Help:      "1 for the current push channel state, 0 otherwise.",
		}, []string{"state"}),
		channelTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_transitions_total",
			Help:      "Push channel state transitions by target state.",
		}, []string{"state"}),
		sales: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sale_events_total",
			Help:      "Sale events received on the push channel.",
		}),
		rejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_messages_total",
			Help:      "Push channel payloads that matched no known message type.",
		}),
		refreshes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_refreshes_total",
			Help:      "Snapshot refreshes by result (ok or error code).",
		}, []string{"result"}),
		lastRefresh: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful snapshot.",
		}),
		salesToday: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sales_today",
			Help:      "Sales total for today from the last snapshot.",
		}),
		lowStock: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "low_stock_products",
			Help:      "Products below their stock threshold.",
		}),
		averageTicket: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_ticket",
			Help:      "Average ticket from the last snapshot.",
		}),
		alertActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ai_alert_active",
			Help:      "1 when the last snapshot carried an AI alert.",
		}),
		chartLast: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chart_last_value",
			Help:      "Most recent value in the sales chart.",
		}),
		chartPoints: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chart_points",
			Help:      "Points currently held by the sales chart.",
		}),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) StateChanged(s channel.State) {
	for _, st := range []channel.State{channel.StateConnecting, channel.StateOpen, channel.StateClosed} {
		v := 0.0
		if st == s {
			v = 1
		}
		c.channelState.WithLabelValues(st.String()).Set(v)
	}
	c.channelTransitions.WithLabelValues(s.String()).Inc()
}

func (c *Collector) Pulse() {
	c.sales.Inc()
}

func (c *Collector) SnapshotUpdated(s snapshot.Snapshot) {
	c.refreshes.WithLabelValues("ok").Inc()
	c.lastRefresh.Set(float64(s.FetchedAt.Unix()))
	c.salesToday.Set(s.SalesToday)
	c.lowStock.Set(float64(s.LowStockCount))
	c.averageTicket.Set(s.AverageTicket)
	if s.HasAlert() {
		c.alertActive.Set(1)
	} else {
		c.alertActive.Set(0)
	}
}

func (c *Collector) RefreshFailed(err error) {
	code := errors.CodeOf(err)
	if code == "" {
		code = "unknown"
	}
	c.refreshes.WithLabelValues(code).Inc()
}

func (c *Collector) SeriesChanged(points []series.Point) {
	c.chartPoints.Set(float64(len(points)))
	if len(points) > 0 {
		c.chartLast.Set(points[len(points)-1].Value)
	}
}

func (c *Collector) MessageRejected(error) {
	c.rejected.Inc()
}
