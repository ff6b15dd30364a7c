// Package metrics exposes desk activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "papertrade"

// Metrics holds the desk collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	reg prometheus.Gatherer

	OrdersPlaced   *prometheus.CounterVec
	OrdersRejected prometheus.Counter
	OrdersCanceled prometheus.Counter
	Fills          *prometheus.CounterVec
	Ticks          prometheus.Counter
	FeedErrors     *prometheus.CounterVec
	FeedLatency    *prometheus.HistogramVec
	LastPrice      *prometheus.GaugeVec
	Cash           prometheus.Gauge
	RealizedPnL    prometheus.Gauge
	Equity         prometheus.Gauge
	WorkingOrders  prometheus.Gauge
	WSClients      prometheus.Gauge
}

// New registers the collectors on a fresh registry, together with the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWith(reg, reg)
}

func NewWith(r prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(r)
	return &Metrics{
		reg: g,
		OrdersPlaced: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_placed_total",
			Help: "Orders accepted, by side and type.",
		}, []string{"side", "type"}),
		OrdersRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_rejected_total",
			Help: "Order requests rejected at entry.",
		}),
		OrdersCanceled: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_canceled_total",
			Help: "Working orders canceled.",
		}),
		Fills: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fills_total",
			Help: "Orders filled, by symbol and side.",
		}, []string{"symbol", "side"}),
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticks_total",
			Help: "Price ticks applied to the desk.",
		}),
		FeedErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "feed", Name: "errors_total",
			Help: "Market data requests that failed, by endpoint.",
		}, []string{"endpoint"}),
		FeedLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "feed", Name: "request_seconds",
			Help:    "Upstream market data latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		LastPrice: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "last_price",
			Help: "Last price seen, by symbol.",
		}, []string{"symbol"}),
		Cash: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "cash_yen",
			Help: "Account cash.",
		}),
		RealizedPnL: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "realized_pnl_yen",
			Help: "Cumulative realized P&L.",
		}),
		Equity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "equity_yen",
			Help: "Cash plus marked position value.",
		}),
		WorkingOrders: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "working_orders",
			Help: "Orders currently WORKING.",
		}),
		WSClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ws_clients",
			Help: "Connected websocket clients.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderPlaced(side, kind string) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(side, kind).Inc()
}

func (m *Metrics) OrderRejected() {
	if m == nil {
		return
	}
	m.OrdersRejected.Inc()
}

func (m *Metrics) OrderCanceled() {
	if m == nil {
		return
	}
	m.OrdersCanceled.Inc()
}

func (m *Metrics) Fill(symbol, side string) {
	if m == nil {
		return
	}
	m.Fills.WithLabelValues(symbol, side).Inc()
}

func (m *Metrics) Tick(symbol string, last float64) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.LastPrice.WithLabelValues(symbol).Set(last)
}

func (m *Metrics) FeedError(endpoint string) {
	if m == nil {
		return
	}
	m.FeedErrors.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) ObserveFeed(endpoint string, seconds float64) {
	if m == nil {
		return
	}
	m.FeedLatency.WithLabelValues(endpoint).Observe(seconds)
}

// Account publishes the ledger gauges.
func (m *Metrics) Account(cash, realized, equity float64, working int) {
	if m == nil {
		return
	}
	m.Cash.Set(cash)
	m.RealizedPnL.Set(realized)
	m.Equity.Set(equity)
	m.WorkingOrders.Set(float64(working))
}

func (m *Metrics) SetWSClients(n int) {
	if m == nil {
		return
	}
	m.WSClients.Set(float64(n))
}
