package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the storefront counters on a private Prometheus registry.
type Registry struct {
	reg *prometheus.Registry

	Sessions       prometheus.Gauge
	CartChanges    *prometheus.CounterVec
	OrdersCreated  prometheus.Counter
	CheckoutFailed *prometheus.CounterVec
	StatusUpdates  *prometheus.CounterVec
	OrderTotal     prometheus.Histogram
	CommandLatency prometheus.Histogram
}

// NewRegistry registers every storefront metric on a fresh registry.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{Name: "storefront_sessions", Help: "Sessions held in memory."})
	cartChanges := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storefront_cart_changes_total", Help: "Cart mutations by operation and result."}, []string{"op", "result"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{Name: "storefront_orders_created_total", Help: "Orders placed through checkout."})
	checkoutFailed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storefront_checkout_failed_total", Help: "Rejected checkouts by reason."}, []string{"reason"})
	statusUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "storefront_order_status_updates_total", Help: "Order status changes by new status."}, []string{"status"})
	orderTotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_order_total",
		Help:    "Order totals including shipping.",
		Buckets: []float64{25, 50, 100, 200, 400, 800},
	})
	commandLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_command_latency_seconds",
		Help:    "Time spent running one session command.",
		Buckets: prometheus.DefBuckets,
	})

	r.MustRegister(sessions, cartChanges, ordersCreated, checkoutFailed, statusUpdates, orderTotal, commandLatency)
	return &Registry{
		reg:            r,
		Sessions:       sessions,
		CartChanges:    cartChanges,
		OrdersCreated:  ordersCreated,
		CheckoutFailed: checkoutFailed,
		StatusUpdates:  statusUpdates,
		OrderTotal:     orderTotal,
		CommandLatency: commandLatency,
	}
}

// Gatherer exposes the registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
