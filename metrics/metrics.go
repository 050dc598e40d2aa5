package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrdersAdded counts residuals admitted to a book, by side.
	OrdersAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fenrir",
		Name:      "orders_added_total",
		Help:      "Resting orders admitted to a book",
	}, []string{"side"})

	// OrdersExecuted counts fills (one per resting order touched).
	OrdersExecuted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fenrir",
		Name:      "orders_executed_total",
		Help:      "Executions emitted by the matching core",
	})

	// OrdersDeleted counts cancel attempts by outcome.
	OrdersDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fenrir",
		Name:      "orders_deleted_total",
		Help:      "Cancel attempts by outcome",
	}, []string{"outcome"})

	// TicksDropped counts trade ticks shed because the publish channel
	// was full.
	TicksDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fenrir",
		Name:      "ticks_dropped_total",
		Help:      "Trade ticks dropped on channel overflow",
	})
)

// Handler serves the default registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
