package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics counts the state transitions the alerting pipeline performs.
// A nil *DomainMetrics is valid and records nothing.
type DomainMetrics struct {
	activations   prometheus.Counter
	notifications prometheus.Counter
	generated     *prometheus.CounterVec
	inspections   *prometheus.CounterVec
}

// NewDomainMetrics registers the domain counters on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	activations := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alert_activations_total",
		Help:      "Alerts switched to active by the scheduler.",
	})
	notifications := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_created_total",
		Help:      "Notification rows created by alert fan-out.",
	})
	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_generated_total",
		Help:      "System alerts generated from inventory expiry state.",
	}, []string{"kind"})
	inspections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "inspections_recorded_total",
		Help:      "Inventory items marked inspected.",
	}, []string{"reason"})
	reg.MustRegister(activations, notifications, generated, inspections)
	return &DomainMetrics{
		activations:   activations,
		notifications: notifications,
		generated:     generated,
		inspections:   inspections,
	}
}

func (d *DomainMetrics) AddActivations(n int) {
	if d == nil || d.activations == nil || n <= 0 {
		return
	}
	d.activations.Add(float64(n))
}

func (d *DomainMetrics) AddNotifications(n int) {
	if d == nil || d.notifications == nil || n <= 0 {
		return
	}
	d.notifications.Add(float64(n))
}

func (d *DomainMetrics) IncGenerated(kind string) {
	if d == nil || d.generated == nil {
		return
	}
	d.generated.WithLabelValues(labelOrUnknown(kind)).Inc()
}

// IncInspection records one inspection; free-text reasons are collapsed to "other".
func (d *DomainMetrics) IncInspection(reason string) {
	if d == nil || d.inspections == nil {
		return
	}
	switch reason {
	case "damage", "promotion":
	default:
		reason = "other"
	}
	d.inspections.WithLabelValues(reason).Inc()
}
