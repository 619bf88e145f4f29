// Package prommetrics exposes dispatch activity as Prometheus collectors.
package prommetrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/core/domain/model/order"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	events   *prometheus.CounterVec
	expiries *prometheus.CounterVec
	requests *prometheus.HistogramVec
	reg      prometheus.Registerer
}

// New registers the collectors on reg, or on the default registerer when reg is
// nil. Collectors already registered under the same name are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_events_total",
		Help: "Events appended to the event log, by type",
	}, []string{"type"})
	expiries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_window_expiries_total",
		Help: "Window expiries handled, by window kind and outcome",
	}, []string{"kind", "outcome"})
	requests := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dispatch_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	var err error
	if events, err = register(reg, events); err != nil {
		return nil, err
	}
	if expiries, err = register(reg, expiries); err != nil {
		return nil, err
	}
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}

	return &Metrics{events: events, expiries: expiries, requests: requests, reg: reg}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Publish counts events. It never fails, so it can sit next to the real sinks.
func (m *Metrics) Publish(_ context.Context, events ...event.Event) error {
	for _, e := range events {
		m.events.WithLabelValues(string(e.Type)).Inc()
	}
	return nil
}

func (m *Metrics) ObserveExpiry(kind order.TimerKind, outcome order.ExpiryOutcome, err error) {
	label := outcome.String()
	if err != nil {
		label = "error"
	}
	m.expiries.WithLabelValues(kind.String(), label).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// RegisterPendingWindows exposes the scheduler backlog as a gauge read on scrape.
func (m *Metrics) RegisterPendingWindows(pending func() int) error {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "dispatch_pending_windows",
		Help: "Window expiries scheduled and not yet fired",
	}, func() float64 { return float64(pending()) })

	if err := m.reg.Register(gauge); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return nil
		}
		return err
	}
	return nil
}
