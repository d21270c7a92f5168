// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"
)

// metrics is a singleton service providing global access to a set of meters.
// It defaults to a no-op implementation; the daemon switches it to prometheus.
var metrics Metrics = noopMetrics{}

// Metrics is the interface of metrics service implementations.
type Metrics interface {
	GetOrCreateCountMeter(name string) CountMeter
	GetOrCreateGaugeMeter(name string) GaugeMeter
	GetOrCreateHandler() http.Handler
}

// CountMeter is a monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

// GaugeMeter is a single numeric value that can go up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

// Counter returns the named counter.
func Counter(name string) CountMeter { return metrics.GetOrCreateCountMeter(name) }

// Gauge returns the named gauge.
func Gauge(name string) GaugeMeter { return metrics.GetOrCreateGaugeMeter(name) }

// HTTPHandler returns the http handler for scraping metrics.
func HTTPHandler() http.Handler { return metrics.GetOrCreateHandler() }

// LazyLoadCounter resolves the named counter on first use. Package-level
// metric variables must use the lazy form, since packages initialize before
// the daemon selects the metrics implementation.
func LazyLoadCounter(name string) func() CountMeter {
	var (
		meter CountMeter
		once  sync.Once
	)
	return func() CountMeter {
		once.Do(func() { meter = Counter(name) })
		return meter
	}
}

// LazyLoadGauge resolves the named gauge on first use.
func LazyLoadGauge(name string) func() GaugeMeter {
	var (
		meter GaugeMeter
		once  sync.Once
	)
	return func() GaugeMeter {
		once.Do(func() { meter = Gauge(name) })
		return meter
	}
}

type noopMetrics struct{}

type noopMeter struct{}

func (noopMeter) Add(int64) {}
func (noopMeter) Set(int64) {}

func (noopMetrics) GetOrCreateCountMeter(string) CountMeter { return noopMeter{} }
func (noopMetrics) GetOrCreateGaugeMeter(string) GaugeMeter { return noopMeter{} }
func (noopMetrics) GetOrCreateHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotImplemented)
	})
}
