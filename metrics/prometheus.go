// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/anchornet/anchor/log"
)

const namespace = "anchor_metrics"

var logger = log.WithContext("pkg", "metrics")

// InitializePrometheusMetrics switches the default no-op service to a
// prometheus-backed one. It is a no-op if already initialized.
func InitializePrometheusMetrics() {
	if _, ok := metrics.(*prometheusMetrics); !ok {
		metrics = &prometheusMetrics{}
	}
}

type prometheusMetrics struct {
	counters sync.Map
	gauges   sync.Map
}

func (p *prometheusMetrics) GetOrCreateCountMeter(name string) CountMeter {
	if m, ok := p.counters.Load(name); ok {
		return m.(CountMeter)
	}
	meter := p.newCountMeter(name)
	p.counters.Store(name, meter)
	return meter
}

func (p *prometheusMetrics) GetOrCreateGaugeMeter(name string) GaugeMeter {
	if m, ok := p.gauges.Load(name); ok {
		return m.(GaugeMeter)
	}
	meter := p.newGaugeMeter(name)
	p.gauges.Store(name, meter)
	return meter
}

func (p *prometheusMetrics) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

func (p *prometheusMetrics) newCountMeter(name string) CountMeter {
	meter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
	})
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register counter", "name", name, "error", err)
	}
	return &promCountMeter{meter}
}

func (p *prometheusMetrics) newGaugeMeter(name string) GaugeMeter {
	meter := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
	})
	if err := prometheus.Register(meter); err != nil {
		logger.Warn("unable to register gauge", "name", name, "error", err)
	}
	return &promGaugeMeter{meter}
}

type promCountMeter struct {
	counter prometheus.Counter
}

func (c *promCountMeter) Add(v int64) { c.counter.Add(float64(v)) }

type promGaugeMeter struct {
	gauge prometheus.Gauge
}

func (g *promGaugeMeter) Add(v int64) { g.gauge.Add(float64(v)) }
func (g *promGaugeMeter) Set(v int64) { g.gauge.Set(float64(v)) }
