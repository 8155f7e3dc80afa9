// Package metrics owns the binary level Prometheus registry. It publishes
// what the process was built from and how it was configured, and serves it
// together with the default registry, which holds the Go and process
// collectors and the operation metrics from observability.
package metrics

import (
	"net/http"
	"runtime"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type BuildInfo struct {
	Version   string
	Revision  string
	Branch    string
	BuildDate string
}

// Setup is the effective runtime configuration of the columnar engine.
type Setup struct {
	GridWorkers   int
	GridChunkSize int
	MaxK          int
	GeomCacheSize int
	// Store names the column store backend, "" when none is configured.
	Store string
	// Ops are the op label values the API reports in observability.
	Ops []string
}

type Config struct {
	Build BuildInfo
	Setup Setup
}

type Provider struct {
	reg *prometheus.Registry
}

func Init(cfg Config) *Provider {
	if cfg.Build.Version == "" {
		cfg.Build.Version = "dev"
	}
	if cfg.Setup.Store == "" {
		cfg.Setup.Store = "none"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(newInfoCollector(cfg))
	return &Provider{reg: reg}
}

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.Gatherer(), promhttp.HandlerOpts{})
}

func (p *Provider) Gatherer() prometheus.Gatherer {
	return prometheus.Gatherers{p.reg, prometheus.DefaultGatherer}
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }

// infoCollector emits constant series; values never change after Init.
type infoCollector struct {
	cfg     Config
	build   *prometheus.Desc
	setting *prometheus.Desc
	store   *prometheus.Desc
	op      *prometheus.Desc
}

func newInfoCollector(cfg Config) *infoCollector {
	cfg.Setup.Ops = slices.Compact(slices.Sorted(slices.Values(cfg.Setup.Ops)))
	return &infoCollector{
		cfg: cfg,
		build: prometheus.NewDesc("h3col_build_info",
			"Build info for this binary (value is always 1).",
			[]string{"version", "revision", "branch", "build_date", "go_version"}, nil),
		setting: prometheus.NewDesc("h3col_grid_setting",
			"Effective grid engine settings.",
			[]string{"setting"}, nil),
		store: prometheus.NewDesc("h3col_store_info",
			"Column store backend (value is always 1).",
			[]string{"backend"}, nil),
		op: prometheus.NewDesc("h3col_op_info",
			"Operations served; the op label matches the column_op_* series.",
			[]string{"op"}, nil),
	}
}

func (c *infoCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.build
	ch <- c.setting
	ch <- c.store
	ch <- c.op
}

func (c *infoCollector) Collect(ch chan<- prometheus.Metric) {
	b, s := c.cfg.Build, c.cfg.Setup
	ch <- prometheus.MustNewConstMetric(c.build, prometheus.GaugeValue, 1,
		b.Version, b.Revision, b.Branch, b.BuildDate, runtime.Version())

	for _, kv := range []struct {
		name string
		v    int
	}{
		{"workers", s.GridWorkers},
		{"chunk_size", s.GridChunkSize},
		{"max_k", s.MaxK},
		{"geom_cache_size", s.GeomCacheSize},
	} {
		ch <- prometheus.MustNewConstMetric(c.setting, prometheus.GaugeValue, float64(kv.v), kv.name)
	}

	ch <- prometheus.MustNewConstMetric(c.store, prometheus.GaugeValue, 1, s.Store)
	for _, op := range s.Ops {
		ch <- prometheus.MustNewConstMetric(c.op, prometheus.GaugeValue, 1, op)
	}
}
