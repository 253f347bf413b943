// Package metrics exports pool statistics to Prometheus.
package metrics

import (
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/cachegate"
	"github.com/unkn0wn-root/cachegate/pool"
)

// ShardStatsSource is a multi-pool source such as *cachegate.ShardedClient.
type ShardStatsSource interface {
	Stats() (map[string]pool.Stats, error)
}

// PoolCollector reads pool stats lazily at scrape time. Every series carries
// "pool" and "shard" labels; shard is empty for single-node clients.
type PoolCollector struct {
	active, idle, total, waiters, maxTotal *prometheus.Desc
	borrows, timeouts, scrapeErrors        *prometheus.Desc

	mu     sync.Mutex
	single map[string]cachegate.StatsSource
	shards map[string]ShardStatsSource
}

var _ prometheus.Collector = (*PoolCollector)(nil)

func NewPoolCollector(namespace string) *PoolCollector {
	labels := []string{"pool", "shard"}
	desc := func(name, help string, l []string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "redis_pool", name), help, l, nil)
	}
	return &PoolCollector{
		active:       desc("active", "Connections currently borrowed.", labels),
		idle:         desc("idle", "Idle sockets held by the client.", labels),
		total:        desc("total", "Open sockets held by the client.", labels),
		waiters:      desc("waiters", "Callers blocked waiting for a connection.", labels),
		maxTotal:     desc("max_total", "Configured connection cap.", labels),
		borrows:      desc("borrows_total", "Connections handed out.", labels),
		timeouts:     desc("timeouts_total", "Borrows that gave up waiting.", labels),
		scrapeErrors: desc("scrape_errors", "1 if the last scrape of the pool failed.", []string{"pool"}),
		single:       make(map[string]cachegate.StatsSource),
		shards:       make(map[string]ShardStatsSource),
	}
}

// Add registers src under name, replacing any source with the same name.
func (c *PoolCollector) Add(name string, src cachegate.StatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.shards, name)
	c.single[name] = src
}

// AddSharded registers every shard of src under name.
func (c *PoolCollector) AddSharded(name string, src ShardStatsSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.single, name)
	c.shards[name] = src
}

func (c *PoolCollector) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.single, name)
	delete(c.shards, name)
}

func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{c.active, c.idle, c.total, c.waiters, c.maxTotal, c.borrows, c.timeouts, c.scrapeErrors} {
		ch <- d
	}
}

func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	single := make(map[string]cachegate.StatsSource, len(c.single))
	for k, v := range c.single {
		single[k] = v
	}
	shards := make(map[string]ShardStatsSource, len(c.shards))
	for k, v := range c.shards {
		shards[k] = v
	}
	c.mu.Unlock()

	for name, src := range single {
		s, err := src.Stats()
		c.scrapeResult(ch, name, err)
		if err == nil {
			c.emit(ch, name, "", s)
		}
	}
	for name, src := range shards {
		m, err := src.Stats()
		c.scrapeResult(ch, name, err)
		if err != nil {
			continue
		}
		addrs := make([]string, 0, len(m))
		for a := range m {
			addrs = append(addrs, a)
		}
		sort.Strings(addrs)
		for _, a := range addrs {
			c.emit(ch, name, a, m[a])
		}
	}
}

func (c *PoolCollector) scrapeResult(ch chan<- prometheus.Metric, name string, err error) {
	v := 0.0
	if err != nil {
		v = 1
	}
	ch <- prometheus.MustNewConstMetric(c.scrapeErrors, prometheus.GaugeValue, v, name)
}

func (c *PoolCollector) emit(ch chan<- prometheus.Metric, name, shard string, s pool.Stats) {
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), name, shard)
	}
	gauge(c.active, s.Active)
	gauge(c.idle, s.Idle)
	gauge(c.total, s.Total)
	gauge(c.waiters, s.Waiters)
	gauge(c.maxTotal, s.MaxTotal)
	ch <- prometheus.MustNewConstMetric(c.borrows, prometheus.CounterValue, float64(s.Borrows), name, shard)
	ch <- prometheus.MustNewConstMetric(c.timeouts, prometheus.CounterValue, float64(s.Timeouts), name, shard)
}
