// Copyright (C) 2017-2026  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// You can also Link and Combine this program with other software covered by
// the terms of any of the Free Software licenses or any of the Open Source
// Initiative approved licenses and Convey the resulting work. Corresponding
// source of such a combination shall include the source code for all other
// software used.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.
// See https://www.nexedi.com/licensing for rationale and options.

package cache
// cache statistics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// stats collects cache statistics.
//
// Cache exports them as prometheus.Collector. Metric names are fixed, so
// caches registered into one registry have to be distinguished with
// prometheus.WrapRegistererWith.
type stats struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter
	size        prometheus.GaugeFunc
	entries     prometheus.GaugeFunc
}

func (c *Cache) newStats() *stats {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ilist",
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		})
	}
	gauge := func(name, help string, f func() float64) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ilist",
			Subsystem: "cache",
			Name:      name,
			Help:      help,
		}, f)
	}

	return &stats{
		hits:        counter("hits_total", "Number of loads served from the cache."),
		misses:      counter("misses_total", "Number of loads that went to the loader."),
		evictions:   counter("evictions_total", "Number of entries evicted to fit into size limit."),
		expirations: counter("expirations_total", "Number of entries dropped because their deadline passed."),
		size:        gauge("size_bytes", "Size of cached data.", func() float64 { return float64(c.Size()) }),
		entries:     gauge("entries", "Number of cached entries.", func() float64 { return float64(c.Len()) }),
	}
}

func (s *stats) collectors() []prometheus.Collector {
	return []prometheus.Collector{s.hits, s.misses, s.evictions, s.expirations, s.size, s.entries}
}

// Describe implements prometheus.Collector.
func (c *Cache) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.stats.collectors() {
		m.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Cache) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.stats.collectors() {
		m.Collect(ch)
	}
}
