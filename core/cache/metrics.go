package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// request results
const (
	resultHit        = "hit"
	resultMiss       = "miss"
	resultInvalidate = "invalidate"
)

type instrumented struct {
	Cache
	requests *prometheus.CounterVec
}

// Instrument wraps c so that every Get and Invalidate is counted
// in `copo_cache_requests_total{result="hit|miss|invalidate"}`.
func Instrument(c Cache, reg prometheus.Registerer) (Cache, error) {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copo_cache_requests_total",
			Help: "Total number of result cache requests by result",
		},
		[]string{"result"},
	)
	if err := reg.Register(requests); err != nil {
		return nil, err
	}
	return &instrumented{Cache: c, requests: requests}, nil
}

func (c *instrumented) Get(key string, ttl time.Duration) (interface{}, bool) {
	value, ok := c.Cache.Get(key, ttl)
	if ok {
		c.requests.WithLabelValues(resultHit).Inc()
	} else {
		c.requests.WithLabelValues(resultMiss).Inc()
	}
	return value, ok
}

func (c *instrumented) Invalidate(key string) {
	c.Cache.Invalidate(key)
	c.requests.WithLabelValues(resultInvalidate).Inc()
}
