// Package metrics provides prometheus collectors of the recruitment engine.
package metrics

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "recruitment"

// Operation results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector groups engine metrics. Nil Collector is valid and collects
// nothing.
type Collector struct {
	operations *prometheus.CounterVec
	custody    *prometheus.GaugeVec
}

// New returns Collector with metrics registered in r.
func New(r prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total engine operations",
			},
			[]string{"method", "result"},
		),
		custody: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "custody",
				Help:      "Tokens held in custody, in whole units",
			},
			[]string{"symbol"},
		),
	}

	r.MustRegister(c.operations, c.custody)

	return c
}

// Operation counts finished engine operation.
func (c *Collector) Operation(method string, err error) {
	if c == nil {
		return
	}

	res := ResultSuccess
	if err != nil {
		res = ResultFailure
	}
	c.operations.WithLabelValues(method, res).Inc()
}

// Custody sets amount of tokens in custody.
func (c *Collector) Custody(symbol string, amount *big.Int, decimals int) {
	if c == nil {
		return
	}

	v := new(big.Float).SetInt(amount)
	if decimals > 0 {
		v.Quo(v, new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)))
	}
	f, _ := v.Float64()
	c.custody.WithLabelValues(symbol).Set(f)
}
