// Package metrics exposes Prometheus counters fed by the swap engine.
package metrics

import (
	"context"
	"math/big"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"base-swap/pkg/swap"
	"base-swap/pkg/types"
)

var (
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "base_swap_swaps_total", Help: "Swap requests by pair and final outcome"},
		[]string{"pair", "outcome"},
	)
	AllowanceGrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "base_swap_allowance_grants_total", Help: "Approve transactions confirmed before a swap"},
		[]string{"asset"},
	)
	QuoteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "base_swap_quote_duration_seconds", Help: "Latency of quoter calls", Buckets: prometheus.DefBuckets},
		[]string{"pair"},
	)
	StateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "base_swap_state_transitions_total", Help: "State machine transitions by target state"},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(SwapsTotal, AllowanceGrantsTotal, QuoteDuration, StateTransitionsTotal)
}

// Observer records engine transitions and outcomes
type Observer struct{}

var _ swap.Observer = Observer{}

func (Observer) OnTransition(t swap.Transition) {
	StateTransitionsTotal.WithLabelValues(string(t.To)).Inc()
}

func (Observer) OnOutcome(req types.SwapRequest, out types.Outcome) {
	label := string(out.Status)
	if out.Kind != types.KindNone {
		label = string(out.Kind)
	}
	SwapsTotal.WithLabelValues(req.Pair(), label).Inc()

	if out.Allowance != nil && out.Allowance.Granted {
		AllowanceGrantsTotal.WithLabelValues(req.From.String()).Inc()
	}
}

// TimedQuoter measures the latency of every quote
type TimedQuoter struct {
	Next swap.Quoter
}

func (q TimedQuoter) Quote(ctx context.Context, from, to types.Asset, feeTier uint32, amountIn *big.Int) (*types.Quote, error) {
	start := time.Now()
	defer func() {
		QuoteDuration.WithLabelValues(from.String() + "/" + to.String()).Observe(time.Since(start).Seconds())
	}()
	return q.Next.Quote(ctx, from, to, feeTier, amountIn)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts a /metrics listener in the background
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
