// Package swap runs swap requests through the quote, allowance, submission
// and confirmation states and reports a typed terminal outcome.
package swap

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"base-swap/pkg/chain"
	"base-swap/pkg/types"
)

// Quoter returns the expected output of a single-pool swap. *quote.Client implements it.
type Quoter interface {
	Quote(ctx context.Context, from, to types.Asset, feeTier uint32, amountIn *big.Int) (*types.Quote, error)
}

// Allowances makes sure the router may spend custodial input. *allowance.Manager implements it.
type Allowances interface {
	Ensure(ctx context.Context, owner, spender common.Address, asset types.Asset, required *big.Int) (*types.AllowanceState, error)
}

// Sender signs and broadcasts a transaction for one address. *chain.Transactor implements it.
type Sender interface {
	From() common.Address
	Send(ctx context.Context, req chain.TxRequest) (common.Hash, error)
}

// Node is the read side of the chain the engine needs after broadcast
type Node interface {
	chain.Reader
	chain.ReceiptSource
}

// Engine holds immutable configuration and collaborators and is safe for
// concurrent use. Each Execute call runs its own state machine.
type Engine struct {
	cfg        Config
	minimums   map[string]*big.Int
	quoter     Quoter
	allowances Allowances
	sender     Sender
	node       Node
	observer   Observer
	log        zerolog.Logger
	now        func() time.Time
}

// Option customizes an Engine
type Option func(*Engine)

// WithObserver registers the transition observer
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithClock replaces time.Now, for deadlines and the confirmation wait
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New validates cfg and creates an engine
func New(cfg Config, quoter Quoter, allowances Allowances, sender Sender, node Node, log zerolog.Logger, opts ...Option) (*Engine, error) {
	cfg.setDefaults()
	minimums, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		minimums:   minimums,
		quoter:     quoter,
		allowances: allowances,
		sender:     sender,
		node:       node,
		observer:   ObserverFuncs{},
		log:        log.With().Str("component", "swap").Logger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Pairs returns the supported swap directions
func (e *Engine) Pairs() []Pair {
	return append([]Pair(nil), e.cfg.Pairs...)
}

// Minimum returns the smallest accepted input of asset, or nil if none is configured
func (e *Engine) Minimum(asset types.Asset) *big.Int {
	if m, ok := e.minimums[asset.String()]; ok {
		return new(big.Int).Set(m)
	}
	return nil
}

// Execute runs req to a terminal outcome. It never returns an error: every
// failure is reported as a Failed or Rejected outcome with its kind.
//
// Cancelling ctx abandons the request only while nothing has been broadcast.
// After broadcast the confirmation wait runs until a receipt arrives or the
// swap deadline passes.
func (e *Engine) Execute(ctx context.Context, req types.SwapRequest) types.Outcome {
	x := e.newExecution(req)
	out := x.run(ctx)
	x.finish(out)
	return out
}

// Preview validates req, fetches a quote and computes the bounds that Execute
// would submit, without touching allowances or sending anything.
func (e *Engine) Preview(ctx context.Context, req types.SwapRequest) (*types.SwapBounds, types.ErrorKind) {
	x := e.newExecution(req)
	x.quiet = true
	plan, kind := x.validate(ctx)
	if kind != types.KindNone {
		return nil, kind
	}
	bounds, kind := x.quote(ctx, plan)
	if kind != types.KindNone {
		return nil, kind
	}
	return bounds, types.KindNone
}
