package swap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"base-swap/pkg/amount"
	"base-swap/pkg/chain"
	"base-swap/pkg/router"
	"base-swap/pkg/slippage"
	"base-swap/pkg/types"
)

// execution is the state machine of a single request
type execution struct {
	e     *Engine
	req   types.SwapRequest
	state types.State
	out   types.Outcome
	quiet bool
	log   zerolog.Logger
}

// plan is what validation resolves from a request
type plan struct {
	pair     Pair
	owner    common.Address
	amountIn *big.Int
}

func (e *Engine) newExecution(req types.SwapRequest) *execution {
	return &execution{
		e:     e,
		req:   req,
		state: types.StateIdle,
		out:   types.Outcome{State: types.StateIdle},
		log:   e.log.With().Str("request", req.ID).Str("pair", req.Pair()).Logger(),
	}
}

func (x *execution) transition(to types.State) {
	from := x.state
	if from.IsTerminal() {
		x.log.Error().Str("from", string(from)).Str("to", string(to)).Msg("Ignoring transition out of a terminal state")
		return
	}
	x.state = to
	x.out.State = to
	if x.quiet {
		return
	}

	x.log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("State transition")
	x.e.observer.OnTransition(Transition{
		RequestID: x.req.ID,
		Pair:      x.req.Pair(),
		From:      from,
		To:        to,
		Outcome:   x.out,
	})
}

// fail ends the request with kind. Validation failures leave the machine in Idle.
func (x *execution) fail(kind types.ErrorKind) types.Outcome {
	x.out.Kind = kind
	switch {
	case kind == types.KindRejected:
		x.out.Status = types.OutcomeRejected
		x.transition(types.StateRejected)
	case kind.IsValidation() && x.state == types.StateIdle:
		x.out.Status = types.OutcomeFailed
	default:
		x.out.Status = types.OutcomeFailed
		x.transition(types.StateFailed)
	}
	return x.out
}

func (x *execution) finish(out types.Outcome) {
	if x.quiet {
		return
	}

	ev := x.log.Info()
	if out.Status != types.OutcomeConfirmed {
		ev = x.log.Warn()
	}
	ev = ev.Str("status", string(out.Status)).Str("state", string(out.State))
	if out.Kind != types.KindNone {
		ev = ev.Str("kind", string(out.Kind))
	}
	if out.HasTx() {
		ev = ev.Str("tx", out.TxHash.Hex())
	}
	if out.ActualOut != nil {
		ev = ev.Str("actual_out", out.ActualOut.String())
	}
	ev.Msg("Swap finished")

	x.e.observer.OnOutcome(x.req, out)
}

func (x *execution) run(ctx context.Context) types.Outcome {
	p, kind := x.validate(ctx)
	if kind != types.KindNone {
		return x.fail(kind)
	}

	bounds, kind := x.quote(ctx, p)
	if kind != types.KindNone {
		return x.fail(kind)
	}

	if !p.pair.From.IsNative() {
		if kind := x.ensureAllowance(ctx, p); kind != types.KindNone {
			return x.fail(kind)
		}
	}

	if ctx.Err() != nil {
		return x.fail(types.KindCancelled)
	}
	return x.submit(ctx, p, bounds)
}

func (x *execution) validate(ctx context.Context) (plan, types.ErrorKind) {
	pair, ok := x.e.cfg.findPair(x.req.From, x.req.To)
	if !ok {
		return plan{}, types.KindUnsupportedPair
	}
	if x.req.SlippageBps >= slippage.MaxBps {
		return plan{}, types.KindInvalidTolerance
	}

	// Decimals come from the configured asset, never from the request
	amountIn, err := amount.Parse(x.req.Amount, pair.From.Decimals)
	if err != nil {
		if errors.Is(err, amount.ErrExcessPrecision) {
			if floor, ferr := amount.ParseFloor(x.req.Amount, pair.From.Decimals); ferr == nil && floor.Sign() == 0 {
				return plan{}, types.KindAmountTooSmall
			}
		}
		return plan{}, types.KindMalformedAmount
	}
	if amountIn.Sign() == 0 {
		return plan{}, types.KindAmountTooSmall
	}
	if minimum, ok := x.e.minimums[pair.From.String()]; ok && amountIn.Cmp(minimum) < 0 {
		return plan{}, types.KindAmountTooSmall
	}

	owner := x.req.Owner
	if x.e.sender != nil {
		from := x.e.sender.From()
		if owner == (common.Address{}) {
			owner = from
		} else if owner != from {
			x.log.Error().Str("owner", owner.Hex()).Str("signer", from.Hex()).Msg("Request owner does not match signer")
			return plan{}, types.KindSubmissionFailed
		}
	}

	if ctx.Err() != nil {
		return plan{}, types.KindCancelled
	}
	return plan{pair: pair, owner: owner, amountIn: amountIn}, types.KindNone
}

func (x *execution) quote(ctx context.Context, p plan) (*types.SwapBounds, types.ErrorKind) {
	x.transition(types.StateQuoting)

	q, err := x.e.quoter.Quote(ctx, p.pair.From, p.pair.To, p.pair.FeeTier, p.amountIn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.KindCancelled
		}
		x.log.Warn().Err(err).Msg("Quote failed")
		return nil, types.KindQuoteUnavailable
	}

	minimumOut, err := slippage.MinimumOutput(q.ExpectedOut, x.req.SlippageBps)
	if err != nil {
		x.log.Warn().Err(err).Msg("Failed to compute minimum output")
		return nil, types.KindQuoteUnavailable
	}

	bounds := &types.SwapBounds{
		AmountIn:    p.amountIn,
		ExpectedOut: q.ExpectedOut,
		MinimumOut:  minimumOut,
	}
	x.out.Bounds = bounds
	x.transition(types.StateBoundsComputed)
	return bounds, types.KindNone
}

func (x *execution) ensureAllowance(ctx context.Context, p plan) types.ErrorKind {
	if ctx.Err() != nil {
		return types.KindCancelled
	}
	x.transition(types.StateAllowanceCheck)

	state, err := x.e.allowances.Ensure(ctx, p.owner, x.e.cfg.Router, p.pair.From, p.amountIn)
	if state != nil {
		x.out.Allowance = state
	}
	if err == nil {
		return types.KindNone
	}

	switch {
	case errors.Is(err, chain.ErrDeclined):
		return types.KindRejected
	case ctx.Err() != nil && (state == nil || state.GrantTx == (common.Hash{})):
		return types.KindCancelled
	default:
		x.log.Warn().Err(err).Msg("Allowance grant failed")
		return types.KindAllowanceGrantFailed
	}
}

func (x *execution) submit(ctx context.Context, p plan, bounds *types.SwapBounds) types.Outcome {
	x.transition(types.StateSubmitting)
	if x.e.sender == nil {
		x.log.Error().Msg("No signer configured")
		return x.fail(types.KindSubmissionFailed)
	}

	bounds.Deadline = x.e.now().Add(x.e.cfg.DeadlineWindow).Unix()

	call, err := router.BuildSwap(router.SwapParams{
		Router:     x.e.cfg.Router,
		TokenIn:    x.poolToken(p.pair.From),
		TokenOut:   x.poolToken(p.pair.To),
		Fee:        p.pair.FeeTier,
		Recipient:  p.owner,
		AmountIn:   bounds.AmountIn,
		MinimumOut: bounds.MinimumOut,
		Deadline:   bounds.Deadline,
		NativeIn:   p.pair.From.IsNative(),
		NativeOut:  p.pair.To.IsNative(),
	})
	if err != nil {
		x.log.Error().Err(err).Msg("Failed to build swap call")
		return x.fail(types.KindSubmissionFailed)
	}

	// Signing and broadcasting are not interrupted once started
	hash, err := x.e.sender.Send(context.WithoutCancel(ctx), chain.TxRequest{
		To:    call.To,
		Value: call.Value,
		Data:  call.Data,
		Label: fmt.Sprintf("swap %s %s for at least %s %s", x.req.Amount, p.pair.From, amount.Format(bounds.MinimumOut, p.pair.To.Decimals), p.pair.To),
	})
	if err != nil {
		return x.fail(x.classifySendError(err))
	}

	x.out.TxHash = hash
	x.out.Status = types.OutcomeSubmitted
	x.transition(types.StateAwaitingConfirmation)
	x.log.Info().Str("tx", hash.Hex()).Int64("deadline", bounds.Deadline).Msg("Swap submitted")

	return x.await(context.WithoutCancel(ctx), p, call, bounds.Deadline)
}

func (x *execution) classifySendError(err error) types.ErrorKind {
	if errors.Is(err, chain.ErrDeclined) {
		return types.KindRejected
	}

	var sim *chain.SimulationError
	if errors.As(err, &sim) {
		x.log.Warn().Err(err).Msg("Swap simulation failed")
		if len(sim.Data) > 0 {
			return router.ClassifyRevertData(sim.Data)
		}
		if strings.Contains(sim.Err.Error(), "revert") {
			return router.ClassifyRevert(sim.Err.Error())
		}
		return types.KindSubmissionFailed
	}

	x.log.Warn().Err(err).Msg("Swap submission failed")
	return types.KindSubmissionFailed
}

func (x *execution) await(ctx context.Context, p plan, call *router.Call, deadline int64) types.Outcome {
	waiter := &chain.Waiter{Source: x.e.node, Interval: x.e.cfg.PollInterval, Now: x.e.now}
	until := time.Unix(deadline, 0).Add(x.e.cfg.DeadlineGrace)

	receipt, err := waiter.Wait(ctx, x.out.TxHash, until)
	if err != nil {
		x.log.Warn().Err(err).Msg("Swap not confirmed before deadline")
		return x.fail(types.KindDeadlineExpired)
	}

	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		x.out.ActualOut = x.actualOut(receipt, p)
		x.out.Status = types.OutcomeConfirmed
		x.transition(types.StateConfirmed)
		return x.out
	}

	return x.fail(x.replayRevert(ctx, p, call, receipt.BlockNumber))
}

// replayRevert re-executes the reverted call at its block to recover the reason
func (x *execution) replayRevert(ctx context.Context, p plan, call *router.Call, block *big.Int) types.ErrorKind {
	_, err := x.e.node.CallContract(ctx, ethereum.CallMsg{
		From:  p.owner,
		To:    &call.To,
		Value: call.Value,
		Data:  call.Data,
	}, block)
	if err == nil {
		return types.KindSwapReverted
	}

	x.log.Debug().Err(err).Msg("Replayed reverted swap")
	if data := chain.RevertData(err); len(data) > 0 {
		return router.ClassifyRevertData(data)
	}
	return router.ClassifyRevert(err.Error())
}

func (x *execution) actualOut(receipt *ethtypes.Receipt, p plan) *big.Int {
	if p.pair.To.IsNative() {
		return router.NativeReceived(receipt, x.e.cfg.WETH, x.e.cfg.Router)
	}
	return router.TokenReceived(receipt, p.pair.To.Address, p.owner)
}

func (x *execution) poolToken(asset types.Asset) common.Address {
	if asset.IsNative() {
		return x.e.cfg.WETH
	}
	return asset.Address
}
