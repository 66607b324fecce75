package metrics

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-swap/pkg/swap"
	"base-swap/pkg/types"
)

var (
	eth  = types.Asset{Symbol: "ETH", Kind: types.Native, Decimals: 18}
	usdc = types.Asset{Symbol: "USDC", Kind: types.Custodial, Address: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Decimals: 6}
)

type quoterFunc func() (*types.Quote, error)

func (f quoterFunc) Quote(context.Context, types.Asset, types.Asset, uint32, *big.Int) (*types.Quote, error) {
	return f()
}

func TestObserverCountsOutcomes(t *testing.T) {
	req := types.SwapRequest{From: usdc, To: eth}
	before := testutil.ToFloat64(SwapsTotal.WithLabelValues("USDC/ETH", "confirmed"))
	grantsBefore := testutil.ToFloat64(AllowanceGrantsTotal.WithLabelValues("USDC"))
	slippageBefore := testutil.ToFloat64(SwapsTotal.WithLabelValues("USDC/ETH", "slippage_exceeded"))

	var o Observer
	o.OnOutcome(req, types.Outcome{
		Status:    types.OutcomeConfirmed,
		Allowance: &types.AllowanceState{Granted: true},
	})
	o.OnOutcome(req, types.Outcome{Status: types.OutcomeFailed, Kind: types.KindSlippageExceeded})

	assert.Equal(t, before+1, testutil.ToFloat64(SwapsTotal.WithLabelValues("USDC/ETH", "confirmed")))
	assert.Equal(t, grantsBefore+1, testutil.ToFloat64(AllowanceGrantsTotal.WithLabelValues("USDC")))
	assert.Equal(t, slippageBefore+1, testutil.ToFloat64(SwapsTotal.WithLabelValues("USDC/ETH", "slippage_exceeded")))
}

func TestObserverCountsTransitions(t *testing.T) {
	before := testutil.ToFloat64(StateTransitionsTotal.WithLabelValues("quoting"))
	Observer{}.OnTransition(swap.Transition{From: types.StateIdle, To: types.StateQuoting})
	assert.Equal(t, before+1, testutil.ToFloat64(StateTransitionsTotal.WithLabelValues("quoting")))
}

func TestTimedQuoter(t *testing.T) {
	before := testutil.CollectAndCount(QuoteDuration)

	q := TimedQuoter{Next: quoterFunc(func() (*types.Quote, error) {
		return nil, errors.New("boom")
	})}
	_, err := q.Quote(t.Context(), eth, usdc, 500, big.NewInt(1))
	require.Error(t, err)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(QuoteDuration), before)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(QuoteDuration), 1)
}

func TestHandlerExposesMetrics(t *testing.T) {
	StateTransitionsTotal.WithLabelValues("confirmed").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "base_swap_state_transitions_total"))
}
