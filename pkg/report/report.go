// Package report turns engine outcomes into presentation-neutral results and
// history records. It performs no I/O.
package report

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"base-swap/pkg/amount"
	"base-swap/pkg/history"
	"base-swap/pkg/types"
)

// Amounts are human decimal strings in the units of their asset. Empty means unknown.
type Amounts struct {
	In          string `json:"in"`
	ExpectedOut string `json:"expectedOut,omitempty"`
	MinimumOut  string `json:"minimumOut,omitempty"`
	ActualOut   string `json:"actualOut,omitempty"`
}

// Result is what the UI and storage see of a finished request
type Result struct {
	Success   bool                `json:"success"`
	Status    types.OutcomeStatus `json:"status"`
	From      string              `json:"from"`
	To        string              `json:"to"`
	Amounts   Amounts             `json:"amounts"`
	ErrorKind types.ErrorKind     `json:"errorKind,omitempty"`
	Message   string              `json:"message,omitempty"`
	TxHash    string              `json:"txHash,omitempty"`
	Wallet    string              `json:"wallet,omitempty"`
}

func format(v *big.Int, decimals uint8) string {
	if v == nil {
		return ""
	}
	return amount.Format(v, decimals)
}

// FromOutcome maps an outcome of req to a Result. The message depends on the
// error kind only.
func FromOutcome(req types.SwapRequest, out types.Outcome) Result {
	r := Result{
		Success:   out.Status == types.OutcomeConfirmed,
		Status:    out.Status,
		From:      req.From.String(),
		To:        req.To.String(),
		ErrorKind: out.Kind,
		Message:   out.Kind.Message(),
	}

	r.Amounts.In = req.Amount
	if canonical, err := amount.Canonical(req.Amount); err == nil {
		r.Amounts.In = canonical
	}
	if out.Bounds != nil {
		r.Amounts.In = format(out.Bounds.AmountIn, req.From.Decimals)
		r.Amounts.ExpectedOut = format(out.Bounds.ExpectedOut, req.To.Decimals)
		r.Amounts.MinimumOut = format(out.Bounds.MinimumOut, req.To.Decimals)
	}
	r.Amounts.ActualOut = format(out.ActualOut, req.To.Decimals)

	if out.HasTx() {
		r.TxHash = out.TxHash.Hex()
	}
	if req.Owner != (common.Address{}) {
		r.Wallet = req.Owner.Hex()
	}
	return r
}

// Recordable reports whether the result should be offered to storage: only
// outcomes that left a transaction on chain are recorded.
func Recordable(r Result) bool {
	return r.TxHash != "" && r.Wallet != ""
}

// ToRecord builds the history record of r. The output amount is the actual
// one when known, else the quoted expectation.
func ToRecord(r Result) *history.Transaction {
	toAmount := r.Amounts.ActualOut
	if toAmount == "" {
		toAmount = r.Amounts.ExpectedOut
	}
	return &history.Transaction{
		FromToken:     r.From,
		ToToken:       r.To,
		FromAmount:    r.Amounts.In,
		ToAmount:      toAmount,
		WalletAddress: r.Wallet,
		Status:        string(r.Status),
		Hash:          r.TxHash,
	}
}
