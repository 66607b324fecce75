package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// State is a phase of the swap state machine
type State string

const (
	StateIdle                 State = "idle"
	StateQuoting              State = "quoting"
	StateBoundsComputed       State = "bounds_computed"
	StateAllowanceCheck       State = "allowance_check"
	StateSubmitting           State = "submitting"
	StateAwaitingConfirmation State = "awaiting_confirmation"
	StateConfirmed            State = "confirmed"
	StateFailed               State = "failed"
	StateRejected             State = "rejected"
)

// IsTerminal reports whether no further transition can leave the state
func (s State) IsTerminal() bool {
	return s == StateConfirmed || s == StateFailed || s == StateRejected
}

// OutcomeStatus tags the SwapOutcome variant
type OutcomeStatus string

const (
	OutcomeSubmitted OutcomeStatus = "submitted"
	OutcomeConfirmed OutcomeStatus = "confirmed"
	OutcomeFailed    OutcomeStatus = "failed"
	OutcomeRejected  OutcomeStatus = "rejected"
)

// ErrorKind is the closed set of failure reasons exposed to collaborators
type ErrorKind string

const (
	KindNone                 ErrorKind = ""
	KindMalformedAmount      ErrorKind = "malformed_amount"
	KindAmountTooSmall       ErrorKind = "amount_too_small"
	KindInvalidTolerance     ErrorKind = "invalid_tolerance"
	KindUnsupportedPair      ErrorKind = "unsupported_pair"
	KindQuoteUnavailable     ErrorKind = "quote_unavailable"
	KindAllowanceGrantFailed ErrorKind = "allowance_grant_failed"
	KindSubmissionFailed     ErrorKind = "submission_failed"
	KindSlippageExceeded     ErrorKind = "slippage_exceeded"
	KindDeadlineExpired      ErrorKind = "deadline_expired"
	KindSwapReverted         ErrorKind = "swap_reverted"
	KindRejected             ErrorKind = "rejected"
	KindCancelled            ErrorKind = "cancelled"
)

var kindMessages = map[ErrorKind]string{
	KindMalformedAmount:      "The amount entered is not a valid number for this token.",
	KindAmountTooSmall:       "The amount is below the minimum allowed for this token.",
	KindInvalidTolerance:     "Slippage tolerance must be at least 0% and below 100%.",
	KindUnsupportedPair:      "This token pair cannot be swapped.",
	KindQuoteUnavailable:     "A price quote could not be obtained. Try again.",
	KindAllowanceGrantFailed: "The token spending approval did not complete. No swap was sent.",
	KindSubmissionFailed:     "The swap transaction could not be sent.",
	KindSlippageExceeded:     "The price moved beyond your slippage tolerance. The swap was reverted.",
	KindDeadlineExpired:      "The swap was not included before its deadline.",
	KindSwapReverted:         "The swap transaction was reverted on-chain.",
	KindRejected:             "The transaction was declined in the wallet.",
	KindCancelled:            "The swap was cancelled before anything was sent.",
}

// Message returns the fixed user-facing text of the kind
func (k ErrorKind) Message() string {
	return kindMessages[k]
}

// IsValidation reports whether the kind is raised before any network call
func (k ErrorKind) IsValidation() bool {
	switch k {
	case KindMalformedAmount, KindAmountTooSmall, KindInvalidTolerance, KindUnsupportedPair:
		return true
	}
	return false
}

// Outcome is the SwapOutcome tagged variant. TxHash is zero when no
// transaction was broadcast; ActualOut is nil when it could not be read.
type Outcome struct {
	Status    OutcomeStatus
	State     State
	TxHash    common.Hash
	ActualOut *big.Int
	Kind      ErrorKind
	Bounds    *SwapBounds
	Allowance *AllowanceState
}

// IsTerminal reports whether the outcome ends the request
func (o Outcome) IsTerminal() bool {
	return o.Status == OutcomeConfirmed || o.Status == OutcomeFailed || o.Status == OutcomeRejected
}

// HasTx reports whether a transaction identifier was produced
func (o Outcome) HasTx() bool {
	return o.TxHash != (common.Hash{})
}

// Reason is the human readable explanation derived from the kind
func (o Outcome) Reason() string {
	return o.Kind.Message()
}
