// Package history stores the swap transactions offered by callers of the
// engine and the list of tradable tokens.
package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidInput is returned when a record fails validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateHash is returned when a transaction hash is already stored
	ErrDuplicateHash = errors.New("transaction already recorded")
)

// Transaction is one recorded swap
type Transaction struct {
	ID            int64     `json:"id"`
	FromToken     string    `json:"fromToken"`
	ToToken       string    `json:"toToken"`
	FromAmount    string    `json:"fromAmount"`
	ToAmount      string    `json:"toAmount"`
	WalletAddress string    `json:"walletAddress"`
	Status        string    `json:"status"`
	Hash          string    `json:"hash"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks that every required field is present
func (t *Transaction) Validate() error {
	fields := map[string]string{
		"fromToken":     t.FromToken,
		"toToken":       t.ToToken,
		"fromAmount":    t.FromAmount,
		"toAmount":      t.ToAmount,
		"walletAddress": t.WalletAddress,
		"status":        t.Status,
		"hash":          t.Hash,
	}
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidInput, name)
		}
	}
	return nil
}

// Token is a supported asset as listed to clients
type Token struct {
	ID       int64  `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// Store persists transactions. Failures are reported to the caller, which
// must never treat them as a failure of the swap itself.
type Store interface {
	Insert(ctx context.Context, tx *Transaction) (*Transaction, error)
	ListByWallet(ctx context.Context, wallet string) ([]Transaction, error)
	ListTokens(ctx context.Context) ([]Token, error)
	Close() error
}
