package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrDeclined is returned by a Signer whose holder refused to authorize a transaction
var ErrDeclined = errors.New("transaction declined by signer")

// Signer is the wallet capability: one address, one signature at a time
type Signer interface {
	Address() common.Address
	SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)
}

// KeySigner signs with a local private key
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
	signer  types.Signer
}

// NewKeySigner parses a hex private key (with or without 0x) for the given chain
func NewKeySigner(hexKey string, chainID *big.Int) (*KeySigner, error) {
	if hexKey == "" {
		return nil, fmt.Errorf("private key not configured")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return NewKeySignerFromKey(key, chainID), nil
}

// NewKeySignerFromKey wraps an already parsed key
func NewKeySignerFromKey(key *ecdsa.PrivateKey, chainID *big.Int) *KeySigner {
	return &KeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		signer:  types.LatestSignerForChainID(chainID),
	}
}

func (s *KeySigner) Address() common.Address {
	return s.address
}

func (s *KeySigner) SignTx(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}

// ConfirmFunc asks the holder of the key to authorize a transaction. label
// describes the action, e.g. "approve USDC".
type ConfirmFunc func(ctx context.Context, label string, tx *types.Transaction) bool

// ConfirmingSigner asks for authorization before every signature
type ConfirmingSigner struct {
	inner   Signer
	confirm ConfirmFunc
}

// NewConfirmingSigner wraps inner so that each SignTx first calls confirm
func NewConfirmingSigner(inner Signer, confirm ConfirmFunc) *ConfirmingSigner {
	return &ConfirmingSigner{inner: inner, confirm: confirm}
}

func (s *ConfirmingSigner) Address() common.Address {
	return s.inner.Address()
}

func (s *ConfirmingSigner) SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if !s.confirm(ctx, LabelFrom(ctx), tx) {
		return nil, ErrDeclined
	}
	return s.inner.SignTx(ctx, tx)
}

type labelKey struct{}

// WithLabel attaches a human readable description of the transaction being signed
func WithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey{}, label)
}

// LabelFrom returns the label attached by WithLabel
func LabelFrom(ctx context.Context) string {
	if label, ok := ctx.Value(labelKey{}).(string); ok {
		return label
	}
	return "transaction"
}
