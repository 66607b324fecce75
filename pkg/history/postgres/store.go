package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"base-swap/pkg/history"
)

// Store implements history.Store using PostgreSQL.
type Store struct {
	pool *Pool
}

// NewStore creates a Store on an open pool.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

// Compile-time interface check.
var _ history.Store = (*Store)(nil)

// Insert stores tx and returns it with its ID and creation time.
func (s *Store) Insert(ctx context.Context, tx *history.Transaction) (*history.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO transactions (
			from_token, to_token, from_amount, to_amount, wallet_address, status, hash
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	stored := *tx
	err := s.pool.QueryRow(ctx, query,
		tx.FromToken,
		tx.ToToken,
		tx.FromAmount,
		tx.ToAmount,
		tx.WalletAddress,
		tx.Status,
		tx.Hash,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, history.ErrDuplicateHash
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	return &stored, nil
}

// ListByWallet returns the wallet's transactions, newest first.
func (s *Store) ListByWallet(ctx context.Context, wallet string) ([]history.Transaction, error) {
	query := `
		SELECT id, from_token, to_token, from_amount, to_amount, wallet_address, status, hash, created_at
		FROM transactions
		WHERE lower(wallet_address) = lower($1)
		ORDER BY id DESC
	`

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	result := make([]history.Transaction, 0)
	for rows.Next() {
		var tx history.Transaction
		if err := rows.Scan(
			&tx.ID,
			&tx.FromToken,
			&tx.ToToken,
			&tx.FromAmount,
			&tx.ToAmount,
			&tx.WalletAddress,
			&tx.Status,
			&tx.Hash,
			&tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return result, nil
}

// ListTokens returns the token table ordered by ID.
func (s *Store) ListTokens(ctx context.Context) ([]history.Token, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, symbol, name, address, decimals FROM tokens ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}

	tokens, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (history.Token, error) {
		var token history.Token
		err := row.Scan(&token.ID, &token.Symbol, &token.Name, &token.Address, &token.Decimals)
		return token, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan tokens: %w", err)
	}
	return tokens, nil
}

// SeedTokens inserts the tokens that are not present yet, matched by symbol.
func (s *Store) SeedTokens(ctx context.Context, tokens []history.Token) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO tokens (symbol, name, address, decimals)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol) DO NOTHING
	`
	for _, token := range tokens {
		if _, err := tx.Exec(ctx, query, token.Symbol, token.Name, token.Address, token.Decimals); err != nil {
			return fmt.Errorf("insert token %s: %w", token.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
