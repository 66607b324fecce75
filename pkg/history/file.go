package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	DefaultFileName = ".base-swap-history.json"
)

// FileStore keeps the history in a JSON file
type FileStore struct {
	filePath     string
	mu           sync.RWMutex
	transactions []Transaction
	nextID       int64
	tokens       []Token
	now          func() time.Time
}

// fileContents is the JSON structure of the history file
type fileContents struct {
	NextID       int64         `json:"nextId"`
	Transactions []Transaction `json:"transactions"`
}

// NewFileStore opens the history file, creating it on first insert. An empty
// path means DefaultFileName in the home directory. tokens is the static token list.
func NewFileStore(filePath string, tokens []Token) (*FileStore, error) {
	if filePath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		filePath = filepath.Join(home, DefaultFileName)
	}

	listed := make([]Token, len(tokens))
	for i, token := range tokens {
		token.ID = int64(i + 1)
		listed[i] = token
	}

	store := &FileStore{
		filePath: filePath,
		nextID:   1,
		tokens:   listed,
		now:      time.Now,
	}

	if err := store.load(); err != nil {
		// A missing file is created on first insert
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
	}

	return store, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var contents fileContents
	if err := json.Unmarshal(data, &contents); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	s.transactions = contents.Transactions
	s.nextID = contents.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	return nil
}

// save writes the file; the caller holds the lock
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(fileContents{
		NextID:       s.nextID,
		Transactions: s.transactions,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Write to temporary file first, then rename for atomic write
	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Insert appends tx and assigns its ID
func (s *FileStore) Insert(_ context.Context, tx *Transaction) (*Transaction, error) {
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.transactions {
		if strings.EqualFold(existing.Hash, tx.Hash) {
			return nil, ErrDuplicateHash
		}
	}

	stored := *tx
	stored.ID = s.nextID
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}

	s.transactions = append(s.transactions, stored)
	s.nextID++

	if err := s.save(); err != nil {
		s.transactions = s.transactions[:len(s.transactions)-1]
		s.nextID--
		return nil, err
	}
	return &stored, nil
}

// ListByWallet returns the wallet's transactions, newest first. Addresses
// compare case-insensitively.
func (s *FileStore) ListByWallet(_ context.Context, wallet string) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Transaction, 0)
	for _, tx := range s.transactions {
		if strings.EqualFold(tx.WalletAddress, wallet) {
			result = append(result, tx)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID > result[j].ID
	})
	return result, nil
}

// ListTokens returns the static token list
func (s *FileStore) ListTokens(_ context.Context) ([]Token, error) {
	return append([]Token(nil), s.tokens...), nil
}

// FilePath returns the history file location
func (s *FileStore) FilePath() string {
	return s.filePath
}

func (s *FileStore) Close() error {
	return nil
}

var _ Store = (*FileStore)(nil)
