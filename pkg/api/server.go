// Package api serves the token list and the swap history to the browser UI.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"base-swap/pkg/history"
)

// Config controls the HTTP listener
type Config struct {
	Addr           string
	AllowedOrigins []string
	// Metrics is mounted on /metrics when set
	Metrics http.Handler
}

// Server exposes a history.Store over HTTP
type Server struct {
	store  history.Store
	log    zerolog.Logger
	server *http.Server
}

// NewServer builds the router. The store stays owned by the caller.
func NewServer(cfg Config, store history.Store, log zerolog.Logger) *Server {
	s := &Server{
		store: store,
		log:   log.With().Str("component", "api").Logger(),
	}

	mux := chi.NewMux()
	mux.Use(s.logRequests)
	mux.Use(s.recoverer)
	mux.Use(middleware.RequestID)
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Timeout(30 * time.Second))

	mux.Route("/api", func(r chi.Router) {
		r.Get("/tokens", s.listTokens)
		r.Post("/transactions", s.createTransaction)
		r.Get("/transactions/{walletAddress}", s.listTransactions)
	})
	if cfg.Metrics != nil {
		mux.Handle("/metrics", cfg.Metrics)
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           newCORSHandler(cfg.AllowedOrigins, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full handler chain, CORS included
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// ListenAndServe blocks until ctx is done, then shuts the listener down
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("Shutting down HTTP server")
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) listTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := s.store.ListTokens(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list tokens")
		writeError(w, http.StatusInternalServerError, "Failed to fetch tokens")
		return
	}
	if tokens == nil {
		tokens = []history.Token{}
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var tx history.Transaction
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&tx); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid transaction data")
		return
	}

	stored, err := s.store.Insert(r.Context(), &tx)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, stored)
	case errors.Is(err, history.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid transaction data")
	case errors.Is(err, history.ErrDuplicateHash):
		writeError(w, http.StatusConflict, "Transaction already recorded")
	default:
		s.log.Error().Err(err).Str("hash", tx.Hash).Msg("Failed to store transaction")
		writeError(w, http.StatusInternalServerError, "Failed to create transaction")
	}
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	wallet := chi.URLParam(r, "walletAddress")
	txs, err := s.store.ListByWallet(r.Context(), wallet)
	if err != nil {
		s.log.Error().Err(err).Str("wallet", wallet).Msg("Failed to list transactions")
		writeError(w, http.StatusInternalServerError, "Failed to fetch transactions")
		return
	}
	if txs == nil {
		txs = []history.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
