package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tradelog-backend/internal/auth"
	"tradelog-backend/internal/journal"
	"tradelog-backend/internal/ledger"
	"tradelog-backend/internal/repository"
	"tradelog-backend/internal/risk"
)

const maxQueryLimit = 1000

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type Server struct {
	pool       *pgxpool.Pool
	users      *repository.UserRepo
	journal    *journal.Service
	led        *ledger.Ledger
	tokens     *auth.Manager
	httpServer *http.Server
}

func NewServer(pool *pgxpool.Pool, svc *journal.Service, led *ledger.Ledger, tokens *auth.Manager, port int, corsOrigin string) *Server {
	s := &Server{
		pool:    pool,
		users:   repository.NewUserRepo(pool),
		journal: svc,
		led:     led,
		tokens:  tokens,
	}

	mux := http.NewServeMux()

	// Auth routes (public)
	mux.HandleFunc("POST /v1/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /v1/auth/login", s.handleLogin)
	mux.HandleFunc("GET /v1/auth/me", s.handleMe)

	// Trade routes
	mux.HandleFunc("GET /v1/trades", s.handleTradeList)
	mux.HandleFunc("POST /v1/trades", s.handleTradeCreate)
	mux.HandleFunc("POST /v1/trades/preview", s.handleTradePreview)
	mux.HandleFunc("GET /v1/trades/stats", s.handleTradeStats)
	mux.HandleFunc("GET /v1/trades/day/{date}", s.handleTradesByDay)
	mux.HandleFunc("GET /v1/trades/{id}", s.handleTradeGet)
	mux.HandleFunc("PUT /v1/trades/{id}", s.handleTradeUpdate)
	mux.HandleFunc("DELETE /v1/trades/{id}", s.handleTradeDelete)

	// Wallet routes
	mux.HandleFunc("GET /v1/wallet/balance", s.handleWalletBalance)
	mux.HandleFunc("POST /v1/wallet/deposit", s.handleWalletDeposit)
	mux.HandleFunc("POST /v1/wallet/withdraw", s.handleWalletWithdraw)
	mux.HandleFunc("POST /v1/wallet/reset", s.handleWalletReset)
	mux.HandleFunc("GET /v1/wallet/transactions", s.handleWalletTransactions)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.authMiddleware(corsMiddleware(mux, corsOrigin))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	fmt.Printf("[API] REST API server started on http://localhost%s\n", s.httpServer.Addr)
	fmt.Printf("[API] Health check: http://localhost%s/health\n", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

type ctxKey int

const userIDKey ctxKey = 0

func publicPath(path string) bool {
	switch path {
	case "/health", "/v1/auth/signup", "/v1/auth/login":
		return true
	}
	return false
}

// authMiddleware resolves the current user from the bearer token and stores
// the user id in the request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPath(r.URL.Path) || r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

func currentUserID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey).(int64)
	return id
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// writeServiceError maps typed core errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, journal.ErrIncompleteTrade),
		errors.Is(err, risk.ErrBlocked),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrWalletEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrTradeNotFound),
		errors.Is(err, repository.ErrWalletNotFound),
		errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrConflict):
		writeError(w, http.StatusConflict, "wallet is busy, please retry")
	default:
		fmt.Printf("[API] Internal error: %v\n", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
