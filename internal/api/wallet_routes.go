package api

import "net/http"

type amountRequest struct {
	Amount float64 `json:"amount"`
}

type balanceResponse struct {
	Message string  `json:"message,omitempty"`
	Balance float64 `json:"balance"`
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.led.Balance(r.Context(), currentUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance})
}

func (s *Server) handleWalletDeposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	balance, err := s.led.Deposit(r.Context(), currentUserID(r), req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Message: "funds added", Balance: balance})
}

func (s *Server) handleWalletWithdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	balance, err := s.led.Withdraw(r.Context(), currentUserID(r), req.Amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Message: "funds withdrawn", Balance: balance})
}

func (s *Server) handleWalletReset(w http.ResponseWriter, r *http.Request) {
	balance, err := s.led.ResetToZero(r.Context(), currentUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Message: "wallet reset", Balance: balance})
}

func (s *Server) handleWalletTransactions(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50)
	txns, err := s.led.Transactions(r.Context(), currentUserID(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}
