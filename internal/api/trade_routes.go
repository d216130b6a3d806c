package api

import (
	"net/http"

	"tradelog-backend/internal/charges"
	"tradelog-backend/internal/journal"
)

func (s *Server) handleTradeList(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100)
	trades, err := s.journal.List(r.Context(), currentUserID(r), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleTradeGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade id")
		return
	}
	trade, err := s.journal.Get(r.Context(), currentUserID(r), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

func (s *Server) handleTradeCreate(w http.ResponseWriter, r *http.Request) {
	var in journal.TradeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trade, err := s.journal.Create(r.Context(), currentUserID(r), in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, trade)
}

func (s *Server) handleTradeUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade id")
		return
	}
	var in journal.TradeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	trade, err := s.journal.Update(r.Context(), currentUserID(r), id, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trade)
}

func (s *Server) handleTradeDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade id")
		return
	}
	balance, err := s.journal.Delete(r.Context(), currentUserID(r), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "trade deleted",
		"balance": balance,
	})
}

func (s *Server) handleTradeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.journal.Stats(r.Context(), currentUserID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleTradesByDay(w http.ResponseWriter, r *http.Request) {
	date := r.PathValue("date")
	if !validateDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}
	trades, err := s.journal.ListByDay(r.Context(), currentUserID(r), date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

type previewResponse struct {
	Computed bool            `json:"computed"`
	Outcome  charges.Outcome `json:"outcome"`
}

// handleTradePreview runs the charge calculator without persisting anything.
// It never fails: incomplete input returns a zeroed outcome with
// computed=false, so half-filled forms can render live figures.
func (s *Server) handleTradePreview(w http.ResponseWriter, r *http.Request) {
	var in journal.TradeInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	out, ok := charges.Compute(in.ChargesInput())
	writeJSON(w, http.StatusOK, previewResponse{Computed: ok, Outcome: out})
}
