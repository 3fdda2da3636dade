package api

import (
	"net/http"
	"strconv"
)

// defaultHistoryDays is the trailing window used when the query string does
// not ask for one.
const defaultHistoryDays = 30

// handleGetPortfolio handles GET /api/portfolio - current portfolio rollup
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := s.portfolioService.CurrentPortfolio(r.Context())
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

// handleGetHistory handles GET /api/history?days=N - forward-filled daily
// balances per account
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDaysParam(w, r)
	if !ok {
		return
	}

	rows, err := s.portfolioService.History(r.Context(), days)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// handleGetHistoryPercentage handles GET /api/history/percentage?days=N -
// cumulative day-over-day return index per account
func (s *Server) handleGetHistoryPercentage(w http.ResponseWriter, r *http.Request) {
	days, ok := parseDaysParam(w, r)
	if !ok {
		return
	}

	rows, err := s.portfolioService.HistoryPercentage(r.Context(), days)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusOK, rows)
}

// parseDaysParam reads the days query parameter. A missing parameter falls
// back to the default window; a malformed or negative one is a client error
// and the response has already been written when ok is false.
func parseDaysParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultHistoryDays, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "days must be a non-negative integer", nil)
		return 0, false
	}
	return days, true
}
