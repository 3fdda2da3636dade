package api

import (
	"net/http"
	"time"

	"github.com/savings-tracker/internal/service"
	"github.com/shopspring/decimal"
)

// handleAppendSnapshot handles POST /api/savings - append one balance snapshot
func (s *Server) handleAppendSnapshot(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Platform string          `json:"platform"`
		Account  string          `json:"account"`
		Amount   decimal.Decimal `json:"amount"`
		Time     *time.Time      `json:"time,omitempty"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	// Manual entries usually omit the timestamp and mean "now"
	observedAt := time.Now()
	if req.Time != nil {
		observedAt = *req.Time
	}

	input := &service.IngestInput{
		Platform:   req.Platform,
		Account:    req.Account,
		Amount:     req.Amount,
		ObservedAt: observedAt,
	}

	snapshot, err := s.ingestService.Ingest(r.Context(), input)
	if err != nil {
		statusCode, code, message := mapServiceError(err)
		respondError(w, statusCode, code, message, nil)
		return
	}

	respondJSON(w, http.StatusCreated, snapshot)
}
