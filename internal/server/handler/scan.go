// Package handler holds the HTTP handlers of the API server.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/scan"
)

// ScanService defines the methods that the scan handler requires.
type ScanService interface {
	Run(ctx context.Context, req scan.Request) (*scan.Result, error)
	RecentCandidates(ctx context.Context, limit int) ([]domain.Candidate, error)
}

// ScanDefaults fill in request fields the caller omits.
type ScanDefaults struct {
	PriceMin         float64
	PriceMax         float64
	MinProfitPercent float64
}

// ScanHandler serves scan trigger and candidate history endpoints.
type ScanHandler struct {
	scans    ScanService
	defaults ScanDefaults
	logger   *slog.Logger
}

// NewScanHandler creates a ScanHandler with the given service and defaults.
func NewScanHandler(scans ScanService, defaults ScanDefaults, logger *slog.Logger) *ScanHandler {
	return &ScanHandler{scans: scans, defaults: defaults, logger: logger}
}

// scanRequestBody is the optional JSON body of a scan trigger. Omitted
// fields fall back to the configured defaults.
type scanRequestBody struct {
	PriceMin         *float64 `json:"price_min"`
	PriceMax         *float64 `json:"price_max"`
	MinProfitPercent *float64 `json:"min_profit_percent"`
}

// scanResponse is the JSON shape of a completed scan.
type scanResponse struct {
	Candidates []domain.Candidate `json:"candidates"`
	Warnings   []string           `json:"warnings"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
}

// TriggerScan runs one scan synchronously and returns the ranked candidates.
// POST /api/scan
func (h *ScanHandler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	req := scan.Request{
		PriceMin:         h.defaults.PriceMin,
		PriceMax:         h.defaults.PriceMax,
		MinProfitPercent: h.defaults.MinProfitPercent,
		RequestedBy:      "api",
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > 0 {
		var in scanRequestBody
		if err := json.Unmarshal(body, &in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if in.PriceMin != nil {
			req.PriceMin = *in.PriceMin
		}
		if in.PriceMax != nil {
			req.PriceMax = *in.PriceMax
		}
		if in.MinProfitPercent != nil {
			req.MinProfitPercent = *in.MinProfitPercent
		}
	}

	if req.PriceMin < 0 || req.MinProfitPercent < 0 || req.PriceMax <= req.PriceMin {
		writeError(w, http.StatusBadRequest, "invalid price band")
		return
	}

	res, err := h.scans.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLockHeld):
			writeError(w, http.StatusConflict, "a scan is already running")
		case errors.Is(err, domain.ErrUnauthorized):
			writeError(w, http.StatusBadGateway, "marketplace session rejected")
		default:
			h.logger.ErrorContext(r.Context(), "handler: scan failed",
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "scan failed")
		}
		return
	}

	warnings := make([]string, 0, len(res.Warnings))
	for _, warn := range res.Warnings {
		warnings = append(warnings, warn.String())
	}
	candidates := res.Candidates
	if candidates == nil {
		candidates = []domain.Candidate{}
	}

	writeJSON(w, http.StatusOK, scanResponse{
		Candidates: candidates,
		Warnings:   warnings,
		StartedAt:  res.StartedAt.Format(time.RFC3339),
		FinishedAt: res.FinishedAt.Format(time.RFC3339),
	})
}

// ListRecent returns the most recently recorded candidates.
// GET /api/candidates/recent?limit=20
func (h *ScanHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 20, 200)

	candidates, err := h.scans.RecentCandidates(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list recent candidates failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list candidates")
		return
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}

	writeJSON(w, http.StatusOK, map[string]any{"candidates": candidates})
}
