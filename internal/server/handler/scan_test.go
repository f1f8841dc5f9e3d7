package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tonarb/giftarb/internal/domain"
	"github.com/tonarb/giftarb/internal/scan"
)

type fakeScanService struct {
	lastReq scan.Request
	result  *scan.Result
	runErr  error
	recent  []domain.Candidate
}

func (f *fakeScanService) Run(_ context.Context, req scan.Request) (*scan.Result, error) {
	f.lastReq = req
	if f.runErr != nil {
		return nil, f.runErr
	}
	return f.result, nil
}

func (f *fakeScanService) RecentCandidates(context.Context, int) ([]domain.Candidate, error) {
	return f.recent, nil
}

func newTestHandler(svc *fakeScanService) *ScanHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewScanHandler(svc, ScanDefaults{PriceMin: 1, PriceMax: 500, MinProfitPercent: 5}, logger)
}

func TestTriggerScanDefaults(t *testing.T) {
	now := time.Now().UTC()
	svc := &fakeScanService{result: &scan.Result{
		Candidates: []domain.Candidate{{Gift: "plushpepe", Strategy: "gift_flip", Profit: 0.65}},
		StartedAt:  now,
		FinishedAt: now.Add(2 * time.Second),
	}}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.lastReq.PriceMin != 1 || svc.lastReq.PriceMax != 500 || svc.lastReq.MinProfitPercent != 5 {
		t.Errorf("request did not use defaults: %+v", svc.lastReq)
	}
	if svc.lastReq.RequestedBy != "api" {
		t.Errorf("RequestedBy = %q", svc.lastReq.RequestedBy)
	}

	var resp struct {
		Candidates []domain.Candidate `json:"candidates"`
		Warnings   []string           `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Gift != "plushpepe" {
		t.Errorf("candidates = %v", resp.Candidates)
	}
	if resp.Warnings == nil {
		t.Error("warnings should encode as an empty list, not null")
	}
}

func TestTriggerScanBodyOverrides(t *testing.T) {
	svc := &fakeScanService{result: &scan.Result{}}
	h := newTestHandler(svc)

	body := strings.NewReader(`{"price_min": 2, "price_max": 30, "min_profit_percent": 10}`)
	rec := httptest.NewRecorder()
	h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if svc.lastReq.PriceMin != 2 || svc.lastReq.PriceMax != 30 || svc.lastReq.MinProfitPercent != 10 {
		t.Errorf("overrides not applied: %+v", svc.lastReq)
	}
}

func TestTriggerScanInvalidBand(t *testing.T) {
	svc := &fakeScanService{result: &scan.Result{}}
	h := newTestHandler(svc)

	body := strings.NewReader(`{"price_min": 50, "price_max": 10}`)
	rec := httptest.NewRecorder()
	h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", body))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTriggerScanErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"lock held", domain.ErrLockHeld, http.StatusConflict},
		{"session rejected", domain.ErrUnauthorized, http.StatusBadGateway},
		{"other failure", io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&fakeScanService{runErr: tt.err})

			rec := httptest.NewRecorder()
			h.TriggerScan(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestListRecent(t *testing.T) {
	svc := &fakeScanService{recent: []domain.Candidate{{Gift: "durovcap"}}}
	h := newTestHandler(svc)

	rec := httptest.NewRecorder()
	h.ListRecent(rec, httptest.NewRequest(http.MethodGet, "/api/candidates/recent?limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Candidates []domain.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Gift != "durovcap" {
		t.Errorf("candidates = %v", resp.Candidates)
	}
}
