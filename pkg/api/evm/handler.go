// Package evm exposes the EVM snapshot and reporting REST resource.
package evm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"pmo_suite/pkg/api/envelope"
	coreevm "pmo_suite/pkg/core/evm"
	"pmo_suite/pkg/core/evmreport"
	"pmo_suite/pkg/core/rowstore"
	coretxn "pmo_suite/pkg/core/transaction"
)

// Handler routes EVM requests to the snapshot service.
type Handler struct {
	reports *evmreport.Service
	txns    *coretxn.Service
	policy  coreevm.Policy
}

// NewHandler creates the EVM handler.
func NewHandler(reports *evmreport.Service, txns *coretxn.Service, policy coreevm.Policy) *Handler {
	return &Handler{reports: reports, txns: txns, policy: policy}
}

type snapshotRequest struct {
	ProgramID string  `json:"programId"`
	Date      string  `json:"date"` // YYYY-MM-DD, today when empty
	PV        float64 `json:"pv"`
	EV        float64 `json:"ev"`
	AC        float64 `json:"ac"`
	BAC       float64 `json:"bac"`
}

// HandleSnapshots serves /api/evm/snapshots: GET history by ?program=,
// POST records a new period.
func (h *Handler) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		program := r.URL.Query().Get("program")
		if program == "" {
			envelope.BadRequest(w, "program query parameter is required")
			return
		}
		history, err := h.reports.History(r.Context(), program)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, history)
	case http.MethodPost:
		var req snapshotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			envelope.BadRequest(w, "invalid JSON body")
			return
		}
		if req.ProgramID == "" {
			envelope.BadRequest(w, "programId is required")
			return
		}
		date := time.Now().UTC()
		if req.Date != "" {
			parsed, err := time.Parse("2006-01-02", req.Date)
			if err != nil {
				envelope.BadRequest(w, "date must be YYYY-MM-DD")
				return
			}
			date = parsed
		}
		snap, err := h.reports.RecordSnapshot(r.Context(), req.ProgramID, date, coreevm.MetricInput{
			PlannedValue:       req.PV,
			EarnedValue:        req.EV,
			ActualCost:         req.AC,
			BudgetAtCompletion: req.BAC,
		})
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.Created(w, snap)
	default:
		envelope.BadRequest(w, "unsupported method")
	}
}

// HandleMetrics serves POST /api/evm/metrics: a stateless calculation
// for callers that just want the formulas.
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, "invalid JSON body")
		return
	}
	m := coreevm.CalculateMetrics(coreevm.MetricInput{
		PlannedValue:       req.PV,
		EarnedValue:        req.EV,
		ActualCost:         req.AC,
		BudgetAtCompletion: req.BAC,
	}, h.policy)
	envelope.OK(w, map[string]interface{}{
		"metrics": m,
		"health":  coreevm.CalculateHealthIndex(m),
	})
}

// HandleReport serves GET /api/evm/report?program=: the full report with
// trends and anomalies.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	program := r.URL.Query().Get("program")
	if program == "" {
		envelope.BadRequest(w, "program query parameter is required")
		return
	}
	report, err := h.reports.GenerateReport(r.Context(), program, time.Now().UTC())
	if err != nil {
		envelope.Fail(w, err)
		return
	}
	envelope.OK(w, report)
}

// HandleAnomalies serves GET /api/evm/anomalies?program=&metric=&threshold=.
func (h *Handler) HandleAnomalies(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	program := r.URL.Query().Get("program")
	if program == "" {
		envelope.BadRequest(w, "program query parameter is required")
		return
	}
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		metric = "cpi"
	}
	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			envelope.BadRequest(w, "threshold must be a number")
			return
		}
		threshold = parsed
	}
	history, err := h.reports.History(r.Context(), program)
	if err != nil {
		envelope.Fail(w, err)
		return
	}
	envelope.OK(w, coreevm.DetectAnomalies(history, metric, threshold))
}

// HandleForecast serves GET /api/evm/forecast?program=&target=: cost
// projection as of the target date plus a completion-date projection from
// the snapshot series.
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	program := r.URL.Query().Get("program")
	if program == "" {
		envelope.BadRequest(w, "program query parameter is required")
		return
	}
	now := time.Now().UTC()
	target := now.AddDate(0, 3, 0)
	if raw := r.URL.Query().Get("target"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			envelope.BadRequest(w, "target must be YYYY-MM-DD")
			return
		}
		target = parsed
	}
	history, err := h.reports.History(r.Context(), program)
	if err != nil {
		envelope.Fail(w, err)
		return
	}
	if len(history) == 0 {
		envelope.Fail(w, fmt.Errorf("program %s has no snapshots: %w", program, rowstore.ErrNotFound))
		return
	}
	periods, err := h.txns.CashFlowHistory(r.Context(), program, now)
	if err != nil {
		envelope.Fail(w, err)
		return
	}
	flows := make([]coreevm.CashFlow, len(periods))
	for i, p := range periods {
		flows[i] = coreevm.CashFlow{Inflow: p.Inflow, Outflow: p.Outflow, Status: p.Status}
	}
	latest := history[len(history)-1]
	cost, err := coreevm.ForecastCost(latest.Metrics, flows, target, now)
	if err != nil {
		envelope.BadRequest(w, err.Error())
		return
	}
	envelope.OK(w, map[string]interface{}{
		"cost":       cost,
		"completion": coreevm.ForecastCompletion(history, now),
	})
}

// HandleRunway serves GET /api/evm/runway?program=&balance=: cash runway
// from the program's transaction history.
func (h *Handler) HandleRunway(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	program := r.URL.Query().Get("program")
	balanceRaw := r.URL.Query().Get("balance")
	if program == "" || balanceRaw == "" {
		envelope.BadRequest(w, "program and balance query parameters are required")
		return
	}
	balance, err := strconv.ParseFloat(balanceRaw, 64)
	if err != nil {
		envelope.BadRequest(w, "balance must be a number")
		return
	}
	now := time.Now().UTC()
	periods, err := h.txns.CashFlowHistory(r.Context(), program, now)
	if err != nil {
		envelope.Fail(w, err)
		return
	}
	flows := make([]coreevm.CashFlow, len(periods))
	for i, p := range periods {
		flows[i] = coreevm.CashFlow{Inflow: p.Inflow, Outflow: p.Outflow, Status: p.Status}
	}
	runway := coreevm.CashRunway(balance, flows, now)
	// JSON has no Infinity; report the sentinel explicitly.
	payload := map[string]interface{}{
		"averageMonthlyBurn": runway.AverageMonthlyBurn,
		"depletionDate":      runway.DepletionDate,
	}
	if runway.DepletionDate == nil {
		payload["monthsRemaining"] = "Infinity"
	} else {
		payload["monthsRemaining"] = runway.MonthsRemaining
	}
	envelope.OK(w, payload)
}
