// Package budget exposes the budget REST resource.
package budget

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"pmo_suite/pkg/api/envelope"
	corebudget "pmo_suite/pkg/core/budget"
	"pmo_suite/pkg/core/workflow"
)

// Handler routes budget requests to the core service.
type Handler struct {
	svc *corebudget.Service
	bus *workflow.Bus
}

// NewHandler creates the budget handler.
func NewHandler(svc *corebudget.Service, bus *workflow.Bus) *Handler {
	return &Handler{svc: svc, bus: bus}
}

type createRequest struct {
	ProgramID string  `json:"programId"`
	Allocated float64 `json:"allocated"`
}

type amountRequest struct {
	Amount float64 `json:"amount"`
	Memo   string  `json:"memo"`
}

// HandleCollection serves /api/budgets: GET lists (optionally filtered
// by ?program=), POST creates a draft budget.
func (h *Handler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		budgets, err := h.svc.List(r.Context(), r.URL.Query().Get("program"))
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, budgets)
	case http.MethodPost:
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			envelope.BadRequest(w, "invalid JSON body")
			return
		}
		if req.ProgramID == "" {
			envelope.BadRequest(w, "programId is required")
			return
		}
		b, err := h.svc.Create(r.Context(), req.ProgramID, req.Allocated)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.Created(w, b)
	default:
		envelope.BadRequest(w, "unsupported method")
	}
}

// HandleItem serves /api/budgets/{id} and the money actions
// /api/budgets/{id}/(allocate|commit|expense|activate|close).
func (h *Handler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		envelope.BadRequest(w, "budget id is required")
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	if action == "" {
		switch r.Method {
		case http.MethodGet:
			b, err := h.svc.Get(r.Context(), id)
			if err != nil {
				envelope.Fail(w, err)
				return
			}
			envelope.OK(w, b)
		case http.MethodDelete:
			// Soft delete: closing the budget.
			b, err := h.svc.Close(r.Context(), id)
			if err != nil {
				envelope.Fail(w, err)
				return
			}
			h.bus.Publish("budget.closed", map[string]interface{}{"budgetId": id})
			envelope.OK(w, b)
		default:
			envelope.BadRequest(w, "unsupported method")
		}
		return
	}

	if action == "burnrate" && r.Method == http.MethodGet {
		rate, err := h.svc.BurnRate(r.Context(), id, time.Now().UTC())
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, map[string]interface{}{"id": id, "monthlyBurnRate": rate})
		return
	}

	if r.Method != http.MethodPost {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	var req amountRequest
	if action == "allocate" || action == "commit" || action == "expense" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			envelope.BadRequest(w, "invalid JSON body")
			return
		}
	}

	var (
		b   corebudget.Budget
		err error
	)
	switch action {
	case "allocate":
		b, err = h.svc.Allocate(r.Context(), id, req.Amount)
	case "commit":
		b, err = h.svc.Commit(r.Context(), id, req.Amount)
	case "expense":
		b, err = h.svc.RecordExpense(r.Context(), id, req.Amount, req.Memo)
	case "activate":
		b, err = h.svc.Activate(r.Context(), id)
		if err == nil {
			h.bus.Publish("budget.activated", map[string]interface{}{"budgetId": id})
		}
	case "close":
		b, err = h.svc.Close(r.Context(), id)
		if err == nil {
			h.bus.Publish("budget.closed", map[string]interface{}{"budgetId": id})
		}
	default:
		envelope.BadRequest(w, "unknown action "+action)
		return
	}
	if err != nil {
		envelope.Fail(w, err)
		return
	}
	envelope.OK(w, b)
}
