// Package transaction exposes the transaction REST resource.
package transaction

import (
	"encoding/json"
	"net/http"
	"strings"

	"pmo_suite/pkg/api/envelope"
	coretxn "pmo_suite/pkg/core/transaction"
	"pmo_suite/pkg/core/workflow"
)

// Handler routes transaction requests to the core service.
type Handler struct {
	svc *coretxn.Service
	bus *workflow.Bus
}

// NewHandler creates the transaction handler.
func NewHandler(svc *coretxn.Service, bus *workflow.Bus) *Handler {
	return &Handler{svc: svc, bus: bus}
}

type updateRequest struct {
	Amount      float64 `json:"amount"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
}

type batchRequest struct {
	IDs []string `json:"ids"`
}

// HandleCollection serves /api/transactions: GET lists by ?program=,
// POST creates.
func (h *Handler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		txns, err := h.svc.List(r.Context(), r.URL.Query().Get("program"))
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, txns)
	case http.MethodPost:
		var t coretxn.Transaction
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			envelope.BadRequest(w, "invalid JSON body")
			return
		}
		if t.ProgramID == "" || t.Flow == "" {
			envelope.BadRequest(w, "programId and flow are required")
			return
		}
		created, err := h.svc.Create(r.Context(), t)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.Created(w, created)
	default:
		envelope.BadRequest(w, "unsupported method")
	}
}

// HandleBatchReconcile serves POST /api/transactions/reconcile with a
// list of ids, returning per-item outcomes.
func (h *Handler) HandleBatchReconcile(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, "invalid JSON body")
		return
	}
	if len(req.IDs) == 0 {
		envelope.BadRequest(w, "ids is required")
		return
	}
	results := h.svc.BatchReconcile(r.Context(), req.IDs)
	for _, res := range results {
		if res.Success {
			h.bus.Publish("transaction.reconciled", map[string]interface{}{"transactionId": res.ID})
		}
	}
	envelope.OK(w, results)
}

// HandleItem serves /api/transactions/{id} plus the actions
// /api/transactions/{id}/(reconcile|categorize).
func (h *Handler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		envelope.BadRequest(w, "transaction id is required")
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		t, err := h.svc.Get(r.Context(), id)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, t)
	case action == "" && r.Method == http.MethodPut:
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			envelope.BadRequest(w, "invalid JSON body")
			return
		}
		t, err := h.svc.Update(r.Context(), id, req.Amount, req.Category, req.Description)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, t)
	case action == "" && r.Method == http.MethodDelete:
		if err := h.svc.Delete(r.Context(), id); err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, map[string]string{"id": id})
	case action == "reconcile" && r.Method == http.MethodPost:
		t, err := h.svc.Reconcile(r.Context(), id)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		h.bus.Publish("transaction.reconciled", map[string]interface{}{"transactionId": id})
		envelope.OK(w, t)
	case action == "categorize" && r.Method == http.MethodPost:
		t, err := h.svc.Categorize(r.Context(), id)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, t)
	default:
		envelope.BadRequest(w, "unsupported method or action")
	}
}
