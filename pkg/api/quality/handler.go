// Package quality exposes the checklist REST resource.
package quality

import (
	"encoding/json"
	"net/http"
	"strings"

	"pmo_suite/pkg/api/envelope"
	corequality "pmo_suite/pkg/core/quality"
)

// Handler routes checklist requests to the core service.
type Handler struct {
	svc *corequality.Service
}

// NewHandler creates the quality handler.
func NewHandler(svc *corequality.Service) *Handler {
	return &Handler{svc: svc}
}

type createRequest struct {
	ProgramID string                 `json:"programId"`
	Name      string                 `json:"name"`
	Criteria  []corequality.Criterion `json:"criteria"`
}

type evaluateRequest struct {
	Met map[string]bool `json:"met"`
}

// HandleCollection serves /api/checklists: POST creates a checklist.
func (h *Handler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, "invalid JSON body")
		return
	}
	cl, err := h.svc.CreateChecklist(r.Context(), req.ProgramID, req.Name, req.Criteria)
	if err != nil {
		envelope.Fail(w, err)
		return
	}
	envelope.Created(w, cl)
}

// HandleItem serves /api/checklists/{id}, plus /{id}/evaluate and
// /{id}/results.
func (h *Handler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/checklists/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		envelope.BadRequest(w, "checklist id is required")
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		cl, err := h.svc.GetChecklist(r.Context(), id)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, cl)
	case action == "evaluate" && r.Method == http.MethodPost:
		var req evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			envelope.BadRequest(w, "invalid JSON body")
			return
		}
		res, err := h.svc.Evaluate(r.Context(), id, req.Met)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.Created(w, res)
	case action == "results" && r.Method == http.MethodGet:
		results, err := h.svc.Results(r.Context(), id)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, results)
	default:
		envelope.BadRequest(w, "unsupported method or action")
	}
}
