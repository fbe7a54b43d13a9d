// Package session exposes the working-context REST resource.
package session

import (
	"encoding/json"
	"net/http"
	"strings"

	"pmo_suite/pkg/api/envelope"
	coresession "pmo_suite/pkg/core/session"
)

// Handler routes session requests to the in-memory store.
type Handler struct {
	store *coresession.Store
}

// NewHandler creates the session handler.
func NewHandler(store *coresession.Store) *Handler {
	return &Handler{store: store}
}

type beginRequest struct {
	ProgramID string `json:"programId"`
}

// HandleCollection serves POST /api/sessions: begin a session.
func (h *Handler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	var req beginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, "invalid JSON body")
		return
	}
	if req.ProgramID == "" {
		envelope.BadRequest(w, "programId is required")
		return
	}
	envelope.Created(w, h.store.Begin(req.ProgramID))
}

// HandleItem serves /api/sessions/{id}: GET, DELETE, and
// PUT /{id}/program to switch the active program.
func (h *Handler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		envelope.BadRequest(w, "session id is required")
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		sess, err := h.store.Get(id)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, sess)
	case action == "" && r.Method == http.MethodDelete:
		h.store.End(id)
		envelope.OK(w, map[string]string{"id": id})
	case action == "program" && r.Method == http.MethodPut:
		var req beginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			envelope.BadRequest(w, "invalid JSON body")
			return
		}
		if req.ProgramID == "" {
			envelope.BadRequest(w, "programId is required")
			return
		}
		sess, err := h.store.SetActiveProgram(id, req.ProgramID)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, sess)
	default:
		envelope.BadRequest(w, "unsupported method or action")
	}
}
