// Package workflow exposes the recurring-job REST resource.
package workflow

import (
	"net/http"
	"strings"
	"time"

	"pmo_suite/pkg/api/envelope"
	coreworkflow "pmo_suite/pkg/core/workflow"
)

// Handler serves the configured workflow definitions and lets callers
// trigger a job's event by hand.
type Handler struct {
	defs []coreworkflow.Definition
	bus  *coreworkflow.Bus
}

// NewHandler creates the workflow handler.
func NewHandler(defs []coreworkflow.Definition, bus *coreworkflow.Bus) *Handler {
	return &Handler{defs: defs, bus: bus}
}

// HandleCollection serves GET /api/workflows: the definition list with
// each job's next scheduled run.
func (h *Handler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	now := time.Now()
	out := make([]map[string]interface{}, 0, len(h.defs))
	for _, def := range h.defs {
		entry := map[string]interface{}{"definition": def}
		if next, err := coreworkflow.NextRun(def, now); err == nil {
			entry["nextRun"] = next
		} else {
			entry["error"] = err.Error()
		}
		out = append(out, entry)
	}
	envelope.OK(w, out)
}

// HandleItem serves POST /api/workflows/{id}/trigger: publish the job's
// event immediately, outside its schedule.
func (h *Handler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/workflows/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" || len(parts) != 2 || parts[1] != "trigger" || r.Method != http.MethodPost {
		envelope.BadRequest(w, "unsupported method or action")
		return
	}
	for _, def := range h.defs {
		if def.ID == id {
			eventID := h.bus.Publish(def.EventType, map[string]interface{}{"workflowId": def.ID, "manual": true})
			envelope.OK(w, map[string]string{"eventId": eventID, "eventType": def.EventType})
			return
		}
	}
	envelope.BadRequest(w, "unknown workflow "+id)
}
