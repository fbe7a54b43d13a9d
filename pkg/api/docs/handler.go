// Package docs exposes the document REST resource: Drive upload, listing,
// routing, and LLM field extraction.
package docs

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"pmo_suite/pkg/api/envelope"
	coredocs "pmo_suite/pkg/core/docs"
	"pmo_suite/pkg/core/llm"
	"pmo_suite/pkg/core/utils"
	"pmo_suite/pkg/core/workflow"
)

const extractSystemPrompt = `You extract structured fields from project documents.
Given document text, return a JSON object with any of these fields you can
identify: title, documentType, programId, date, amounts (array of
{label, value}), parties (array of strings), summary.
Return ONLY the JSON object, no markdown, no explanation.`

// Handler routes document requests. The Drive store may be nil when the
// server runs without Google credentials; Drive endpoints then 500 with
// a clear message while extraction keeps working.
type Handler struct {
	drive    *coredocs.DriveStore
	provider llm.Provider
	bus      *workflow.Bus
}

// NewHandler creates the docs handler.
func NewHandler(drive *coredocs.DriveStore, provider llm.Provider, bus *workflow.Bus) *Handler {
	return &Handler{drive: drive, provider: provider, bus: bus}
}

type uploadRequest struct {
	FolderID string `json:"folderId"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Content  string `json:"content"`
}

type routeRequest struct {
	FromFolderID string `json:"fromFolderId"`
	ToFolderID   string `json:"toFolderId"`
}

type extractRequest struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// HandleCollection serves /api/documents: GET lists ?folder=, POST
// uploads.
func (h *Handler) HandleCollection(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if h.drive == nil {
		envelope.Fail(w, fmt.Errorf("document storage is not configured"))
		return
	}
	switch r.Method {
	case http.MethodGet:
		folder := r.URL.Query().Get("folder")
		if folder == "" {
			envelope.BadRequest(w, "folder query parameter is required")
			return
		}
		documents, err := h.drive.List(r.Context(), folder)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		envelope.OK(w, documents)
	case http.MethodPost:
		var req uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			envelope.BadRequest(w, "invalid JSON body")
			return
		}
		if req.FolderID == "" || req.Name == "" {
			envelope.BadRequest(w, "folderId and name are required")
			return
		}
		if req.MimeType == "" {
			req.MimeType = "text/plain"
		}
		doc, err := h.drive.Upload(r.Context(), req.FolderID, req.Name, req.MimeType, req.Content)
		if err != nil {
			envelope.Fail(w, err)
			return
		}
		h.bus.Publish("document.uploaded", map[string]interface{}{"documentId": doc.ID, "folderId": doc.FolderID})
		envelope.Created(w, doc)
	default:
		envelope.BadRequest(w, "unsupported method")
	}
}

// HandleItem serves POST /api/documents/{id}/route.
func (h *Handler) HandleItem(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" || len(parts) != 2 || parts[1] != "route" || r.Method != http.MethodPost {
		envelope.BadRequest(w, "unsupported method or action")
		return
	}
	if h.drive == nil {
		envelope.Fail(w, fmt.Errorf("document storage is not configured"))
		return
	}
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, "invalid JSON body")
		return
	}
	if req.FromFolderID == "" || req.ToFolderID == "" {
		envelope.BadRequest(w, "fromFolderId and toFolderId are required")
		return
	}
	if err := h.drive.Route(r.Context(), id, req.FromFolderID, req.ToFolderID); err != nil {
		envelope.Fail(w, err)
		return
	}
	h.bus.Publish("document.routed", map[string]interface{}{
		"documentId": id,
		"from":       req.FromFolderID,
		"to":         req.ToFolderID,
	})
	envelope.OK(w, map[string]string{"id": id, "folderId": req.ToFolderID})
}

// HandleExtract serves POST /api/documents/extract: sanitize the given
// HTML (or take text as-is) and ask the LLM for structured fields.
func (h *Handler) HandleExtract(w http.ResponseWriter, r *http.Request) {
	if envelope.CORS(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		envelope.BadRequest(w, "unsupported method")
		return
	}
	if h.provider == nil {
		envelope.Fail(w, fmt.Errorf("no LLM provider is configured"))
		return
	}
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope.BadRequest(w, "invalid JSON body")
		return
	}
	text := req.Text
	if req.HTML != "" {
		extracted, err := coredocs.ExtractText(req.HTML)
		if err != nil {
			envelope.BadRequest(w, "failed to parse HTML: "+err.Error())
			return
		}
		text = extracted
	}
	if strings.TrimSpace(text) == "" {
		envelope.BadRequest(w, "html or text is required")
		return
	}

	raw, err := h.provider.GenerateResponse(r.Context(), text, extractSystemPrompt, nil)
	if err != nil {
		envelope.Fail(w, fmt.Errorf("extraction failed: %w", err))
		return
	}
	var fields map[string]interface{}
	if _, err := utils.SmartParse(raw, &fields); err != nil {
		envelope.Fail(w, fmt.Errorf("extraction returned unparseable output: %w", err))
		return
	}
	envelope.OK(w, fields)
}
