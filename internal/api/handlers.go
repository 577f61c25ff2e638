package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/paxocial/scribe/internal/apperr"
	"github.com/paxocial/scribe/internal/engine"
)

// Handler holds API route handlers.
type Handler struct {
	svc *engine.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *engine.Service) *Handler {
	return &Handler{svc: svc}
}

// docKey extracts the doc key from the URL (everything after the route
// prefix). Supports encoded slashes from OpenAPI clients.
func docKey(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListDocs handles GET /api/docs.
func (h *Handler) ListDocs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListDocs(r.Context())
	if err != nil {
		slog.Error("list docs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errEnvelope(err))
		return
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true, Data: map[string]any{"docs": rows}})
}

// GetDoc handles GET /api/docs/*.
func (h *Handler) GetDoc(w http.ResponseWriter, r *http.Request) {
	key := docKey(r)
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errEnvelope(apperr.New(apperr.CodeInvalidRequest, "doc key is required")))
		return
	}
	detail, err := h.svc.GetDoc(r.Context(), key)
	if err != nil {
		h.fail(w, "get doc", key, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true, Data: detail, Checksum: detail.Checksum})
}

// AuditTrail handles GET /api/audit?doc=key&limit=n.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("doc")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, errEnvelope(apperr.New(apperr.CodeInvalidRequest, "query parameter 'doc' is required")))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.AuditTrail(r.Context(), key, limit)
	if err != nil {
		h.fail(w, "audit trail", key, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{OK: true, Data: map[string]any{"entries": entries}})
}

// Edit handles POST /api/edit: the single action dispatch endpoint.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var req EditRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errEnvelope(apperr.New(apperr.CodeInvalidRequest, "invalid JSON body")))
		return
	}
	if req.Doc == "" {
		writeJSON(w, http.StatusBadRequest, errEnvelope(apperr.New(apperr.CodeInvalidRequest, "doc is required")))
		return
	}
	meta := req.Metadata
	if meta == nil {
		meta = &Metadata{}
	}

	ctx := r.Context()
	switch req.Action {
	case "create_doc":
		detail, err := h.svc.CreateDoc(ctx, req.Doc, req.Content, meta.Frontmatter)
		if err != nil {
			h.fail(w, "create doc", req.Doc, err)
			return
		}
		writeJSON(w, http.StatusCreated, Envelope{OK: true, NewBody: detail.Body, Checksum: detail.Checksum})

	case "replace_range", "replace_block", "replace_section", "apply_patch":
		edit := req.Edit
		if req.Action != "apply_patch" && edit != nil && edit.Type == "" {
			withType := *edit
			withType.Type = req.Action
			edit = &withType
		}
		res, err := h.svc.EditDoc(ctx, req.Doc, engine.EditRequest{
			Edit:        edit,
			DiffText:    req.Patch,
			PreHash:     meta.PreHash,
			Frontmatter: meta.Frontmatter,
		})
		if err != nil {
			h.fail(w, req.Action, req.Doc, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{OK: true, NewBody: res.NewBody, Diff: res.Diff, Checksum: res.Checksum})

	case "delete_doc":
		if err := h.svc.DeleteDoc(ctx, req.Doc); err != nil {
			h.fail(w, req.Action, req.Doc, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{OK: true})

	case "move_doc":
		detail, err := h.svc.MoveDoc(ctx, req.Doc, meta.NewDoc)
		if err != nil {
			h.fail(w, req.Action, req.Doc, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{OK: true, NewBody: detail.Body, Checksum: detail.Checksum, Data: map[string]any{
			"key":  detail.Key,
			"path": detail.Path,
		}})

	case "normalize_headers":
		res, err := h.svc.NormalizeHeaders(ctx, req.Doc)
		if err != nil {
			h.fail(w, req.Action, req.Doc, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{OK: true, NewBody: res.NewBody, Data: map[string]any{"changed": res.Changed}})

	case "generate_toc":
		res, err := h.svc.GenerateTOC(ctx, req.Doc)
		if err != nil {
			h.fail(w, req.Action, req.Doc, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{OK: true, NewBody: res.NewBody, Data: map[string]any{
			"changed": res.Changed,
			"entries": res.Entries,
		}})

	case "validate_crosslinks":
		results, err := h.svc.ValidateCrosslinks(ctx, req.Doc, meta.CheckAnchors)
		if err != nil {
			h.fail(w, req.Action, req.Doc, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{OK: true, Data: map[string]any{"results": results}})

	case "list_checklist_items":
		items, err := h.svc.ListChecklistItems(ctx, req.Doc)
		if err != nil {
			h.fail(w, req.Action, req.Doc, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{OK: true, Data: map[string]any{"items": items}})

	case "batch":
		res, err := h.svc.Batch(ctx, req.Doc, meta.Operations)
		if err != nil {
			h.fail(w, req.Action, req.Doc, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{OK: true, NewBody: res.NewBody, Checksum: res.Checksum, Data: map[string]any{
			"applied": res.Applied,
			"diffs":   res.Diffs,
		}})

	default:
		writeJSON(w, http.StatusBadRequest, errEnvelope(apperr.New(apperr.CodeInvalidRequest, "unknown action %q", req.Action)))
	}
}

func (h *Handler) fail(w http.ResponseWriter, op, key string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(op+" failed", slog.String("doc", key), slog.String("error", err.Error()))
	}
	writeJSON(w, status, errEnvelope(err))
}
