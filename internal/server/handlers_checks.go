package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ashita-ai/tairitsu/internal/model"
	"github.com/ashita-ai/tairitsu/internal/storage"
)

// conflictCheckRequest is the payload for POST /v1/conflicts/check. The
// owner is always taken from the authenticated claims, never the body.
type conflictCheckRequest struct {
	ClientName        *string    `json:"client_name,omitempty"`
	AdverseParties    []string   `json:"adverse_parties,omitempty"`
	CompanyNames      []string   `json:"company_names,omitempty"`
	MatterDescription *string    `json:"matter_description,omitempty"`
	ExcludeMatterID   *uuid.UUID `json:"exclude_matter_id,omitempty"`
	Persist           bool       `json:"persist,omitempty"`
}

// HandleConflictCheck handles POST /v1/conflicts/check.
func (h *Handlers) HandleConflictCheck(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req conflictCheckRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	params := model.ConflictCheckParams{
		ClientName:        req.ClientName,
		AdverseParties:    req.AdverseParties,
		CompanyNames:      req.CompanyNames,
		MatterDescription: req.MatterDescription,
		OwnerID:           claims.UserID(),
		ExcludeMatterID:   req.ExcludeMatterID,
		Persist:           req.Persist,
	}
	if params.Empty() {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest,
			"at least one of client_name, adverse_parties, company_names or matter_description is required")
		return
	}

	result, err := h.checker.Check(r.Context(), params)
	if err != nil {
		h.writeInternalError(w, r, "conflict check failed", err)
		return
	}

	writeJSON(w, r, http.StatusOK, result)
}

// HandleListChecks handles GET /v1/checks.
// Supports status, limit and offset query parameters.
func (h *Handlers) HandleListChecks(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	var status *model.ConflictStatus
	if s := r.URL.Query().Get("status"); s != "" {
		cs := model.ConflictStatus(s)
		if cs != model.StatusPending && !model.ValidResolution(cs) {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid status: "+s)
			return
		}
		status = &cs
	}

	checks, err := h.db.ListChecks(r.Context(), claims.UserID(), status, limit, offset)
	if err != nil {
		h.writeInternalError(w, r, "failed to list checks", err)
		return
	}

	total, err := h.db.CountChecks(r.Context(), claims.UserID(), status)
	if err != nil {
		h.writeInternalError(w, r, "failed to count checks", err)
		return
	}

	writeListJSON(w, r, checks, total, limit, offset)
}

// HandleGetCheck handles GET /v1/checks/{check_id}.
func (h *Handlers) HandleGetCheck(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := parsePathUUID(r, "check_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	check, err := h.db.GetCheck(r.Context(), id, claims.UserID())
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "check not found")
		return
	}
	if err != nil {
		h.writeInternalError(w, r, "failed to get check", err)
		return
	}

	writeJSON(w, r, http.StatusOK, check)
}

// resolveCheckRequest is the payload for POST /v1/checks/{check_id}/resolution.
type resolveCheckRequest struct {
	Status model.ConflictStatus `json:"status"`
	Notes  *string              `json:"notes,omitempty"`
}

// HandleResolveCheck handles POST /v1/checks/{check_id}/resolution.
// Transitions a pending check to a terminal resolution status.
func (h *Handlers) HandleResolveCheck(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := parsePathUUID(r, "check_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	var req resolveCheckRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if !model.ValidResolution(req.Status) {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest,
			"status must be one of waived, declined, screened, cleared")
		return
	}

	err = h.db.ResolveCheck(r.Context(), id, claims.UserID(), req.Status, claims.UserID(), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "check not found")
		case errors.Is(err, storage.ErrInvalidTransition):
			writeError(w, r, http.StatusConflict, model.ErrCodeConflict, err.Error())
		default:
			h.writeInternalError(w, r, "failed to resolve check", err)
		}
		return
	}

	// Audit: resolution is a mutation of the conflicts record. Best-effort.
	if auditErr := h.db.RecordAuditEvent(r.Context(), claims.UserID(), "check_resolved", map[string]any{
		"check_id": id.String(),
		"status":   string(req.Status),
	}); auditErr != nil {
		h.logger.Warn("failed to audit check resolution", "check_id", id, "error", auditErr)
	}

	check, err := h.db.GetCheck(r.Context(), id, claims.UserID())
	if err != nil {
		h.writeInternalError(w, r, "failed to reload check", err)
		return
	}

	writeJSON(w, r, http.StatusOK, check)
}
