package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ashita-ai/tairitsu/internal/model"
	"github.com/ashita-ai/tairitsu/internal/storage"
)

// HandleCreateMatter handles POST /v1/matters.
func (h *Handlers) HandleCreateMatter(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	var req model.CreateMatterRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if err := validateMatterRequest(req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	matter, err := h.db.CreateMatter(r.Context(), claims.UserID(), req)
	if err != nil {
		h.writeInternalError(w, r, "failed to create matter", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, matter)
}

func validateMatterRequest(req model.CreateMatterRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(req.Title) > model.MaxTitleLen {
		return fmt.Errorf("title exceeds %d characters", model.MaxTitleLen)
	}
	if req.ClientName != nil && len(*req.ClientName) > model.MaxNameLen {
		return fmt.Errorf("client_name exceeds %d characters", model.MaxNameLen)
	}
	if req.AdverseParty != nil && len(*req.AdverseParty) > model.MaxNameLen {
		return fmt.Errorf("adverse_party exceeds %d characters", model.MaxNameLen)
	}
	if req.Description != nil && len(*req.Description) > model.MaxDescriptionLen {
		return fmt.Errorf("description exceeds %d bytes", model.MaxDescriptionLen)
	}
	return nil
}

// HandleListMatters handles GET /v1/matters.
// Supports status, limit and offset query parameters.
func (h *Handlers) HandleListMatters(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	var status *model.MatterStatus
	if s := r.URL.Query().Get("status"); s != "" {
		ms := model.MatterStatus(s)
		switch ms {
		case model.MatterActive, model.MatterPending, model.MatterClosed, model.MatterArchived:
			status = &ms
		default:
			writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid status: "+s)
			return
		}
	}

	matters, err := h.db.ListMattersPage(r.Context(), claims.UserID(), status, limit, offset)
	if err != nil {
		h.writeInternalError(w, r, "failed to list matters", err)
		return
	}

	total, err := h.db.CountMatters(r.Context(), claims.UserID(), status)
	if err != nil {
		h.writeInternalError(w, r, "failed to count matters", err)
		return
	}

	writeListJSON(w, r, matters, total, limit, offset)
}

// HandleGetMatter handles GET /v1/matters/{matter_id}.
func (h *Handlers) HandleGetMatter(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := parsePathUUID(r, "matter_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	matter, err := h.db.GetMatter(r.Context(), id, claims.UserID())
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "matter not found")
		return
	}
	if err != nil {
		h.writeInternalError(w, r, "failed to get matter", err)
		return
	}

	writeJSON(w, r, http.StatusOK, matter)
}

// HandleUpdateMatterStatus handles PATCH /v1/matters/{matter_id}.
func (h *Handlers) HandleUpdateMatterStatus(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())

	id, err := parsePathUUID(r, "matter_id")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	var req struct {
		Status model.MatterStatus `json:"status"`
	}
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	switch req.Status {
	case model.MatterActive, model.MatterPending, model.MatterClosed, model.MatterArchived:
	default:
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "invalid status: "+string(req.Status))
		return
	}

	if err := h.db.UpdateMatterStatus(r.Context(), id, claims.UserID(), req.Status); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "matter not found")
			return
		}
		h.writeInternalError(w, r, "failed to update matter status", err)
		return
	}

	matter, err := h.db.GetMatter(r.Context(), id, claims.UserID())
	if err != nil {
		h.writeInternalError(w, r, "failed to reload matter", err)
		return
	}

	writeJSON(w, r, http.StatusOK, matter)
}
