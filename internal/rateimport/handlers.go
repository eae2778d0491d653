package rateimport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agora-dev/backend-agora/internal/common"
)

// Handler exposes the bulk rate replace endpoint for producers.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type importRequest struct {
	Columns []string   `json:"columns" validate:"required,min=1"`
	Rows    [][]string `json:"rows"`
}

// Replace validates the uploaded table and atomically replaces the
// producer's override rates. Any invalid row rejects the whole upload and
// returns the complete per-row error list.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "rate import service not configured", nil)
		return
	}
	producerID, err := uuid.Parse(chi.URLParam(r, "producerID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid producer id", nil)
		return
	}
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid import request", common.FieldErrors(err))
			return
		}
	}
	result, err := h.Svc.Import(r.Context(), producerID, req.Columns, req.Rows)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			common.JSONError(w, http.StatusUnprocessableEntity, "IMPORT_REJECTED", "rate import rejected", verr.Errors)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to replace producer rates", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
