package recommendations

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/auth"
)

// Handlers wraps the recommendations Service to provide HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleListByUser godoc
// @Summary List a user's recommendations
// @Tags Recommendations
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} recommendations.Recommendation
// @Router /api/problem-recommendations/user/{userId} [get]
func (h *Handlers) HandleListByUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid user id", err))
			return
		}

		recs, err := h.service.ListByUser(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, recs)
	}
}

// HandleGenerate godoc
// @Summary Generate recommendations
// @Description Picks problems around the user's current rating and stores them.
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param generateBody body recommendations.GenerateRequest true "User id and optional count"
// @Success 201 {array} recommendations.Recommendation
// @Failure 400 {object} apperror.ErrorResponse "Bad Request"
// @Failure 502 {object} apperror.ErrorResponse "Problemset source unavailable"
// @Router /api/problem-recommendations/generate [post]
func (h *Handlers) HandleGenerate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.UserID == 0 {
			auth.WriteError(w, r, apperror.NewBadRequestError("userId is required", nil))
			return
		}

		recs, err := h.service.Generate(r.Context(), req.UserID, req.Count)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, recs)
	}
}

// HandleUpdateStatus godoc
// @Summary Update a recommendation's status
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param id path int true "Recommendation ID"
// @Param statusBody body recommendations.UpdateStatusRequest true "New status"
// @Success 200 {object} recommendations.Recommendation
// @Failure 404 {object} apperror.ErrorResponse "Not Found"
// @Failure 422 {object} apperror.ErrorResponse "Invalid status"
// @Router /api/problem-recommendations/{id} [patch]
func (h *Handlers) HandleUpdateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid recommendation id", err))
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		rec, err := h.service.UpdateStatus(r.Context(), id, req.Status)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

// HandleDelete godoc
// @Summary Delete a recommendation
// @Tags Recommendations
// @Param id path int true "Recommendation ID"
// @Success 204 "No Content"
// @Failure 404 {object} apperror.ErrorResponse "Not Found"
// @Router /api/problem-recommendations/{id} [delete]
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid recommendation id", err))
			return
		}

		if err := h.service.Delete(r.Context(), id); err != nil {
			auth.WriteError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}
