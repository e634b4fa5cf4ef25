package routines

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/auth"
)

// Handlers wraps the routines Service to provide HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleCreate godoc
// @Summary Create a study routine
// @Description Generates a weekly plan from the questionnaire and stores it.
// @Tags Routines
// @Accept json
// @Produce json
// @Param routineBody body routines.CreateRoutineRequest true "Questionnaire answers"
// @Success 201 {object} routines.Routine
// @Failure 400 {object} apperror.ErrorResponse "Bad Request"
// @Failure 502 {object} apperror.ErrorResponse "Generation backend unavailable"
// @Router /api/study-routines [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoutineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.UserID == 0 || req.Title == "" {
			auth.WriteError(w, r, apperror.NewBadRequestError("userId and title are required", nil))
			return
		}

		routine, err := h.service.Create(r.Context(), &req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, routine)
	}
}

// HandleListByUser godoc
// @Summary List a user's study routines
// @Tags Routines
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} routines.Routine
// @Router /api/study-routines/user/{userId} [get]
func (h *Handlers) HandleListByUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid user id", err))
			return
		}

		routines, err := h.service.ListByUser(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, routines)
	}
}

// HandleGet godoc
// @Summary Get a study routine
// @Tags Routines
// @Produce json
// @Param id path int true "Routine ID"
// @Success 200 {object} routines.Routine
// @Failure 404 {object} apperror.ErrorResponse "Not Found"
// @Router /api/study-routines/{id} [get]
func (h *Handlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid routine id", err))
			return
		}

		routine, err := h.service.Get(r.Context(), id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, routine)
	}
}

// HandleDelete godoc
// @Summary Delete a study routine
// @Tags Routines
// @Param id path int true "Routine ID"
// @Success 204 "No Content"
// @Failure 404 {object} apperror.ErrorResponse "Not Found"
// @Router /api/study-routines/{id} [delete]
func (h *Handlers) HandleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid routine id", err))
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
