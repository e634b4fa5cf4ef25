package codeforces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/auth"
)

// Handlers exposes the Codeforces REST surface: live handle search, profile
// lookup by user, and linking a handle to a user.
type Handlers struct {
	client  *Client
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *Client, service *Service) *Handlers {
	return &Handlers{client: client, service: service}
}

// searchResponse is the live lookup payload returned by /api/codeforces/search.
type searchResponse struct {
	Handle string `json:"handle"`
	*Snapshot
}

// HandleSearch godoc
// @Summary Search a Codeforces handle
// @Description Fetches live profile statistics for a handle from the Codeforces API.
// @Tags Codeforces
// @Produce json
// @Param handle query string true "Codeforces handle"
// @Success 200 {object} codeforces.Snapshot
// @Failure 400 {object} apperror.ErrorResponse "Bad Request"
// @Failure 404 {object} apperror.ErrorResponse "Handle not found"
// @Failure 502 {object} apperror.ErrorResponse "Codeforces API unavailable"
// @Router /api/codeforces/search [get]
func (h *Handlers) HandleSearch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		handle := r.URL.Query().Get("handle")
		if handle == "" {
			auth.WriteError(w, r, apperror.NewBadRequestError("handle query parameter is required", nil))
			return
		}

		snapshot, err := h.client.FetchProfile(r.Context(), handle)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, searchResponse{Handle: handle, Snapshot: snapshot})
	}
}

// HandleGetByUser godoc
// @Summary Get a user's linked profile
// @Description Returns the stored Codeforces profile snapshot for a user.
// @Tags Codeforces
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} codeforces.Profile
// @Failure 404 {object} apperror.ErrorResponse "No linked profile"
// @Router /api/codeforces-profiles/user/{userId} [get]
func (h *Handlers) HandleGetByUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.Atoi(chi.URLParam(r, "userId"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid user id", err))
			return
		}

		profile, err := h.service.GetProfileByUserID(r.Context(), userID)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

type createProfileRequest struct {
	UserID int    `json:"userId"`
	Handle string `json:"handle"`
}

// HandleCreate godoc
// @Summary Link a Codeforces handle
// @Description Links a handle to a user and attempts an initial snapshot fetch.
// @Tags Codeforces
// @Accept json
// @Produce json
// @Param profileBody body codeforces.createProfileRequest true "User id and handle"
// @Success 201 {object} codeforces.Profile
// @Failure 400 {object} apperror.ErrorResponse "Bad Request"
// @Failure 409 {object} apperror.ErrorResponse "Profile already linked"
// @Router /api/codeforces-profiles [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.UserID == 0 || req.Handle == "" {
			auth.WriteError(w, r, apperror.NewBadRequestError("userId and handle are required", nil))
			return
		}

		profile, err := h.service.CreateProfile(r.Context(), req.UserID, req.Handle)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		// Populate the first snapshot right away when the API cooperates; the
		// scheduler takes over once the client starts tracking.
		if snapshot, err := h.client.FetchProfile(r.Context(), req.Handle); err == nil {
			if updated, err := h.service.UpsertSnapshot(r.Context(), req.UserID, req.Handle, snapshot); err == nil {
				profile = updated
			}
		}

		writeJSON(w, http.StatusCreated, profile)
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
