package resources

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/auth"
)

// Handlers wraps the resources Service to provide HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// HandleList godoc
// @Summary List learning resources
// @Description Lists catalog entries, optionally filtered by type, difficulty, or tag.
// @Tags Resources
// @Produce json
// @Param type query string false "Resource type"
// @Param difficulty query string false "Difficulty"
// @Param tag query string false "Tag"
// @Success 200 {array} resources.Resource
// @Router /api/learning-resources [get]
func (h *Handlers) HandleList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ListFilter{
			ResourceType: r.URL.Query().Get("type"),
			Difficulty:   r.URL.Query().Get("difficulty"),
			Tag:          r.URL.Query().Get("tag"),
		}

		resources, err := h.service.List(r.Context(), filter)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, resources)
	}
}

// HandleGet godoc
// @Summary Get a learning resource
// @Tags Resources
// @Produce json
// @Param id path int true "Resource ID"
// @Success 200 {object} resources.Resource
// @Failure 404 {object} apperror.ErrorResponse "Not Found"
// @Router /api/learning-resources/{id} [get]
func (h *Handlers) HandleGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid resource id", err))
			return
		}

		res, err := h.service.Get(r.Context(), id)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

// HandleCreate godoc
// @Summary Add a learning resource
// @Tags Resources
// @Accept json
// @Produce json
// @Param resourceBody body resources.CreateResourceRequest true "Resource fields"
// @Success 201 {object} resources.Resource
// @Failure 400 {object} apperror.ErrorResponse "Bad Request"
// @Router /api/learning-resources [post]
func (h *Handlers) HandleCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateResourceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.Title == "" || req.URL == "" || req.ResourceType == "" {
			auth.WriteError(w, r, apperror.NewBadRequestError("title, url and resourceType are required", nil))
			return
		}

		res, err := h.service.Create(r.Context(), &req)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, res)
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
