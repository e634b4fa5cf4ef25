package ai

import (
	"encoding/json"
	"net/http"

	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/auth"
)

// Handlers exposes the REST variants of the generation operations. The same
// operations are also reachable over the websocket hub.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// DebugRequest is the payload for a REST debug analysis.
type DebugRequest struct {
	ProblemStatement string `json:"problemStatement"`
	Code             string `json:"code"`
	Language         string `json:"language"`
	UserID           int    `json:"userId,omitempty"`
}

// ExplainRequest is the payload for a REST explanation.
type ExplainRequest struct {
	ProblemStatement string `json:"problemStatement"`
	SolutionCode     string `json:"solutionCode"`
	Language         string `json:"language"`
	UserID           int    `json:"userId,omitempty"`
}

// ResultResponse wraps generated text for REST clients.
type ResultResponse struct {
	Result string `json:"result"`
}

// HandleDebug godoc
// @Summary Generate debug analysis
// @Description Analyzes submitted code against a problem statement and returns debugging feedback.
// @Tags AI
// @Accept json
// @Produce json
// @Param debugBody body ai.DebugRequest true "Problem statement, code and language"
// @Success 200 {object} ai.ResultResponse
// @Failure 400 {object} apperror.ErrorResponse "Bad Request"
// @Failure 502 {object} apperror.ErrorResponse "Generation backend unavailable"
// @Router /api/ai/debug [post]
func (h *Handlers) HandleDebug() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DebugRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.Code == "" || req.Language == "" {
			auth.WriteError(w, r, apperror.NewBadRequestError("code and language are required", nil))
			return
		}

		result, err := h.service.DebugAnalysis(r.Context(), req.UserID, req.ProblemStatement, req.Code, req.Language)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ResultResponse{Result: result})
	}
}

// HandleExplain godoc
// @Summary Generate solution explanation
// @Description Explains how a solution works, step by step.
// @Tags AI
// @Accept json
// @Produce json
// @Param explainBody body ai.ExplainRequest true "Problem statement, solution code and language"
// @Success 200 {object} ai.ResultResponse
// @Failure 400 {object} apperror.ErrorResponse "Bad Request"
// @Failure 502 {object} apperror.ErrorResponse "Generation backend unavailable"
// @Router /api/ai/explain [post]
func (h *Handlers) HandleExplain() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExplainRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			auth.WriteError(w, r, apperror.NewBadRequestError("invalid request body: "+err.Error(), nil))
			return
		}
		defer r.Body.Close()

		if req.SolutionCode == "" || req.Language == "" {
			auth.WriteError(w, r, apperror.NewBadRequestError("solutionCode and language are required", nil))
			return
		}

		result, err := h.service.ExplainSolution(r.Context(), req.UserID, req.ProblemStatement, req.SolutionCode, req.Language)
		if err != nil {
			auth.WriteError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ResultResponse{Result: result})
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
