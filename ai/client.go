package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/config"
)

// Client calls the Gemini generateContent endpoint. The API key is checked
// per call rather than at construction so the rest of the application runs
// without one; only generation requests fail.
type Client struct {
	cfg        *config.AIConfig
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// NewClient creates a Gemini API client.
func NewClient(cfg *config.AIConfig, log *zap.SugaredLogger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log,
	}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate sends one prompt and returns the generated text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", apperror.NewExternalServiceError("GEMINI_API_KEY is not configured", nil)
	}

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     0.2,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 8192,
		},
	})
	if err != nil {
		return "", apperror.NewInternalError("failed to encode generation request", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", apperror.NewInternalError("failed to build generation request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperror.NewExternalServiceError("Gemini API is unreachable", err)
	}
	defer resp.Body.Close()

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apperror.NewExternalServiceError("failed to decode Gemini response", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("Gemini API returned status %d", resp.StatusCode)
		if result.Error != nil {
			msg = fmt.Sprintf("%s: %s", msg, result.Error.Message)
		}
		return "", apperror.NewExternalServiceError(msg, nil)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", apperror.NewExternalServiceError("Gemini returned no candidates", nil)
	}
	return result.Candidates[0].Content.Parts[0].Text, nil
}
