package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/config"
)

func newTestClient(baseURL, apiKey string) *Client {
	return NewClient(&config.AIConfig{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Model:   "gemini-1.5-pro",
	}, zap.NewNop().Sugar())
}

func TestGenerateReturnsCandidateText(t *testing.T) {
	var gotPath string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{"content": map[string]interface{}{"parts": []map[string]string{{"text": "looks good"}}}},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "key")
	text, err := c.Generate(context.Background(), "analyze this")
	require.NoError(t, err)
	assert.Equal(t, "looks good", text)

	assert.Equal(t, "/models/gemini-1.5-pro:generateContent", gotPath)
	require.Len(t, gotBody.Contents, 1)
	require.Len(t, gotBody.Contents[0].Parts, 1)
	assert.Equal(t, "analyze this", gotBody.Contents[0].Parts[0].Text)
	assert.Equal(t, 0.2, gotBody.GenerationConfig.Temperature)
	assert.Equal(t, 40, gotBody.GenerationConfig.TopK)
	assert.Equal(t, 0.95, gotBody.GenerationConfig.TopP)
	assert.Equal(t, 8192, gotBody.GenerationConfig.MaxOutputTokens)
}

func TestGenerateWithoutAPIKey(t *testing.T) {
	c := newTestClient("http://unused", "")
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperror.IsExternalServiceError(err))
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 429, "message": "quota exceeded"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "key")
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperror.IsExternalServiceError(err))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerateNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"candidates": []interface{}{}})
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "key")
	_, err := c.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperror.IsExternalServiceError(err))
}
