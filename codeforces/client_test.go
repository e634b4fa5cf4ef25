package codeforces

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
)

// newStubAPI serves a minimal Codeforces API: one known handle with a fixed
// submission and rating history.
func newStubAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/user.info", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("handles") != "tourist_jr" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "FAILED", "comment": "handles: User not found",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "OK",
			"result": []map[string]interface{}{{
				"handle":    "tourist_jr",
				"rating":    1500,
				"maxRating": 1600,
				"rank":      "expert",
				"maxRank":   "expert",
				"country":   "Finland",
			}},
		})
	})

	mux.HandleFunc("/user.status", func(w http.ResponseWriter, r *http.Request) {
		// Four submissions, three OK but one is a duplicate problem, so two
		// distinct solved problems.
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "OK",
			"result": []map[string]interface{}{
				{"verdict": "OK", "problem": map[string]interface{}{"contestId": 1, "index": "A"}},
				{"verdict": "WRONG_ANSWER", "problem": map[string]interface{}{"contestId": 1, "index": "B"}},
				{"verdict": "OK", "problem": map[string]interface{}{"contestId": 1, "index": "A"}},
				{"verdict": "OK", "problem": map[string]interface{}{"contestId": 2, "index": "C"}},
			},
		})
	})

	mux.HandleFunc("/user.rating", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "OK",
			"result": []map[string]interface{}{
				{"contestId": 1}, {"contestId": 2}, {"contestId": 3},
			},
		})
	})

	mux.HandleFunc("/problemset.problems", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "OK",
			"result": map[string]interface{}{
				"problems": []map[string]interface{}{
					{"contestId": 1, "index": "A", "name": "Theatre Square", "rating": 1000, "tags": []string{"math"}},
					{"contestId": 1, "index": "B", "name": "Unrated Mystery", "tags": []string{"implementation"}},
					{"contestId": 2, "index": "C", "name": "Graph Walk", "rating": 1700, "tags": []string{"graphs", "dfs"}},
				},
			},
		})
	})

	return httptest.NewServer(mux)
}

func TestFetchProfile(t *testing.T) {
	srv := newStubAPI(t)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop().Sugar())
	snap, err := c.FetchProfile(context.Background(), "tourist_jr")
	require.NoError(t, err)

	assert.Equal(t, 1500, snap.Rating)
	assert.Equal(t, 1600, snap.MaxRating)
	assert.Equal(t, "expert", snap.Rank)
	assert.Equal(t, 2, snap.ProblemsSolved)
	assert.Equal(t, 3, snap.ContestsParticipated)
	assert.Equal(t, "Finland", snap.ProfileData["country"])
}

func TestFetchProfileUnknownHandle(t *testing.T) {
	srv := newStubAPI(t)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop().Sugar())
	_, err := c.FetchProfile(context.Background(), "nobody")
	require.Error(t, err)
	assert.True(t, apperror.IsExternalServiceError(err))
	assert.Contains(t, err.Error(), "User not found")
}

func TestFetchProfileUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", zap.NewNop().Sugar())
	_, err := c.FetchProfile(context.Background(), "tourist_jr")
	require.Error(t, err)
	assert.True(t, apperror.IsExternalServiceError(err))
}

func TestFetchProblemsFiltersUnrated(t *testing.T) {
	srv := newStubAPI(t)
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop().Sugar())
	problems, err := c.FetchProblems(context.Background())
	require.NoError(t, err)

	require.Len(t, problems, 2)
	assert.Equal(t, "1/A", problems[0].ID())
	assert.Equal(t, "https://codeforces.com/problemset/problem/2/C", problems[1].URL())
}
