package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/user/cpassist-go/apperror"
)

// submissionsPageSize bounds the user.status query used to count solved
// problems; the API caps result pages anyway.
const submissionsPageSize = 1000

// Client is the HTTP client for the Codeforces API. Every response uses the
// same envelope: {"status": "OK"|"FAILED", "comment": ..., "result": ...}.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.SugaredLogger
}

// NewClient creates a Codeforces API client.
func NewClient(baseURL string, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

type apiEnvelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

// get performs one API call and unmarshals the envelope's result field.
func (c *Client) get(ctx context.Context, method string, params url.Values, result interface{}) error {
	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, method, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperror.NewInternalError("failed to build Codeforces request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.NewExternalServiceError("Codeforces API is unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperror.NewExternalServiceError(
			fmt.Sprintf("Codeforces API returned status %d", resp.StatusCode), nil)
	}

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return apperror.NewExternalServiceError("failed to decode Codeforces response", err)
	}
	if envelope.Status != "OK" {
		return apperror.NewExternalServiceError(
			fmt.Sprintf("Codeforces API call failed: %s", envelope.Comment), nil)
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return apperror.NewExternalServiceError("unexpected Codeforces result shape", err)
	}
	return nil
}

// userInfo mirrors the fields of a user.info entry this application reads.
type userInfo struct {
	Handle       string `json:"handle"`
	Rating       int    `json:"rating"`
	MaxRating    int    `json:"maxRating"`
	Rank         string `json:"rank"`
	MaxRank      string `json:"maxRank"`
	Country      string `json:"country"`
	Organization string `json:"organization"`
	Contribution int    `json:"contribution"`
	Avatar       string `json:"avatar"`
	TitlePhoto   string `json:"titlePhoto"`
}

type submission struct {
	Verdict string `json:"verdict"`
	Problem struct {
		ContestID int    `json:"contestId"`
		Index     string `json:"index"`
	} `json:"problem"`
}

// FetchProfile assembles a Snapshot for one handle from three API calls:
// user.info for rating/rank, user.status for the distinct solved count, and
// user.rating for the number of rated contests. The latter two are treated
// as optional enrichment; if they fail the snapshot still carries the
// user.info fields.
func (c *Client) FetchProfile(ctx context.Context, handle string) (*Snapshot, error) {
	var infos []userInfo
	params := url.Values{"handles": {handle}}
	if err := c.get(ctx, "user.info", params, &infos); err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Codeforces handle '%s' not found", handle), nil)
	}
	info := infos[0]

	snapshot := &Snapshot{
		Rating:    info.Rating,
		MaxRating: info.MaxRating,
		Rank:      info.Rank,
		ProfileData: map[string]interface{}{
			"maxRank":      info.MaxRank,
			"country":      info.Country,
			"organization": info.Organization,
			"contribution": info.Contribution,
			"avatar":       info.Avatar,
			"titlePhoto":   info.TitlePhoto,
		},
	}

	solved, err := c.countSolved(ctx, handle)
	if err != nil {
		c.log.Warnw("failed to count solved problems", "handle", handle, "error", err)
	} else {
		snapshot.ProblemsSolved = solved
	}

	contests, err := c.countContests(ctx, handle)
	if err != nil {
		c.log.Warnw("failed to count contests", "handle", handle, "error", err)
	} else {
		snapshot.ContestsParticipated = contests
	}

	return snapshot, nil
}

// countSolved counts distinct problems with an OK verdict in the user's
// recent submissions.
func (c *Client) countSolved(ctx context.Context, handle string) (int, error) {
	var submissions []submission
	params := url.Values{
		"handle": {handle},
		"from":   {"1"},
		"count":  {fmt.Sprintf("%d", submissionsPageSize)},
	}
	if err := c.get(ctx, "user.status", params, &submissions); err != nil {
		return 0, err
	}

	solved := make(map[string]struct{})
	for _, sub := range submissions {
		if sub.Verdict != "OK" {
			continue
		}
		solved[problemID(sub.Problem.ContestID, sub.Problem.Index)] = struct{}{}
	}
	return len(solved), nil
}

// countContests returns the number of rated contests the user appeared in.
func (c *Client) countContests(ctx context.Context, handle string) (int, error) {
	var changes []json.RawMessage
	params := url.Values{"handle": {handle}}
	if err := c.get(ctx, "user.rating", params, &changes); err != nil {
		return 0, err
	}
	return len(changes), nil
}

// FetchProblems returns the problemset entries that carry a difficulty
// rating, used by the recommendation generator.
func (c *Client) FetchProblems(ctx context.Context) ([]Problem, error) {
	var result struct {
		Problems []Problem `json:"problems"`
	}
	if err := c.get(ctx, "problemset.problems", url.Values{}, &result); err != nil {
		return nil, err
	}

	rated := result.Problems[:0]
	for _, p := range result.Problems {
		if p.Rating > 0 {
			rated = append(rated, p)
		}
	}
	return rated, nil
}

func problemID(contestID int, index string) string {
	return fmt.Sprintf("%d/%s", contestID, index)
}

func problemURL(contestID int, index string) string {
	return fmt.Sprintf("https://codeforces.com/problemset/problem/%d/%s", contestID, index)
}
