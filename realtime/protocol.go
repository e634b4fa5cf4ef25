// Package realtime carries the websocket side of the application: a hub that
// fans messages out to connected clients, a per-connection pump pair, and a
// scheduler that periodically refreshes tracked Codeforces profiles and
// broadcasts the results.
package realtime

import (
	"encoding/json"
	"time"
)

// Inbound message types.
const (
	TypeDebugRequest   = "debug_request"
	TypeExplainRequest = "explain_request"
	TypeStartUpdates   = "start_codeforces_updates"
	TypeStopUpdates    = "stop_codeforces_updates"
)

// Outbound message types.
const (
	TypeDebugResponse   = "debug_response"
	TypeExplainResponse = "explain_response"
	TypeError           = "error"
	TypeProfileUpdate   = "codeforces_profile_update"
)

// envelope is used to sniff the type of an inbound message before decoding
// the full payload.
type envelope struct {
	Type string `json:"type"`
}

// DebugRequest asks for debugging feedback on a piece of code. UserID is
// optional; when present the session is stored.
type DebugRequest struct {
	Type             string `json:"type"`
	ProblemStatement string `json:"problemStatement"`
	Code             string `json:"code"`
	Language         string `json:"language"`
	UserID           int    `json:"userId,omitempty"`
}

// ExplainRequest asks for an explanation of a solution.
type ExplainRequest struct {
	Type             string `json:"type"`
	ProblemStatement string `json:"problemStatement"`
	SolutionCode     string `json:"solutionCode"`
	Language         string `json:"language"`
	UserID           int    `json:"userId,omitempty"`
}

// StartUpdates begins periodic profile refreshes for a user.
type StartUpdates struct {
	Type   string `json:"type"`
	UserID int    `json:"userId"`
	Handle string `json:"handle"`
}

// StopUpdates cancels periodic refreshes for a user.
type StopUpdates struct {
	Type   string `json:"type"`
	UserID int    `json:"userId"`
}

// DebugResponse carries generated debugging feedback back to the requester.
type DebugResponse struct {
	Type     string `json:"type"`
	Response string `json:"response"`
}

// ExplainResponse carries a generated explanation back to the requester.
type ExplainResponse struct {
	Type     string `json:"type"`
	Response string `json:"response"`
}

// ErrorMessage reports a failed request to the requester.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ProfileUpdate is broadcast to every connected client after a profile
// refresh.
type ProfileUpdate struct {
	Type      string      `json:"type"`
	UserID    int         `json:"userId"`
	Handle    string      `json:"handle"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// NewProfileUpdate builds a broadcast payload with the current time.
func NewProfileUpdate(userID int, handle string, data interface{}) ProfileUpdate {
	return ProfileUpdate{
		Type:      TypeProfileUpdate,
		UserID:    userID,
		Handle:    handle,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// All outbound types marshal cleanly; this only trips on a
		// programming error.
		panic(err)
	}
	return data
}
