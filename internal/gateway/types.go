package gateway

import "fmt"

// Exchange is the agent's response to a chat, upload, approve, or reject
// call. ApprovalRequired means the agent staged an action and the
// conversation is paused until the human decides.
type Exchange struct {
	Reply            string `json:"reply"`
	ApprovalRequired bool   `json:"approval_required"`
}

// HistoryEntry is one persisted transcript entry as the backend stores it.
// The backend's role vocabulary ("user"/"assistant") is translated into
// the local model by the transcript cache.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenResponse is returned by the login endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Employee is one team roster entry.
type Employee struct {
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Skills []string `json:"skills"`
	Email  string   `json:"email"`
	Rate   float64  `json:"rate,omitempty"`
}

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned HTTP %d: %s", e.StatusCode, e.Body)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type approveRequest struct {
	SessionID string `json:"session_id"`
}

type rejectRequest struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type risksResponse struct {
	Risks []string `json:"risks"`
}
