package models

import "time"

// Role identifies who authored a transcript message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	// RoleSystem marks local-only notices (transport failures and the like).
	// System messages are never persisted remotely.
	RoleSystem Role = "system"
)

// Session represents one conversation thread with the agent
type Session struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionGroup is a display bucket ("Today", "Yesterday", or a calendar
// date) holding the sessions whose creation time falls in that bucket.
// Groups are derived on demand and never persisted.
type SessionGroup struct {
	Label    string
	Sessions []Session
}

// Message is one transcript entry. Content is raw text; inline emphasis
// markup is interpreted by the presentation layer at render time.
type Message struct {
	Role    Role
	Content string
	At      time.Time
}

// ApprovalState tracks whether the displayed session is waiting on a
// human decision about an agent-proposed action.
type ApprovalState int

const (
	ApprovalIdle ApprovalState = iota
	ApprovalPending
)

func (s ApprovalState) String() string {
	if s == ApprovalPending {
		return "pending"
	}
	return "idle"
}
