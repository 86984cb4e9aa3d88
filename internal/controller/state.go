package controller

import "github.com/ruthwikreddy07/pm-console/pkg/models"

// State is the complete view-facing snapshot of the conversation
// subsystem. The controller is the only writer; subscribers receive
// copies and never share backing arrays with it.
type State struct {
	User     string
	Sessions []models.Session
	Groups   []models.SessionGroup

	// ActiveID is the session bound to the displayed transcript.
	ActiveID   string
	Transcript []models.Message

	// Loading gates the send/upload/approve/reject affordances.
	Loading  bool
	Approval models.ApprovalState

	// Notice is the last non-fatal problem worth showing outside the
	// transcript (for example a failed history fetch).
	Notice string
}

func (s State) clone() State {
	out := s
	out.Sessions = append([]models.Session(nil), s.Sessions...)
	out.Transcript = append([]models.Message(nil), s.Transcript...)
	out.Groups = make([]models.SessionGroup, len(s.Groups))
	for i, g := range s.Groups {
		out.Groups[i] = models.SessionGroup{
			Label:    g.Label,
			Sessions: append([]models.Session(nil), g.Sessions...),
		}
	}
	return out
}
