// Package transcript holds the in-memory message log for each session the
// user has opened this run. It is a pure cache over the backend's
// persisted history: evicting an entry loses nothing that Hydrate cannot
// bring back.
package transcript

import (
	"context"
	"fmt"
	"sync"

	"github.com/ruthwikreddy07/pm-console/internal/gateway"
	"github.com/ruthwikreddy07/pm-console/pkg/models"
)

// TranscriptUnavailableError reports that a session's history could not be
// fetched. The session itself is fine; its transcript just shows empty
// until the user retries.
type TranscriptUnavailableError struct {
	SessionID string
	Err       error
}

func (e *TranscriptUnavailableError) Error() string {
	return fmt.Sprintf("transcript unavailable for %s: %v", e.SessionID, e.Err)
}

func (e *TranscriptUnavailableError) Unwrap() error {
	return e.Err
}

// HistorySource is the one backend call the cache needs.
type HistorySource interface {
	History(ctx context.Context, sessionID string) ([]gateway.HistoryEntry, error)
}

// Cache maps session ids to their ordered message logs.
type Cache struct {
	source HistorySource

	mu   sync.Mutex
	logs map[string][]models.Message
}

func NewCache(source HistorySource) *Cache {
	return &Cache{
		source: source,
		logs:   make(map[string][]models.Message),
	}
}

// Hydrate fetches the full remote transcript for the session and replaces
// whatever was cached for it. The cached entries are left untouched when
// the fetch fails.
func (c *Cache) Hydrate(ctx context.Context, sessionID string) ([]models.Message, error) {
	entries, err := c.source.History(ctx, sessionID)
	if err != nil {
		return nil, &TranscriptUnavailableError{SessionID: sessionID, Err: err}
	}

	messages := make([]models.Message, 0, len(entries))
	for _, entry := range entries {
		messages = append(messages, models.Message{
			Role:    translateRole(entry.Role),
			Content: entry.Content,
		})
	}

	c.mu.Lock()
	c.logs[sessionID] = messages
	c.mu.Unlock()
	return c.Get(sessionID), nil
}

// Append adds one message to the session's in-memory log. It never talks
// to the backend; dispatching the message is the controller's job.
func (c *Cache) Append(sessionID string, msg models.Message) {
	c.mu.Lock()
	c.logs[sessionID] = append(c.logs[sessionID], msg)
	c.mu.Unlock()
}

// Get returns a copy of the session's cached log.
func (c *Cache) Get(sessionID string) []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	log := c.logs[sessionID]
	out := make([]models.Message, len(log))
	copy(out, log)
	return out
}

// Drop forgets a session's cached log, for whole-session deletion.
func (c *Cache) Drop(sessionID string) {
	c.mu.Lock()
	delete(c.logs, sessionID)
	c.mu.Unlock()
}

// translateRole maps the backend's role vocabulary onto the local model.
// Unknown roles are shown as agent output rather than dropped.
func translateRole(role string) models.Role {
	switch role {
	case "user":
		return models.RoleUser
	default:
		return models.RoleAgent
	}
}
