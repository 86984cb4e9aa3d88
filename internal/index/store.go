// Package index owns the persisted list of known conversation sessions,
// one file per user. It is the source of truth for which sessions exist;
// transcripts live elsewhere and are only ever fetched for ids listed here.
package index

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/ruthwikreddy07/pm-console/pkg/models"
)

// Store persists the ordered session list for each user under the state
// directory as user_sessions_<username>.json.
type Store struct {
	dir string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

func NewStore(stateDir string) *Store {
	return &Store{
		dir:     stateDir,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

func (s *Store) filePath(user string) string {
	// Usernames come from the login form; keep them from escaping the
	// state directory.
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':':
			return '_'
		}
		return r
	}, user)
	return filepath.Join(s.dir, "user_sessions_"+safe+".json")
}

// List returns the user's sessions ordered newest-first. A missing or
// corrupt index file degrades to an empty list rather than an error.
func (s *Store) List(user string) []models.Session {
	data, err := os.ReadFile(s.filePath(user))
	if err != nil {
		return nil
	}
	var sessions []models.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil
	}
	sortNewestFirst(sessions)
	return sessions
}

// Create generates a fresh session for the user, prepends it to the index,
// and persists the full list. The id embeds a monotonic ULID, so two
// sessions created within the same millisecond still get distinct,
// time-ordered ids.
func (s *Store) Create(user string) (models.Session, error) {
	s.mu.Lock()
	createdAt := s.now()
	id, err := ulid.New(ulid.Timestamp(createdAt), s.entropy)
	s.mu.Unlock()
	if err != nil {
		return models.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	session := models.Session{
		ID:        fmt.Sprintf("session-%s-%s", user, id.String()),
		Label:     "Chat " + createdAt.Format("15:04"),
		CreatedAt: createdAt,
	}

	sessions := append([]models.Session{session}, s.List(user)...)
	if err := s.persist(user, sessions); err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// Remove deletes the session from the user's index if present. Removing an
// unknown id is a no-op.
func (s *Store) Remove(user, sessionID string) error {
	sessions := s.List(user)
	kept := sessions[:0]
	for _, sess := range sessions {
		if sess.ID != sessionID {
			kept = append(kept, sess)
		}
	}
	if len(kept) == len(sessions) {
		return nil
	}
	return s.persist(user, kept)
}

func (s *Store) persist(user string, sessions []models.Session) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode session index: %w", err)
	}
	if err := os.WriteFile(s.filePath(user), data, 0o600); err != nil {
		return fmt.Errorf("write session index: %w", err)
	}
	return nil
}

func sortNewestFirst(sessions []models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
		}
		// ULID suffixes are monotonic, so the lexically larger id is newer.
		return sessions[i].ID > sessions[j].ID
	})
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// GroupByRecency buckets sessions into Today, Yesterday, and calendar-date
// groups for display. Bucket order is Today, Yesterday, then remaining
// dates descending; sessions stay newest-first within each bucket. Empty
// buckets are omitted. Grouping an already grouped-then-flattened list
// produces the same groups.
func GroupByRecency(sessions []models.Session, now time.Time) []models.SessionGroup {
	ordered := make([]models.Session, len(sessions))
	copy(ordered, sessions)
	sortNewestFirst(ordered)

	yesterday := now.AddDate(0, 0, -1)

	var labels []string
	buckets := make(map[string][]models.Session)
	add := func(label string, sess models.Session) {
		if _, ok := buckets[label]; !ok {
			labels = append(labels, label)
		}
		buckets[label] = append(buckets[label], sess)
	}

	for _, sess := range ordered {
		switch {
		case sameDay(sess.CreatedAt, now):
			add("Today", sess)
		case sameDay(sess.CreatedAt, yesterday):
			add("Yesterday", sess)
		default:
			add(sess.CreatedAt.Format("02/01/2006"), sess)
		}
	}

	// Today and Yesterday lead even when no session fell on today.
	sort.SliceStable(labels, func(i, j int) bool {
		return groupRank(labels[i]) < groupRank(labels[j])
	})

	groups := make([]models.SessionGroup, 0, len(labels))
	for _, label := range labels {
		groups = append(groups, models.SessionGroup{Label: label, Sessions: buckets[label]})
	}
	return groups
}

func groupRank(label string) int {
	switch label {
	case "Today":
		return 0
	case "Yesterday":
		return 1
	default:
		// Date labels keep their first-encounter order, which is already
		// newest-first because the input is sorted.
		return 2
	}
}
