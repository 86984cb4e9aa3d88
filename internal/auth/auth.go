// Package auth keeps the bearer credential and current username on disk
// between runs. The console never inspects the token beyond its expiry
// claim; issuing and verifying credentials is the backend's job.
package auth

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const credentialsFile = "credentials.json"

// ErrNotLoggedIn is returned when no stored credential exists.
var ErrNotLoggedIn = errors.New("not logged in")

type credentials struct {
	Username    string `json:"username"`
	AccessToken string `json:"access_token"`
}

// Store persists one user's credential in the state directory and acts as
// the token source for the gateway client.
type Store struct {
	dir string
}

func NewStore(stateDir string) *Store {
	return &Store{dir: stateDir}
}

func (s *Store) path() string {
	return filepath.Join(s.dir, credentialsFile)
}

// Save writes the credential, replacing any previous one.
func (s *Store) Save(username, token string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(credentials{Username: username, AccessToken: token})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), data, 0o600)
}

// Clear removes the stored credential. Clearing when nothing is stored is
// a no-op.
func (s *Store) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *Store) load() (*credentials, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, ErrNotLoggedIn
	}
	if creds.Username == "" || creds.AccessToken == "" {
		return nil, ErrNotLoggedIn
	}
	return &creds, nil
}

// Username returns the logged-in user, or ErrNotLoggedIn.
func (s *Store) Username() (string, error) {
	creds, err := s.load()
	if err != nil {
		return "", err
	}
	return creds.Username, nil
}

// Token implements the gateway token source. A missing or unreadable
// credential yields an empty token; the backend rejects the call and the
// error surfaces there.
func (s *Store) Token() string {
	creds, err := s.load()
	if err != nil {
		return ""
	}
	return creds.AccessToken
}

// Expired reports whether the stored token carries an exp claim in the
// past. The signature is not verified here; only the server can do that.
// Tokens without an expiry are treated as live.
func (s *Store) Expired(now time.Time) bool {
	creds, err := s.load()
	if err != nil {
		return false
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(creds.AccessToken, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(now)
}
