// Package youtube manages per-user OAuth credentials and video publishing
// against the YouTube Data API. Credentials are stored as one JSON file per
// user; uploads use the two-phase resumable protocol.
package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Static errors for credential operations.
var (
	// ErrNotConnected is returned when no credential record exists for a user.
	ErrNotConnected = errors.New("youtube: user is not connected")
	// ErrNoRefreshToken is returned when a refresh is attempted without a
	// stored refresh token.
	ErrNoRefreshToken = errors.New("youtube: no refresh token available")
)

// CredentialRecord is a user's stored OAuth token bundle.
type CredentialRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expires_in"`
	Scope     string `json:"scope"`
	// CreatedAt is the unix timestamp of token issuance. It is updated on
	// every successful refresh.
	CreatedAt int64 `json:"created_at"`
}

// Expired reports whether the access token has outlived its lifetime at the
// given instant: now - created_at >= expires_in.
func (r CredentialRecord) Expired(now time.Time) bool {
	return now.Unix()-r.CreatedAt >= r.ExpiresIn
}

// Store persists one credential record per user identifier on disk.
//
// The expiry-check-then-refresh sequence is not serialized: two concurrent
// publishes for the same user can both observe an expired token and both
// refresh. Both refreshes succeed against Google, so this is accepted rather
// than guarded with per-user locking.
type Store struct {
	dir string
}

// NewStore creates a credential store rooted at dir, creating the directory
// if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create credentials directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// path returns the credential file path for a user.
func (s *Store) path(userID string) string {
	return filepath.Join(s.dir, "youtube_"+userID+".json")
}

// Load reads the credential record for a user.
// Returns ErrNotConnected if no record exists.
func (s *Store) Load(userID string) (CredentialRecord, error) {
	data, err := os.ReadFile(s.path(userID)) // #nosec G304 - path is store-controlled
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return CredentialRecord{}, ErrNotConnected
		}
		return CredentialRecord{}, fmt.Errorf("read credentials: %w", err)
	}

	var rec CredentialRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return CredentialRecord{}, fmt.Errorf("parse credentials: %w", err)
	}
	return rec, nil
}

// Save writes the credential record for a user, atomically replacing any
// existing record.
func (s *Store) Save(userID string, rec CredentialRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "youtube_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp credentials file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close credentials file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(userID)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace credentials file: %w", err)
	}
	return nil
}

// Connected reports whether a credential record exists for the user.
// Presence does not imply the token is still valid.
func (s *Store) Connected(userID string) bool {
	_, err := s.Load(userID)
	return err == nil
}
