package authflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
)

// SessionFile persists credentials across restarts as a JSON file keyed by
// server URL, so one file can hold sessions against several backends.
// Writes are atomic (temp file + rename) and guarded by a lock file, which
// keeps concurrent console instances from clobbering each other.
type SessionFile struct {
	path string
}

// NewSessionFile creates a SessionFile backed by path. The file is created
// lazily on the first save.
func NewSessionFile(path string) *SessionFile {
	return &SessionFile{path: path}
}

// Path returns the backing file path.
func (f *SessionFile) Path() string {
	return f.path
}

// storedSession is the on-disk form of one server's credentials.
type storedSession struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// sessionSnapshot is the on-disk form of the whole file.
type sessionSnapshot struct {
	Sessions map[string]*storedSession `json:"sessions"` // key = server URL
}

// Load returns the persisted credentials for serverURL, or nil when none
// are stored. Expiry is not validated here; the first request does that.
func (f *SessionFile) Load(serverURL string) (*oauth2.Token, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var snap sessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	stored, ok := snap.Sessions[serverURL]
	if !ok {
		return nil, nil
	}
	return &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		TokenType:    stored.TokenType,
		Expiry:       stored.ExpiresAt,
	}, nil
}

// Save stores the credentials for serverURL, preserving entries for other
// servers. The read-modify-write runs under the lock file.
func (f *SessionFile) Save(serverURL string, tok *oauth2.Token) error {
	return f.update(func(snap *sessionSnapshot) {
		snap.Sessions[serverURL] = &storedSession{
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			TokenType:    tok.TokenType,
			ExpiresAt:    tok.Expiry,
		}
	})
}

// Delete removes the credentials for serverURL, preserving other entries.
// Deleting an absent entry is not an error.
func (f *SessionFile) Delete(serverURL string) error {
	return f.update(func(snap *sessionSnapshot) {
		delete(snap.Sessions, serverURL)
	})
}

// update applies mutate to the current snapshot and writes it back
// atomically, all while holding the lock file.
func (f *SessionFile) update(mutate func(*sessionSnapshot)) error {
	lock, err := acquireFileLock(f.path)
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	defer func() {
		if releaseErr := lock.release(); releaseErr != nil {
			fmt.Fprintf(os.Stderr, "failed to release lock: %v\n", releaseErr)
		}
	}()

	var snap sessionSnapshot
	if existing, err := os.ReadFile(f.path); err == nil {
		// A corrupt file is replaced rather than failing every save.
		if unmarshalErr := json.Unmarshal(existing, &snap); unmarshalErr != nil {
			snap.Sessions = nil
		}
	}
	if snap.Sessions == nil {
		snap.Sessions = make(map[string]*storedSession)
	}

	mutate(&snap)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first, then rename over the old file.
	tempFile := f.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, f.path); err != nil {
		if removeErr := os.Remove(tempFile); removeErr != nil {
			return fmt.Errorf(
				"failed to rename temp file: %v; additionally failed to remove temp file: %w",
				err,
				removeErr,
			)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
