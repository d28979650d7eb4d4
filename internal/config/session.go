package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	apierrors "github.com/elec-mate/elecmate/internal/errors"
)

// Session holds the credentials for authenticated router calls. Both
// fields are optional; an empty session means anonymous access.
type Session struct {
	mu          sync.RWMutex `json:"-"` // Not serialized
	AccessToken string       `json:"access_token"`
	APIKey      string       `json:"api_key,omitempty"`
}

// GetAccessToken returns the bearer token in a thread-safe manner
func (s *Session) GetAccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AccessToken
}

// GetAPIKey returns the API key in a thread-safe manner
func (s *Session) GetAPIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.APIKey
}

// SetCredentials updates both credentials atomically
func (s *Session) SetCredentials(accessToken, apiKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AccessToken = accessToken
	s.APIKey = apiKey
}

// sessionListItem represents a credential in browser export format
type sessionListItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LoadSession loads the session from the session file
func LoadSession() (*Session, error) {
	sessionPath, err := GetSessionPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apierrors.ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	return parseSession(data)
}

// parseSession parses a session from JSON data.
// Supports both list format [{name, value}] and dict format {name: value},
// matching what browser export extensions produce.
func parseSession(data []byte) (*Session, error) {
	var dictFormat map[string]string
	if err := json.Unmarshal(data, &dictFormat); err == nil {
		token := dictFormat["access_token"]
		if token == "" {
			token = dictFormat["em-access-token"]
		}
		if token == "" {
			return nil, fmt.Errorf("missing required field: access_token")
		}
		key := dictFormat["api_key"]
		if key == "" {
			key = dictFormat["apikey"]
		}
		return &Session{AccessToken: token, APIKey: key}, nil
	}

	var listFormat []sessionListItem
	if err := json.Unmarshal(data, &listFormat); err == nil {
		session := &Session{}
		for _, item := range listFormat {
			switch item.Name {
			case "access_token", "em-access-token":
				session.AccessToken = item.Value
			case "api_key", "apikey":
				session.APIKey = item.Value
			}
		}
		if session.AccessToken == "" {
			return nil, fmt.Errorf("missing required field: access_token")
		}
		return session, nil
	}

	return nil, fmt.Errorf("invalid session format: expected list [{name, value}] or dict {name: value}")
}

// SaveSession saves the session to the session file
func SaveSession(session *Session) error {
	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	session.mu.RLock()
	out := map[string]string{"access_token": session.AccessToken}
	if session.APIKey != "" {
		out["api_key"] = session.APIKey
	}
	session.mu.RUnlock()

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Owner read/write only: this is the auth token
	if err := os.WriteFile(configDir+"/session.json", data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	return nil
}

// ImportSession imports a session from a source file
func ImportSession(sourcePath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("source file not found: %s", sourcePath)
		}
		return fmt.Errorf("could not read file: %w", err)
	}

	session, err := parseSession(data)
	if err != nil {
		return err
	}

	return SaveSession(session)
}

// ValidateSession checks if a session carries credentials
func ValidateSession(session *Session) error {
	if session == nil {
		return fmt.Errorf("session is nil")
	}
	if session.GetAccessToken() == "" {
		return fmt.Errorf("missing required field: access_token")
	}
	return nil
}
