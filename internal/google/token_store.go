package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// TokenStore persists the single OAuth token shared by all Google adapters.
type TokenStore interface {
	// Load returns the stored token. A missing token yields an error wrapping fs.ErrNotExist.
	Load() (*oauth2.Token, error)
	Save(token *oauth2.Token) error
	// Delete removes the stored token. Deleting a missing token is not an error.
	Delete() error
	Exists() bool
}

// authorizedUser is the on-disk layout of the token file. It matches the
// "authorized user" JSON written by Google's client libraries, so a token file
// created by another Google client for the same OAuth client keeps working.
type authorizedUser struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	TokenURI     string   `json:"token_uri,omitempty"`
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`

	// Fallback for files holding a plain oauth2.Token.
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// FileTokenStore keeps the token as a JSON file readable only by the owner.
type FileTokenStore struct {
	path         string
	tokenURI     string
	clientID     string
	clientSecret string
	scopes       []string
}

// NewFileTokenStore creates a store at path. The OAuth client details are written
// alongside the token so the file is self-describing.
func NewFileTokenStore(path string, conf *oauth2.Config) *FileTokenStore {
	s := &FileTokenStore{path: path}
	if conf != nil {
		s.tokenURI = conf.Endpoint.TokenURL
		s.clientID = conf.ClientID
		s.clientSecret = conf.ClientSecret
		s.scopes = conf.Scopes
	}
	return s
}

// Path returns the token file location.
func (s *FileTokenStore) Path() string {
	return s.path
}

// Exists reports whether the token file is present.
func (s *FileTokenStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and decodes the token file.
func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var stored authorizedUser
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  stored.Token,
		TokenType:    "Bearer",
		RefreshToken: stored.RefreshToken,
	}
	if token.AccessToken == "" {
		token.AccessToken = stored.AccessToken
	}
	if stored.TokenType != "" {
		token.TokenType = stored.TokenType
	}
	if stored.Expiry != "" {
		expiry, err := time.Parse(time.RFC3339Nano, stored.Expiry)
		if err != nil {
			return nil, fmt.Errorf("failed to parse token expiry: %w", err)
		}
		token.Expiry = expiry
	}

	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, errors.New("token file holds no credentials")
	}

	return token, nil
}

// Save writes the token atomically with 0600 permissions, creating the parent
// directory when needed.
func (s *FileTokenStore) Save(token *oauth2.Token) error {
	if token == nil {
		return errors.New("token is nil")
	}

	stored := authorizedUser{
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenURI:     s.tokenURI,
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Scopes:       s.scopes,
	}
	if !token.Expiry.IsZero() {
		stored.Expiry = token.Expiry.UTC().Format(time.RFC3339Nano)
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary token file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set token file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}

	return nil
}

// Delete removes the token file.
func (s *FileTokenStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
