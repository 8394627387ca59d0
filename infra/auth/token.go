package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TokenProvider supplies an access token for API authentication.
// An empty token with a nil error means the request goes out anonymously.
type TokenProvider interface {
	AccessToken() (string, error)
}

// FileTokenProvider reads a bearer token from a file on disk.
type FileTokenProvider struct {
	path string
}

// NewFileTokenProvider creates a TokenProvider that reads from the given file path.
func NewFileTokenProvider(path string) *FileTokenProvider {
	return &FileTokenProvider{path: path}
}

// AccessToken reads and returns the token, trimming whitespace.
func (f *FileTokenProvider) AccessToken() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", fmt.Errorf("reading token from %s: %w", f.path, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", f.path)
	}

	return token, nil
}

// LoadOptionalToken reads the token file if it exists.
// A missing or empty file yields "" so the client runs anonymously.
func LoadOptionalToken(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token from %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteToken stores a token with owner-only permissions.
func WriteToken(path, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating auth directory: %w", err)
	}
	return os.WriteFile(path, []byte(token), 0o600)
}
