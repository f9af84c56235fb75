package client

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileTokenCache keeps the token pair in a JSON file
// The file holds credentials, so it is created owner-readable only
type FileTokenCache struct {
	path string
}

func NewFileTokenCache(path string) *FileTokenCache {
	return &FileTokenCache{path: path}
}

func (c *FileTokenCache) Load() (Tokens, bool, error) {
	var tokens Tokens

	raw, err := os.ReadFile(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return tokens, false, nil
	case err != nil:
		return tokens, false, err
	}

	if err := json.Unmarshal(raw, &tokens); err != nil {
		// Corrupted cache is the same as no cache
		return Tokens{}, false, nil
	}

	if tokens.Access == "" && tokens.Refresh == "" {
		return Tokens{}, false, nil
	}

	return tokens, true, nil
}

func (c *FileTokenCache) Store(tokens Tokens) error {
	raw, err := json.Marshal(tokens)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return err
	}

	return os.WriteFile(c.path, raw, 0o600)
}

func (c *FileTokenCache) Clear() error {
	err := os.Remove(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
