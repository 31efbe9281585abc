package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSlot persists the session record as one JSON file under the user
// config directory, the desktop analog of the web client's localStorage key.
type FileSlot struct {
	path string
}

// NewFileSlot creates a file-backed slot. An empty dir defaults to
// <user config dir>/sdn1godegan-library.
func NewFileSlot(dir string) (*FileSlot, error) {
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "sdn1godegan-library")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileSlot{path: filepath.Join(dir, StorageKey+".json")}, nil
}

func (f *FileSlot) Load() (Session, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		// A corrupted record is indistinguishable from no record.
		_ = os.Remove(f.path)
		return Session{}, false, nil
	}
	return s, s.Token != "", nil
}

func (f *FileSlot) Save(s Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0o600)
}

func (f *FileSlot) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
