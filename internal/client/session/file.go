package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cryptohelper "github.com/aviralrabbit1/nextNotes/internal/shared/crypto"
)

// FileName is the default session file name inside the config directory.
const FileName = "session.json"

// FileBackend stores the snapshot as a single JSON document. With a non-nil
// key the document is sealed with AES-256-GCM and the file name is used as
// associated data.
type FileBackend struct {
	path string
	key  []byte
}

func NewFileBackend(path string, key []byte) *FileBackend {
	return &FileBackend{path: path, key: key}
}

func (f *FileBackend) Path() string { return f.path }

func (f *FileBackend) Load() (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	if f.key != nil {
		data, err = cryptohelper.Open(f.key, data, f.aad())
		if err != nil {
			return Snapshot{}, err
		}
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode session file: %w", err)
	}
	return snap, nil
}

// Save writes through a temp file and rename so a crash never leaves a
// half-written session behind.
func (f *FileBackend) Save(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if f.key != nil {
		data, err = cryptohelper.Seal(f.key, data, f.aad())
		if err != nil {
			return err
		}
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *FileBackend) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileBackend) aad() []byte {
	return []byte(filepath.Base(f.path))
}
