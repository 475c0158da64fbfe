// Package vault manages the local key that seals the persisted session.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	cryptohelper "github.com/aviralrabbit1/nextNotes/internal/shared/crypto"
)

const fileName = "vault.key"

var (
	ErrExists     = errors.New("vault key already exists")
	ErrInvalidKey = errors.New("invalid vault key")
)

// Path returns the key location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

func Exists(dir string) bool {
	_, err := os.Stat(Path(dir))
	return err == nil
}

// Generate creates and stores a new random key. It refuses to overwrite an
// existing one since that would make the sealed session unreadable.
func Generate(dir string) ([]byte, error) {
	if Exists(dir) {
		return nil, ErrExists
	}
	key := make([]byte, cryptohelper.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate vault key: %w", err)
	}
	if err := Save(dir, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Save writes key base64 encoded with 0600 perms.
func Save(dir string, key []byte) error {
	if len(key) != cryptohelper.KeySize {
		return ErrInvalidKey
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(key)
	return os.WriteFile(Path(dir), []byte(b64), 0o600)
}

func Load(dir string) ([]byte, error) {
	b, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, err
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(b)))
	if err != nil || len(key) != cryptohelper.KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// LoadOptional returns nil without error when no key has been generated.
func LoadOptional(dir string) ([]byte, error) {
	key, err := Load(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return key, err
}
