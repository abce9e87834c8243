package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileStore persists the credential as a JSON file with 0600 permissions,
// the default backend for interactive clients. Writes are atomic
// (temp file + rename) so a crash mid-save never leaves a truncated blob.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store at the given path. When path is
// empty the credential lives under the user config directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		path = filepath.Join(dir, "auditkit", "credential.json")
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file location.
func (f *FileStore) Path() string { return f.path }

// Load implements CredentialStore. A missing, malformed, or locally expired
// file is reported as absent; malformed and expired files are discarded so
// the next bootstrap does not trip over them again.
func (f *FileStore) Load(ctx context.Context) (*Credential, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		_ = f.Clear(ctx)
		return nil, nil
	}
	if !cred.Valid(time.Now()) {
		_ = f.Clear(ctx)
		return nil, nil
	}
	return &cred, nil
}

// Save implements CredentialStore.
func (f *FileStore) Save(_ context.Context, cred Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit credential file: %w", err)
	}
	return nil
}

// Clear implements CredentialStore. Clearing an absent file is a no-op.
func (f *FileStore) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
