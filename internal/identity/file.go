package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const fileSuffix = ".id"

// FileStore keeps one <label>.id JSON file per identity in a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on first Put.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) path(label string) string {
	return filepath.Join(s.dir, label+fileSuffix)
}

func (s *FileStore) Get(_ context.Context, label string) (Credential, error) {
	if err := checkLabel(label); err != nil {
		return Credential{}, err
	}
	b, err := os.ReadFile(s.path(label))
	if errors.Is(err, fs.ErrNotExist) {
		return Credential{}, ErrNotFound
	}
	if err != nil {
		return Credential{}, fmt.Errorf("read identity %q: %w", label, err)
	}
	var cred Credential
	if err := json.Unmarshal(b, &cred); err != nil {
		return Credential{}, fmt.Errorf("decode identity %q: %w", label, err)
	}
	cred.Label = label
	return cred, nil
}

func (s *FileStore) Put(_ context.Context, cred Credential) error {
	if err := cred.Validate(); err != nil {
		return err
	}
	cred = normalize(cred)
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create wallet dir: %w", err)
	}
	b, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, cred.Label+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(cred.Label))
}

func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		labels = append(labels, strings.TrimSuffix(e.Name(), fileSuffix))
	}
	sort.Strings(labels)
	return labels, nil
}
