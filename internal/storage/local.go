package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore writes files under a root directory on local disk.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Save stores content under root/dir with a uuid prefix so concurrent
// uploads of identically named files never collide.
func (s *LocalStore) Save(dir, fileName string, content io.Reader) (string, error) {
	targetDir := filepath.Join(s.root, dir)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	stored := fmt.Sprintf("%s_%s", uuid.NewString()[:8], sanitizeFileName(fileName))
	fullPath := filepath.Join(targetDir, stored)

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("write file: %w", err)
	}

	return filepath.Join(dir, stored), nil
}

func (s *LocalStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	full := filepath.Join(s.root, filepath.Clean(path))
	if !strings.HasPrefix(full, s.root) {
		return fmt.Errorf("path escapes storage root: %s", path)
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "upload"
	}
	return name
}
