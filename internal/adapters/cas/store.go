// Package cas stores optimization results addressed by their run fingerprint.
package cas

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/pareto/internal/core/domain"
	"go.trai.ch/pareto/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// CacheDirEnv overrides the default result store location.
	CacheDirEnv = "PARETO_CACHE_DIR"

	dirPerm  = 0o750
	filePerm = 0o644
)

var _ ports.ResultStore = (*Store)(nil)

// Store implements ports.ResultStore with one JSON file per fingerprint,
// sharded by the first two characters of the fingerprint.
type Store struct {
	root string
}

// NewStore creates a Store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{root: filepath.Clean(dir)}
}

// DefaultDir returns $PARETO_CACHE_DIR, or the user cache directory.
func DefaultDir() string {
	if dir := os.Getenv(CacheDirEnv); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "pareto", "results")
}

// Root returns the directory the store writes to.
func (s *Store) Root() string {
	return s.root
}

// Get retrieves the result stored under fingerprint.
func (s *Store) Get(fingerprint string) (*domain.Result, error) {
	filename, err := s.filename(fingerprint)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // Path is built from the store root and a validated fingerprint
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, storeError(domain.ErrStoreReadFailed, err, fingerprint)
	}

	var result domain.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, storeError(domain.ErrStoreUnmarshalFailed, err, fingerprint)
	}
	if result.Warnings == nil {
		result.Warnings = []domain.Warning{}
	}
	result.Cached = true
	return &result, nil
}

// Put stores result under fingerprint, replacing any previous entry.
// The file is written to a temporary name first so readers never see a torn entry.
func (s *Store) Put(fingerprint string, result *domain.Result) error {
	filename, err := s.filename(fingerprint)
	if err != nil {
		return err
	}

	stored := *result
	stored.Cached = false
	data, err := json.MarshalIndent(&stored, "", "  ")
	if err != nil {
		return storeError(domain.ErrStoreMarshalFailed, err, fingerprint)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return storeError(domain.ErrStoreCreateFailed, err, fingerprint)
	}

	tmp, err := os.CreateTemp(dir, "."+fingerprint+"-*")
	if err != nil {
		return storeError(domain.ErrStoreWriteFailed, err, fingerprint)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return storeError(domain.ErrStoreWriteFailed, err, fingerprint)
	}
	if err := tmp.Close(); err != nil {
		return storeError(domain.ErrStoreWriteFailed, err, fingerprint)
	}
	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		return storeError(domain.ErrStoreWriteFailed, err, fingerprint)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return storeError(domain.ErrStoreWriteFailed, err, fingerprint)
	}
	return nil
}

func (s *Store) filename(fingerprint string) (string, error) {
	if len(fingerprint) < 3 || filepath.Base(fingerprint) != fingerprint {
		return "", zerr.With(zerr.Wrap(domain.ErrInvalidInput, "malformed fingerprint"), "fingerprint", fingerprint)
	}
	return filepath.Join(s.root, fingerprint[:2], fingerprint+".json"), nil
}

func storeError(sentinel, cause error, fingerprint string) error {
	return zerr.With(zerr.Wrap(sentinel, cause.Error()), "fingerprint", fingerprint)
}
