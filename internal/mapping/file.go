package mapping

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"anonymizer/internal/anonymize"
	"anonymizer/internal/fileutil"
)

const (
	fileLockRetryDelay = 25 * time.Millisecond
	fileMode           = 0o600
)

// FileStore keeps the mapping in a text file guarded by an advisory lock.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore returns a store for path. The file is created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, lock: flock.New(path + ".lock")}
}

// Location returns the mapping file path.
func (s *FileStore) Location() string {
	return "file:" + s.path
}

// Path returns the mapping file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the mapping file. A missing file yields an empty mapping.
func (s *FileStore) Load(ctx context.Context) (anonymize.Mapping, error) {
	if err := s.acquire(ctx, false); err != nil {
		return anonymize.Mapping{}, err
	}
	defer s.release()
	return ReadFile(s.path)
}

// Save rewrites the mapping file atomically.
func (s *FileStore) Save(ctx context.Context, forward map[string]string) error {
	if err := anonymize.CheckEntries(forward); err != nil {
		return fmt.Errorf("write mapping file: %w", err)
	}
	if err := s.acquire(ctx, true); err != nil {
		return err
	}
	defer s.release()

	mode := fileutil.FileMode(s.path, fileMode)
	if err := fileutil.WriteFileAtomic(s.path, FormatText(forward), mode); err != nil {
		return fmt.Errorf("write mapping file: %w", err)
	}
	return nil
}

// Close is a no-op; the lock is only held during Load and Save.
func (s *FileStore) Close() error {
	return nil
}

// ReadFile parses a mapping file without taking the store lock.
func ReadFile(path string) (anonymize.Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return anonymize.NewMapping(nil), nil
		}
		return anonymize.Mapping{}, fmt.Errorf("open mapping file: %w", err)
	}
	defer f.Close()
	return ParseText(f)
}

func (s *FileStore) acquire(ctx context.Context, exclusive bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create mapping directory: %w", err)
	}
	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = s.lock.TryLockContext(ctx, fileLockRetryDelay)
	} else {
		ok, err = s.lock.TryRLockContext(ctx, fileLockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("lock mapping file: %w", err)
	}
	if !ok {
		return fmt.Errorf("lock mapping file: not acquired")
	}
	return nil
}

func (s *FileStore) release() {
	_ = s.lock.Unlock()
}
