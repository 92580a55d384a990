package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStore keeps each namespace in <dir>/<namespace>.json.
type FileStore struct {
	dir string
	log *slog.Logger
}

// NewFileStore constructs a FileStore rooted at dir.
func NewFileStore(dir string, log *slog.Logger) *FileStore {
	if log == nil {
		log = slog.Default()
	}
	return &FileStore{dir: dir, log: log}
}

// Path returns the file backing ns.
func (s *FileStore) Path(ns Namespace) string {
	return filepath.Join(s.dir, string(ns)+".json")
}

// Load reads the namespace file. A missing or unparsable file yields an empty
// mapping and never an error.
func (s *FileStore) Load(_ context.Context, ns Namespace) (Mapping, error) {
	path := s.Path(ns)

	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("cache file unreadable, starting empty", "path", path, "err", err)
		}
		return Mapping{}, nil
	}

	var m Mapping
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		s.log.Warn("cache file corrupt, starting empty", "path", path, "err", err)
		return Mapping{}, nil
	}

	return m, nil
}

// Save serializes m and overwrites the namespace file in place.
// There is no temp file or rename: a crash mid-write can leave a truncated
// file, which the next Load treats as empty.
func (s *FileStore) Save(_ context.Context, ns Namespace, m Mapping) error {
	if m == nil {
		m = Mapping{}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling namespace %s: %w", ns, err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir %s: %w", s.dir, err)
	}

	if err := os.WriteFile(s.Path(ns), b, 0o644); err != nil {
		return fmt.Errorf("writing namespace %s: %w", ns, err)
	}

	return nil
}

// Ping reports whether the cache directory is reachable.
func (s *FileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("stat cache dir %s: %w", s.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cache dir %s is not a directory", s.dir)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
