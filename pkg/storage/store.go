package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	recordExt = ".json"
	lockName  = ".lock"
)

// Record is a stored value together with its id.
type Record[T any] struct {
	ID    string
	Value T
}

// JSONStore keeps one JSON document per record in a single directory.
//
// Writes go through a temp file and rename so readers never observe a
// partial document. An advisory file lock guards the directory against
// other processes. A flock handle is shared by all goroutines, so access
// within the process is serialized by mu.
type JSONStore[T any] struct {
	dir      string
	resource Resource

	mu     sync.Mutex
	lock   *flock.Flock
	logger zerolog.Logger
}

// NewJSONStore opens (creating if needed) a store rooted at dir. resource
// names the record kind in errors ("profile", "baseline").
func NewJSONStore[T any](dir string, resource Resource) (*JSONStore[T], error) {
	if dir == "" {
		return nil, Invalid("dir", "store directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", resource, err)
	}

	return &JSONStore[T]{
		dir:      dir,
		resource: resource,
		lock:     flock.New(filepath.Join(dir, lockName)),
		logger:   log.With().Str("component", "storage").Str("resource", string(resource)).Logger(),
	}, nil
}

// Dir returns the directory backing the store.
func (s *JSONStore[T]) Dir() string {
	return s.dir
}

// Exists reports whether a record with id is present.
func (s *JSONStore[T]) Exists(ctx context.Context, id string) (bool, error) {
	path, err := s.path(id)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s %q: %w", s.resource, id, err)
	}
}

// Get reads the record with id.
func (s *JSONStore[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	path, err := s.path(id)
	if err != nil {
		return zero, err
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	unlock, err := s.rlock()
	if err != nil {
		return zero, err
	}
	defer unlock()

	return s.read(id, path)
}

// List reads every record in the store. Documents that fail to decode are
// skipped with a warning so one corrupt file does not hide the rest.
func (s *JSONStore[T]) List(ctx context.Context) ([]Record[T], error) {
	unlock, err := s.rlock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s directory: %w", s.resource, err)
	}

	records := make([]Record[T], 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}

		id := strings.TrimSuffix(name, recordExt)
		v, err := s.read(id, filepath.Join(s.dir, name))
		if err != nil {
			s.logger.Warn().Err(err).Str("file", name).Msg("Skipping unreadable record")
			continue
		}
		records = append(records, Record[T]{ID: id, Value: v})
	}
	return records, nil
}

// Create writes v under id, failing with a RecordError wrapping ErrAlreadyExists if id is taken.
func (s *JSONStore[T]) Create(ctx context.Context, id string, v T) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := s.wlock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(path); err == nil {
		return Taken(s.resource, id)
	}
	return s.write(path, v)
}

// Put writes v under id, replacing any existing record.
func (s *JSONStore[T]) Put(ctx context.Context, id string, v T) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := s.wlock()
	if err != nil {
		return err
	}
	defer unlock()

	return s.write(path, v)
}

// Delete removes the record with id.
func (s *JSONStore[T]) Delete(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := s.wlock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Missing(s.resource, id)
		}
		return fmt.Errorf("failed to delete %s %q: %w", s.resource, id, err)
	}
	s.logger.Debug().Str("id", id).Msg("Record deleted")
	return nil
}

// Rename moves the record at oldID to newID and stores v there. The old
// record must exist and newID must be free unless it equals oldID.
func (s *JSONStore[T]) Rename(ctx context.Context, oldID, newID string, v T) error {
	oldPath, err := s.path(oldID)
	if err != nil {
		return err
	}
	newPath, err := s.path(newID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock, err := s.wlock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := os.Stat(oldPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Missing(s.resource, oldID)
		}
		return fmt.Errorf("stat %s %q: %w", s.resource, oldID, err)
	}
	if oldID == newID {
		return s.write(newPath, v)
	}
	if _, err := os.Stat(newPath); err == nil {
		return Taken(s.resource, newID)
	}

	if err := s.write(newPath, v); err != nil {
		return err
	}
	if err := os.Remove(oldPath); err != nil {
		return fmt.Errorf("failed to remove old %s %q: %w", s.resource, oldID, err)
	}
	s.logger.Debug().Str("from", oldID).Str("to", newID).Msg("Record renamed")
	return nil
}

func (s *JSONStore[T]) path(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, id+recordExt), nil
}

func (s *JSONStore[T]) read(id, path string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, Missing(s.resource, id)
		}
		return v, fmt.Errorf("failed to read %s %q: %w", s.resource, id, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s %q: %w", s.resource, id, err)
	}
	return v, nil
}

func (s *JSONStore[T]) write(path string, v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.resource, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", s.resource, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to commit %s: %w", s.resource, err)
	}
	return nil
}

func (s *JSONStore[T]) rlock() (func(), error) {
	s.mu.Lock()
	if err := s.lock.RLock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to lock %s store: %w", s.resource, err)
	}
	return func() {
		_ = s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}

func (s *JSONStore[T]) wlock() (func(), error) {
	s.mu.Lock()
	if err := s.lock.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to lock %s store: %w", s.resource, err)
	}
	return func() {
		_ = s.lock.Unlock()
		s.mu.Unlock()
	}, nil
}

// ValidateID rejects ids that cannot be used as a file name inside the store
// directory.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return Invalid("id", "must not be empty")
	case strings.ContainsAny(id, `/\`):
		return Invalid("id", "must not contain path separators")
	case strings.HasPrefix(id, "."):
		return Invalid("id", "must not start with a dot")
	case strings.ContainsRune(id, 0):
		return Invalid("id", "must not contain NUL")
	}
	return nil
}
