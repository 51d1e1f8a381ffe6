package gallery

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kozaktomas/face-attendance/internal/facematch"
)

// ErrCorrupt is returned by a Store when persisted state exists but cannot be decoded.
var ErrCorrupt = errors.New("gallery state is corrupt")

// ErrNotFound is returned by a Store when no persisted state exists yet.
var ErrNotFound = errors.New("gallery state not found")

// Store persists the full ordered list of gallery entries.
type Store interface {
	// Load returns the persisted entries. Missing state yields no entries and either
	// no error or ErrNotFound.
	Load(ctx context.Context) ([]facematch.Entry, error)
	// Save replaces the persisted state with entries.
	Save(ctx context.Context, entries []facematch.Entry) error
}

// encodingsFile is the on-disk layout: parallel name and encoding lists.
type encodingsFile struct {
	Names     []string
	Encodings [][]float32
}

// FileStore keeps the gallery in a single gob-encoded file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads entries from the gallery file.
func (s *FileStore) Load(_ context.Context) ([]facematch.Entry, error) {
	data, err := os.ReadFile(s.path) //nolint:gosec // path is from trusted config
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read gallery file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrCorrupt, s.path)
	}

	var f encodingsFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrCorrupt, s.path, err)
	}
	if len(f.Names) != len(f.Encodings) {
		return nil, fmt.Errorf("%w: %d names but %d encodings", ErrCorrupt, len(f.Names), len(f.Encodings))
	}

	entries := make([]facematch.Entry, len(f.Names))
	for i := range f.Names {
		if !facematch.Finite(f.Encodings[i]) {
			return nil, fmt.Errorf("%w: encoding %d for %q is not finite", ErrCorrupt, i, f.Names[i])
		}
		entries[i] = facematch.Entry{Name: f.Names[i], Feature: f.Encodings[i]}
	}
	return entries, nil
}

// Save writes entries to the gallery file, creating its directory if needed.
func (s *FileStore) Save(_ context.Context, entries []facematch.Entry) error {
	f := encodingsFile{
		Names:     make([]string, len(entries)),
		Encodings: make([][]float32, len(entries)),
	}
	for i, e := range entries {
		f.Names[i] = e.Name
		f.Encodings[i] = e.Feature
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return fmt.Errorf("encode gallery: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create gallery directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write gallery file: %w", err)
	}
	return nil
}
