package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/opensurety/flightsurety-backend/interfaces"
)

const (
	snapshotFileName = "snapshot.json"
	journalFileName  = "events.jsonl"
)

// FileStore implements a ledger store on the local file system. The snapshot
// is replaced atomically via a temp file and rename; the journal is a
// newline-delimited JSON file opened in append mode per write.
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileStore creates a file-backed ledger store rooted at baseDir,
// creating the directory if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// SaveSnapshot atomically replaces the stored snapshot.
func (s *FileStore) SaveSnapshot(ctx context.Context, data []byte) error {
	target := filepath.Join(s.baseDir, snapshotFileName)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}

	s.log.Debug("Stored ledger snapshot",
		slog.String("path", target),
		slog.Int("size", len(data)))
	return nil
}

// LoadSnapshot returns the stored snapshot, or ErrNoSnapshot when none exists.
func (s *FileStore) LoadSnapshot(ctx context.Context) ([]byte, error) {
	target := filepath.Join(s.baseDir, snapshotFileName)

	data, err := os.ReadFile(target)
	if os.IsNotExist(err) {
		return nil, interfaces.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	s.log.Debug("Loaded ledger snapshot",
		slog.String("path", target),
		slog.Int("size", len(data)))
	return data, nil
}

// AppendEvent appends one event record to the journal, one JSON object per line.
func (s *FileStore) AppendEvent(ctx context.Context, data []byte) error {
	target := filepath.Join(s.baseDir, journalFileName)

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Available checks that the base directory still exists.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(s.baseDir)
	if err != nil {
		s.log.Debug("File store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *FileStore) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(s.baseDir))
}

// LocationURI returns the URI that identifies this store.
func (s *FileStore) LocationURI() string {
	return s.locationURI
}
