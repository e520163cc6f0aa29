// Package store owns the translation between the persisted JSON document
// and the in-memory AppData value. It deliberately never fails a read: a
// missing or corrupt file degrades to the default document so the tracker
// stays usable no matter what happened to the file on disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/chronoglass/chronod/internal/model"
)

// Store reads and writes the backing document file. The raw methods
// (SaveRaw, LoadRaw, Reset) bypass every lifecycle invariant; callers of
// those accept responsibility for keeping the document consistent.
type Store struct {
	path   string
	logger zerolog.Logger
}

// New creates a store backed by the file at path.
func New(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the backing file. A missing file, read error, or unparseable
// content all yield the default document; load never fails.
func (s *Store) Load() model.AppData {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read data file, using defaults")
		}
		return model.DefaultAppData()
	}

	var doc model.AppData
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Data file is not valid JSON, using defaults")
		return model.DefaultAppData()
	}
	if doc.Sessions == nil {
		doc.Sessions = []model.WorkSession{}
	}
	return doc
}

// Save serializes the full document and atomically replaces the backing
// file. No reader ever observes a partially written document.
func (s *Store) Save(doc model.AppData) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	return s.writeAtomic(data)
}

// SaveRaw writes a raw document string verbatim, with no parsing or
// validation.
func (s *Store) SaveRaw(content string) error {
	return s.writeAtomic([]byte(content))
}

// LoadRaw returns the raw file content, or "{}" when the file is absent.
func (s *Store) LoadRaw() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "{}", nil
		}
		return "", fmt.Errorf("failed to read data file: %w", err)
	}
	return string(data), nil
}

// Reset deletes the backing file. Deleting a file that does not exist is
// not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove data file: %w", err)
	}
	s.logger.Info().Str("path", s.path).Msg("Data file reset")
	return nil
}

// writeAtomic writes data to a temp file in the target directory, syncs
// it, and renames it over the backing file.
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	s.logger.Debug().Str("path", s.path).Int("bytes", len(data)).Msg("Data file saved")
	return nil
}
