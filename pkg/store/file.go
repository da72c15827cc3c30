package store

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/matzehuels/fretsheet/pkg/errors"
	"github.com/matzehuels/fretsheet/pkg/sheet"
)

// FileStore keeps each sheet as a JSON record in a directory.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based store.
// If baseDir is empty, defaults to ~/.config/fretsheet/sheets/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "fretsheet", "sheets")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create sheet dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) sheetPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) readRecord(path string) (sheet.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sheet.Record{}, err
	}
	var rec sheet.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return sheet.Record{}, fmt.Errorf("parse sheet %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*sheet.Sheet, error) {
	if err := errors.ValidateSheetID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := s.readRecord(s.sheetPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(id)
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read sheet %q", id)
	}
	rec.ID = id
	return sheet.FromRecord(rec)
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read sheet dir: %w", err)
	}

	var out []Summary
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		rec, err := s.readRecord(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		if rec.ID == "" {
			rec.ID = entry.Name()[:len(entry.Name())-len(".json")]
		}
		out = append(out, summarize(rec))
	}
	sortSummaries(out)
	return out, nil
}

func (s *FileStore) Put(ctx context.Context, sh *sheet.Sheet) error {
	rec, err := prepare(sh)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal sheet: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.baseDir, "tmp-*")
	if err != nil {
		return fmt.Errorf("write sheet file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write sheet file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write sheet file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.sheetPath(sh.ID)); err != nil {
		return fmt.Errorf("write sheet file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := errors.ValidateSheetID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.sheetPath(id)); err != nil {
		if os.IsNotExist(err) {
			return notFound(id)
		}
		return fmt.Errorf("remove sheet file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for sheet files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)

func sortSummaries(out []Summary) {
	slices.SortFunc(out, func(a, b Summary) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
