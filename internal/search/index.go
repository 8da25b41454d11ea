package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/allusionapp/allusion-server/internal/domain"
)

// FileIndex wraps a Bleve index of file documents.
//
// All public methods are safe for concurrent use. The mutex guards the
// index handle against Rebuild.
type FileIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex

	recreated bool
}

// Options configures the file index.
type Options struct {
	Path   string       // Index directory; empty keeps the index in memory
	Logger *slog.Logger // Uses a discard logger if nil
}

// mappingVersion is bumped whenever buildIndexMapping changes. A stored
// index with another version is dropped and recreated on open.
const mappingVersion = "1"

// NewFileIndex opens the index at opts.Path, creating it when missing,
// outdated or unreadable. Callers reindex from the database after a
// recreate; Recreated reports whether that happened.
func NewFileIndex(opts Options) (*FileIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if opts.Path == "" {
		index, err := newIndex("")
		if err != nil {
			return nil, err
		}
		return &FileIndex{index: index, logger: logger, recreated: true}, nil
	}

	versionPath := opts.Path + ".version"
	needsRebuild := false

	var index bleve.Index
	if _, err := os.Stat(opts.Path); err == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		default:
			if index, err = bleve.Open(opts.Path); err != nil {
				logger.Warn("failed to open existing index, will recreate", "path", opts.Path, "error", err)
				needsRebuild = true
			}
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(opts.Path); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}

	fi := &FileIndex{index: index, path: opts.Path, logger: logger}
	if index != nil {
		logger.Info("opened existing search index", "path", opts.Path)
		return fi, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create index parent: %w", err)
	}
	index, err := newIndex(opts.Path)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
		logger.Warn("failed to write search version file", "error", err)
	}
	logger.Info("created new search index", "path", opts.Path, "mapping_version", mappingVersion)

	fi.index = index
	fi.recreated = true
	return fi, nil
}

func newIndex(path string) (bleve.Index, error) {
	m, err := buildIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("build mapping: %w", err)
	}
	var index bleve.Index
	if path == "" {
		index, err = bleve.NewMemOnly(m)
	} else {
		index, err = bleve.New(path, m)
	}
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return index, nil
}

// Mapping returns the index mapping in use.
func (s *FileIndex) Mapping() mapping.IndexMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Mapping()
}

// Recreated reports whether the index was created empty on open.
func (s *FileIndex) Recreated() bool { return s.recreated }

// Close closes the index and releases resources.
func (s *FileIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexFile adds or replaces the document of f.
func (s *FileIndex) IndexFile(_ context.Context, f *domain.File) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(f.ID, NewFileDocument(f).ToMap())
}

// IndexFiles indexes files in batches of 500.
func (s *FileIndex) IndexFiles(_ context.Context, files []*domain.File) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(files); i += batchSize {
		end := min(i+batchSize, len(files))

		batch := s.index.NewBatch()
		for _, f := range files[i:end] {
			if err := batch.Index(f.ID, NewFileDocument(f).ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", f.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteFile removes a file document.
func (s *FileIndex) DeleteFile(_ context.Context, id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// DocumentCount returns the number of indexed files.
func (s *FileIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops every document and starts from an empty index.
// It holds the write lock; searches wait until it returns.
func (s *FileIndex) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if s.path != "" {
		if err := os.RemoveAll(s.path); err != nil {
			return fmt.Errorf("remove index: %w", err)
		}
	}

	index, err := newIndex(s.path)
	if err != nil {
		return err
	}
	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}
