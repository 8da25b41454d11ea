package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/id"
	"github.com/allusionapp/allusion-server/internal/sse"
	"github.com/allusionapp/allusion-server/internal/store"
	"github.com/allusionapp/allusion-server/internal/validation"
)

// FileSearchIndex is the part of the search index FileService maintains.
type FileSearchIndex interface {
	FileIndexer
	IndexFile(ctx context.Context, f *domain.File) error
	DeleteFile(ctx context.Context, id string) error
	Recreated() bool
}

// FileService holds file metadata in memory. Edits apply to the in-memory
// record at once and reach the database and the search index through the
// Persister.
type FileService struct {
	mu    sync.RWMutex
	files map[string]*domain.File

	tags      *TagDirectory
	store     store.Store
	index     FileSearchIndex
	persister *Persister
	events    sse.Emitter
	validator *validation.Validator
	logger    *slog.Logger
}

// FileDeps are the collaborators of FileService.
type FileDeps struct {
	Store     store.Store
	Index     FileSearchIndex
	Tags      *TagDirectory
	Persister *Persister
	Events    sse.Emitter
	Validator *validation.Validator
	Logger    *slog.Logger
}

// NewFileService loads every file record. When the search index was
// recreated on open it is refilled from the loaded records.
func NewFileService(ctx context.Context, deps FileDeps) (*FileService, error) {
	files, err := deps.Store.ListFiles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load files")
	}

	s := &FileService{
		files:     make(map[string]*domain.File, len(files)),
		tags:      deps.Tags,
		store:     deps.Store,
		index:     deps.Index,
		persister: deps.Persister,
		events:    deps.Events,
		validator: deps.Validator,
		logger:    deps.Logger,
	}
	if s.events == nil {
		s.events = sse.NoopEmitter{}
	}
	if s.validator == nil {
		s.validator = validation.New()
	}
	for _, f := range files {
		s.files[f.ID] = f
	}

	if s.index != nil && s.index.Recreated() && len(files) > 0 {
		start := time.Now()
		if err := s.index.IndexFiles(ctx, files); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "reindex files")
		}
		s.logger.Info("search index rebuilt", "files", len(files), "duration", time.Since(start))
	}
	return s, nil
}

// Get returns a copy of one file.
func (s *FileService) Get(ctx context.Context, fileID string) (*domain.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, errors.NotFoundf("file %s not found", fileID)
	}
	return s.snapshot(f), nil
}

// GetMany returns copies of the files in ids order, skipping unknown ids.
func (s *FileService) GetMany(ctx context.Context, ids []string) []*domain.File {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.File, 0, len(ids))
	for _, fileID := range ids {
		if f, ok := s.files[fileID]; ok {
			out = append(out, s.snapshot(f))
		}
	}
	return out
}

// List returns every file, newest first.
func (s *FileService) List(ctx context.Context) []*domain.File {
	return s.filter(func(*domain.File) bool { return true })
}

// ListUntagged returns the files without any tag, newest first.
func (s *FileService) ListUntagged(ctx context.Context) []*domain.File {
	return s.filter(func(f *domain.File) bool { return len(f.Tags) == 0 })
}

// CountUntagged returns the number of files without a known tag.
func (s *FileService) CountUntagged(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, f := range s.files {
		if len(s.snapshot(f).Tags) == 0 {
			n++
		}
	}
	return n
}

func (s *FileService) filter(keep func(*domain.File) bool) []*domain.File {
	s.mu.RLock()
	out := make([]*domain.File, 0, len(s.files))
	for _, f := range s.files {
		if cp := s.snapshot(f); keep(cp) {
			out = append(out, cp)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domain.File) int {
		if c := b.DateAdded.Compare(a.DateAdded); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// SetComment replaces a file's comment. The in-memory record changes
// before the call returns; the database write and the reindex follow in
// the background.
func (s *FileService) SetComment(ctx context.Context, fileID, comment string) (string, error) {
	if err := s.validator.Var("comments", comment, "max=10000"); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return "", errors.NotFoundf("file %s not found", fileID)
	}
	applied := f.SetComment(comment)
	snap := s.snapshot(f)

	s.persister.Submit("file_comment", func(ctx context.Context) error {
		if err := s.store.SetFileComment(ctx, fileID, applied); err != nil {
			return err
		}
		return s.reindex(ctx, snap)
	})
	s.events.Emit(sse.NewFileUpdatedEvent(snap))
	return applied, nil
}

// AddTags attaches tags to a file. Unknown tag ids are rejected.
func (s *FileService) AddTags(ctx context.Context, fileID string, tagIDs []string) (*domain.File, error) {
	return s.editTags(fileID, tagIDs, func(f *domain.File, tagID string) { f.AddTag(tagID) })
}

// RemoveTags detaches tags from a file.
func (s *FileService) RemoveTags(ctx context.Context, fileID string, tagIDs []string) (*domain.File, error) {
	return s.editTags(fileID, tagIDs, func(f *domain.File, tagID string) { f.RemoveTag(tagID) })
}

func (s *FileService) editTags(fileID string, tagIDs []string, apply func(*domain.File, string)) (*domain.File, error) {
	for _, tagID := range tagIDs {
		if _, ok := s.tags.Get(tagID); !ok {
			return nil, errors.NotFoundf("tag %s not found", tagID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[fileID]
	if !ok {
		return nil, errors.NotFoundf("file %s not found", fileID)
	}
	for _, tagID := range tagIDs {
		apply(f, tagID)
	}
	snap := s.snapshot(f)

	s.persister.Submit("file_tags", func(ctx context.Context) error {
		if err := s.store.UpsertFile(ctx, snap); err != nil {
			return err
		}
		return s.reindex(ctx, snap)
	})
	s.events.Emit(sse.NewFileUpdatedEvent(snap))
	return snap, nil
}

// UpsertFileRequest is file metadata reported by the metadata provider.
type UpsertFileRequest struct {
	ID           string            `json:"id,omitempty"`
	Name         string            `json:"name" validate:"required,max=1024"`
	AbsolutePath string            `json:"absolute_path" validate:"required,max=4096"`
	Extension    string            `json:"extension" validate:"required"`
	Size         int64             `json:"size" validate:"gte=0"`
	Width        int               `json:"width" validate:"gte=0"`
	Height       int               `json:"height" validate:"gte=0"`
	DateAdded    time.Time         `json:"date_added"`
	Tags         []string          `json:"tags,omitempty"`
	Comments     string            `json:"comments,omitempty" validate:"max=10000"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Upsert stores file metadata synchronously and indexes it in the
// background. A missing id is generated; a missing date is now.
func (s *FileService) Upsert(ctx context.Context, req UpsertFileRequest) (*domain.File, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	ext := strings.ToLower(strings.TrimPrefix(req.Extension, "."))
	if !domain.IsSupportedExtension(ext) {
		return nil, errors.Validationf("unsupported extension %q", req.Extension)
	}
	for _, tagID := range req.Tags {
		if _, ok := s.tags.Get(tagID); !ok {
			return nil, errors.NotFoundf("tag %s not found", tagID)
		}
	}

	f := &domain.File{
		ID:           req.ID,
		Name:         req.Name,
		AbsolutePath: req.AbsolutePath,
		Extension:    ext,
		Size:         req.Size,
		Width:        req.Width,
		Height:       req.Height,
		DateAdded:    req.DateAdded.UTC(),
		Tags:         []string{},
		Comments:     req.Comments,
		Metadata:     req.Metadata,
	}
	for _, tagID := range req.Tags {
		f.AddTag(tagID)
	}
	if f.ID == "" {
		fileID, err := id.Generate(id.PrefixFile)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "generate file id")
		}
		f.ID = fileID
	}
	if req.DateAdded.IsZero() {
		f.DateAdded = time.Now().UTC()
	}

	// Tags created a moment ago may still be queued.
	if err := s.persister.Flush(ctx); err != nil {
		return nil, err
	}
	if err := s.store.UpsertFile(ctx, f); err != nil {
		return nil, storeError(err, "file")
	}

	s.mu.Lock()
	s.files[f.ID] = f
	snap := s.snapshot(f)
	s.mu.Unlock()

	s.persister.Submit("file_index", func(ctx context.Context) error {
		return s.reindex(ctx, snap)
	})
	s.events.Emit(sse.NewFileUpdatedEvent(snap))
	return snap, nil
}

// Delete removes a file record and its index entry.
func (s *FileService) Delete(ctx context.Context, fileID string) error {
	if err := s.store.DeleteFile(ctx, fileID); err != nil {
		return storeError(err, "file")
	}

	s.mu.Lock()
	delete(s.files, fileID)
	s.mu.Unlock()

	if s.index != nil {
		s.persister.Submit("file_index", func(ctx context.Context) error {
			return s.index.DeleteFile(ctx, fileID)
		})
	}
	return nil
}

func (s *FileService) reindex(ctx context.Context, f *domain.File) error {
	if s.index == nil {
		return nil
	}
	return s.index.IndexFile(ctx, f)
}

// snapshot copies f and drops tags the directory no longer knows, so a
// removed tag disappears from files without touching every record.
func (s *FileService) snapshot(f *domain.File) *domain.File {
	cp := *f
	cp.Tags = make([]string, 0, len(f.Tags))
	for _, tagID := range f.Tags {
		if s.tags == nil {
			cp.Tags = append(cp.Tags, tagID)
			continue
		}
		if _, ok := s.tags.Get(tagID); ok {
			cp.Tags = append(cp.Tags, tagID)
		}
	}
	if f.Metadata != nil {
		cp.Metadata = make(map[string]string, len(f.Metadata))
		for k, v := range f.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// storeError maps store sentinels onto domain errors.
func storeError(err error, what string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return errors.NotFoundf("%s not found", what)
	case errors.Is(err, store.ErrAlreadyExists):
		return errors.AlreadyExistsf("%s already exists: %v", what, err)
	case errors.Is(err, store.ErrInvalidInput):
		return errors.Validationf("invalid %s: %v", what, err)
	default:
		return errors.Wrapf(err, errors.CodeInternal, "store %s", what)
	}
}
