// Package store defines the persistence interface for the Allusion server.
package store

import (
	"context"

	"github.com/allusionapp/allusion-server/internal/domain"
)

// Store persists the tag directory, the collection hierarchy and file metadata.
type Store interface {
	Close() error

	// Tags
	CreateTag(ctx context.Context, t *domain.Tag) error
	GetTag(ctx context.Context, id string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, t *domain.Tag) error
	DeleteTags(ctx context.Context, ids []string) error

	// Collections. The hierarchy is always written as a whole so that
	// parent links on disk never disagree with each other.
	ListCollections(ctx context.Context) ([]*domain.TagCollection, error)
	ReplaceCollections(ctx context.Context, cols []*domain.TagCollection) error

	// Files
	UpsertFile(ctx context.Context, f *domain.File) error
	GetFile(ctx context.Context, id string) (*domain.File, error)
	ListFiles(ctx context.Context) ([]*domain.File, error)
	ListFilesByTags(ctx context.Context, tagIDs []string) ([]*domain.File, error)
	ListUntaggedFiles(ctx context.Context) ([]*domain.File, error)
	CountUntaggedFiles(ctx context.Context) (int, error)
	SetFileComment(ctx context.Context, id, comment string) error
	DeleteFile(ctx context.Context, id string) error
}
