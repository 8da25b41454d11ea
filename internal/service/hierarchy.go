package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/hierarchy"
	"github.com/allusionapp/allusion-server/internal/id"
	"github.com/allusionapp/allusion-server/internal/metrics"
	"github.com/allusionapp/allusion-server/internal/normalize"
	"github.com/allusionapp/allusion-server/internal/prefs"
	"github.com/allusionapp/allusion-server/internal/sse"
	"github.com/allusionapp/allusion-server/internal/store"
	"github.com/allusionapp/allusion-server/internal/validation"
)

// FileIndexer keeps the search index in step with file records.
type FileIndexer interface {
	IndexFiles(ctx context.Context, files []*domain.File) error
}

// UntaggedCounter counts files that carry no known tag.
type UntaggedCounter interface {
	CountUntagged(ctx context.Context) int
}

// HierarchyService owns the tag tree, the expand state and the tag
// selection. Every operation runs under one mutex and leaves the tree
// valid before it returns; persistence is handed to the Persister and
// never awaited.
type HierarchyService struct {
	mu        sync.Mutex
	tree      *hierarchy.Tree
	expand    hierarchy.ExpandState
	selection *hierarchy.Selection

	tags      *TagDirectory
	untagged  UntaggedCounter
	store     store.Store
	prefs     *prefs.Store
	index     FileIndexer
	persister *Persister
	events    sse.Emitter
	validator *validation.Validator
	logger    *slog.Logger
}

// HierarchyDeps are the collaborators of HierarchyService.
type HierarchyDeps struct {
	Store     store.Store
	Prefs     *prefs.Store
	Index     FileIndexer
	Persister *Persister
	Events    sse.Emitter
	Validator *validation.Validator
	Logger    *slog.Logger
}

// NewHierarchyService loads the tag directory, the tree and the last
// selection. An empty database gets a fresh root collection. Tags that no
// collection lists are appended to the root.
func NewHierarchyService(ctx context.Context, deps HierarchyDeps) (*HierarchyService, error) {
	tags, err := deps.Store.ListTags(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load tags")
	}
	cols, err := deps.Store.ListCollections(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load collections")
	}

	s := &HierarchyService{
		expand:    hierarchy.DefaultExpandState(),
		tags:      NewTagDirectory(tags),
		store:     deps.Store,
		prefs:     deps.Prefs,
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

	created := len(cols) == 0
	if created {
		s.tree = hierarchy.NewEmpty(&domain.TagCollection{Name: "Hierarchy", DateAdded: time.Now().UTC()})
	} else if s.tree, err = hierarchy.New(cols); err != nil {
		return nil, err
	}

	adopted := 0
	for _, t := range tags {
		if _, placed := s.tree.OwnerOf(t.ID); !placed {
			if err := s.tree.AddTag(domain.RootTagCollectionID, t.ID, hierarchy.Append); err != nil {
				return nil, err
			}
			adopted++
		}
	}
	if adopted > 0 {
		s.logger.Warn("tags missing from the hierarchy were added to the root", "count", adopted)
	}
	if created || adopted > 0 {
		s.persistCollections()
	}

	s.selection = hierarchy.NewSelection()
	if s.prefs != nil {
		ids, err := s.prefs.Selection(ctx)
		if err != nil {
			s.logger.Warn("could not load tag selection", "error", err)
		}
		for _, tagID := range ids {
			if _, ok := s.tags.Get(tagID); ok {
				s.selection.Add(tagID)
			}
		}
	}

	s.logger.Info("tag hierarchy loaded",
		"collections", s.tree.Len(),
		"tags", s.tree.TagCount(),
		"selected", s.selection.Len())
	return s, nil
}

// Tags returns the tag directory backing the tree.
func (s *HierarchyService) Tags() *TagDirectory { return s.tags }

// AddTagRequest creates a tag inside a collection.
type AddTagRequest struct {
	Name         string `json:"name" validate:"max=200"`
	Color        string `json:"color,omitempty" validate:"omitempty,max=32"`
	CollectionID string `json:"collection_id" validate:"required"`
	// Index is the position in the collection's tag list; nil appends.
	Index *int `json:"index,omitempty"`
}

// AddTag creates a tag and places it in a collection. An empty name gets
// the default tag name, made unique with a numeric suffix.
func (s *HierarchyService) AddTag(ctx context.Context, req AddTagRequest) (*domain.Tag, error) {
	tag, err := s.addTag(ctx, req)
	metrics.HierarchyMutation("add_tag", err)
	return tag, err
}

func (s *HierarchyService) addTag(_ context.Context, req AddTagRequest) (*domain.Tag, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := normalize.Name(req.Name)
	if name == "" {
		name = s.tags.uniqueName(domain.DefaultTagName)
	} else if other, taken := s.tags.FindByName(name); taken {
		return nil, errors.AlreadyExistsf("a tag named %q already exists", other.Name)
	}

	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate tag id")
	}
	tag := domain.Tag{ID: tagID, Name: name, Color: req.Color, DateAdded: time.Now().UTC()}

	if err := s.tree.AddTag(req.CollectionID, tag.ID, indexOrAppend(req.Index)); err != nil {
		return nil, err
	}
	s.tags.put(tag)

	s.persister.Submit("tags", func(ctx context.Context) error {
		return s.store.CreateTag(ctx, &tag)
	})
	s.persistCollections()
	s.events.Emit(sse.NewTagEvent(sse.EventTagCreated, &tag, req.CollectionID))

	s.logger.Info("tag created", "tag_id", tag.ID, "name", tag.Name, "collection_id", req.CollectionID)
	return &tag, nil
}

// UpdateTagRequest changes the name or colour of a tag. Nil fields are left alone.
type UpdateTagRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// UpdateTag renames or recolours a tag.
func (s *HierarchyService) UpdateTag(ctx context.Context, tagID string, req UpdateTagRequest) (*domain.Tag, error) {
	tag, err := s.updateTag(ctx, tagID, req)
	metrics.HierarchyMutation("update_tag", err)
	return tag, err
}

// RenameTag sets the name of a tag.
func (s *HierarchyService) RenameTag(ctx context.Context, tagID, name string) (*domain.Tag, error) {
	return s.UpdateTag(ctx, tagID, UpdateTagRequest{Name: &name})
}

func (s *HierarchyService) updateTag(_ context.Context, tagID string, req UpdateTagRequest) (*domain.Tag, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tag, ok := s.tags.Get(tagID)
	if !ok {
		return nil, errors.NotFoundf("tag %s not found", tagID)
	}
	if req.Name != nil {
		name := normalize.Name(*req.Name)
		if other, taken := s.tags.FindByName(name); taken && other.ID != tagID {
			return nil, errors.AlreadyExistsf("a tag named %q already exists", other.Name)
		}
		tag.Name = name
	}
	if req.Color != nil {
		tag.Color = *req.Color
	}
	s.tags.put(tag)

	s.persister.Submit("tags", func(ctx context.Context) error {
		return s.store.UpdateTag(ctx, &tag)
	})
	owner, _ := s.tree.OwnerOf(tagID)
	s.events.Emit(sse.NewTagEvent(sse.EventTagUpdated, &tag, owner))
	return &tag, nil
}

// RemoveTag deletes a tag, takes it off every file and out of the selection.
func (s *HierarchyService) RemoveTag(ctx context.Context, tagID string) error {
	err := s.removeTag(ctx, tagID)
	metrics.HierarchyMutation("remove_tag", err)
	return err
}

func (s *HierarchyService) removeTag(_ context.Context, tagID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, _ := s.tree.OwnerOf(tagID)
	if err := s.tree.RemoveTag(tagID); err != nil {
		return err
	}
	s.forgetTags([]string{tagID})
	s.persistCollections()
	s.events.Emit(sse.NewTagDeletedEvent(tagID, owner))

	s.logger.Info("tag removed", "tag_id", tagID)
	return nil
}

// AddCollectionRequest creates a collection.
type AddCollectionRequest struct {
	Name     string `json:"name" validate:"max=200"`
	Color    string `json:"color,omitempty" validate:"omitempty,max=32"`
	ParentID string `json:"parent_id" validate:"required"`
	Index    *int   `json:"index,omitempty"`
}

// AddCollection creates an empty collection under a parent and expands the
// parent so the new collection is visible.
func (s *HierarchyService) AddCollection(ctx context.Context, req AddCollectionRequest) (*domain.TagCollection, error) {
	col, err := s.addCollection(ctx, req)
	metrics.HierarchyMutation("add_collection", err)
	return col, err
}

func (s *HierarchyService) addCollection(_ context.Context, req AddCollectionRequest) (*domain.TagCollection, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	colID, err := id.Generate(id.PrefixCollection)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate collection id")
	}
	name := normalize.Name(req.Name)
	if name == "" {
		name = domain.DefaultCollectionName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	col := &domain.TagCollection{ID: colID, Name: name, Color: req.Color, DateAdded: time.Now().UTC()}
	if err := s.tree.AddCollection(req.ParentID, col, indexOrAppend(req.Index)); err != nil {
		return nil, err
	}
	if !s.expand.IsExpanded(req.ParentID) {
		s.expand = s.expand.Expand(req.ParentID)
		s.events.Emit(sse.NewExpandChangedEvent([]string{req.ParentID}, true))
	}

	s.persistCollections()
	created, _ := s.tree.Collection(colID)
	s.events.Emit(sse.NewCollectionEvent(sse.EventCollectionCreated, created, req.ParentID))

	s.logger.Info("collection created", "collection_id", colID, "name", name, "parent_id", req.ParentID)
	return created, nil
}

// UpdateCollectionRequest changes the name or colour of a collection.
type UpdateCollectionRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Color *string `json:"color,omitempty" validate:"omitempty,max=32"`
}

// UpdateCollection renames or recolours a collection.
func (s *HierarchyService) UpdateCollection(ctx context.Context, colID string, req UpdateCollectionRequest) (*domain.TagCollection, error) {
	col, err := s.updateCollection(ctx, colID, req)
	metrics.HierarchyMutation("update_collection", err)
	return col, err
}

// RenameCollection sets the name of a collection.
func (s *HierarchyService) RenameCollection(ctx context.Context, colID, name string) (*domain.TagCollection, error) {
	return s.UpdateCollection(ctx, colID, UpdateCollectionRequest{Name: &name})
}

func (s *HierarchyService) updateCollection(_ context.Context, colID string, req UpdateCollectionRequest) (*domain.TagCollection, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tree.HasCollection(colID) {
		return nil, errors.NotFoundf("collection %s not found", colID)
	}
	if req.Name != nil {
		if err := s.tree.RenameCollection(colID, normalize.Name(*req.Name)); err != nil {
			return nil, err
		}
	}
	if req.Color != nil {
		if err := s.tree.SetCollectionColor(colID, *req.Color); err != nil {
			return nil, err
		}
	}

	s.persistCollections()
	col, _ := s.tree.Collection(colID)
	parent, _ := s.tree.Parent(colID)
	s.events.Emit(sse.NewCollectionEvent(sse.EventCollectionUpdated, col, parent))
	return col, nil
}

// RemoveCollection deletes a collection, everything below it and every tag
// it held. The root cannot be removed.
func (s *HierarchyService) RemoveCollection(ctx context.Context, colID string) (tagIDs, colIDs []string, err error) {
	tagIDs, colIDs, err = s.removeCollection(ctx, colID)
	metrics.HierarchyMutation("remove_collection", err)
	return tagIDs, colIDs, err
}

func (s *HierarchyService) removeCollection(_ context.Context, colID string) ([]string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, _ := s.tree.Parent(colID)
	tagIDs, colIDs, err := s.tree.RemoveCollection(colID)
	if err != nil {
		return nil, nil, err
	}
	s.forgetTags(tagIDs)
	s.persistCollections()
	s.events.Emit(sse.NewCollectionDeletedEvent(colID, parent, tagIDs, colIDs))

	s.logger.Info("collection removed",
		"collection_id", colID,
		"removed_collections", len(colIDs),
		"removed_tags", len(tagIDs))
	return tagIDs, colIDs, nil
}

// MoveTag moves a tag into target at index. A negative index appends.
func (s *HierarchyService) MoveTag(ctx context.Context, tagID, targetID string, index int) error {
	err := s.move("tag", tagID, targetID, index, func() (string, error) {
		return s.tree.MoveTag(tagID, targetID, index)
	})
	metrics.HierarchyMutation("move_tag", err)
	return err
}

// MoveTagBefore moves a tag directly in front of another tag.
func (s *HierarchyService) MoveTagBefore(ctx context.Context, tagID, beforeTagID string) error {
	s.mu.Lock()
	from, err := s.tree.MoveTagBefore(tagID, beforeTagID)
	if err == nil {
		to, _ := s.tree.OwnerOf(tagID)
		col, _ := s.tree.Collection(to)
		s.persistCollections()
		s.events.Emit(sse.NewTreeMovedEvent("tag", tagID, from, to, slices.Index(col.Tags, tagID)))
	}
	s.mu.Unlock()

	metrics.HierarchyMutation("move_tag", err)
	return err
}

// MoveCollection moves a collection under target at index. Moving the
// root, or a collection into itself or its own descendant, is rejected.
func (s *HierarchyService) MoveCollection(ctx context.Context, colID, targetID string, index int) error {
	err := s.move("collection", colID, targetID, index, func() (string, error) {
		return s.tree.MoveCollection(colID, targetID, index)
	})
	metrics.HierarchyMutation("move_collection", err)
	return err
}

func (s *HierarchyService) move(kind, nodeID, targetID string, index int, apply func() (string, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, err := apply()
	if err != nil {
		s.logger.Debug("move rejected", "kind", kind, "node_id", nodeID, "target_id", targetID, "error", err)
		return err
	}

	target, _ := s.tree.Collection(targetID)
	pos := slices.Index(target.Tags, nodeID)
	if kind == "collection" {
		pos = slices.Index(target.SubCollections, nodeID)
	}

	s.persistCollections()
	s.events.Emit(sse.NewTreeMovedEvent(kind, nodeID, from, targetID, pos))
	return nil
}

// Expand expands one collection or the system tags node.
func (s *HierarchyService) Expand(ctx context.Context, nodeID string) error {
	return s.setExpanded(nodeID, true)
}

// Collapse collapses one collection or the system tags node.
func (s *HierarchyService) Collapse(ctx context.Context, nodeID string) error {
	return s.setExpanded(nodeID, false)
}

func (s *HierarchyService) setExpanded(nodeID string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if nodeID != domain.SystemTagsID && !s.tree.HasCollection(nodeID) {
		return errors.NotFoundf("collection %s not found", nodeID)
	}
	if s.expand.IsExpanded(nodeID) == value {
		return nil
	}
	if value {
		s.expand = s.expand.Expand(nodeID)
	} else {
		s.expand = s.expand.Collapse(nodeID)
	}
	s.events.Emit(sse.NewExpandChangedEvent([]string{nodeID}, value))
	return nil
}

// ExpandAll expands a collection and every collection below it.
func (s *HierarchyService) ExpandAll(ctx context.Context, colID string) error {
	return s.setExpandedRecursively(colID, true)
}

// CollapseAll collapses a collection and every collection below it.
func (s *HierarchyService) CollapseAll(ctx context.Context, colID string) error {
	return s.setExpandedRecursively(colID, false)
}

func (s *HierarchyService) setExpandedRecursively(colID string, value bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := hierarchy.SetExpandStateRecursively(s.tree, colID, value, s.expand)
	if err != nil {
		return err
	}
	s.expand = next
	s.events.Emit(sse.NewExpandChangedEvent(append([]string{colID}, s.tree.Descendants(colID)...), value))
	return nil
}

// ExpandState returns the current expand flags.
func (s *HierarchyService) ExpandState() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expand.Map()
}

// ClickNode applies a click on a render node to the selection and returns
// what it did together with the resulting selection.
func (s *HierarchyService) ClickNode(ctx context.Context, nodeID string) (hierarchy.ClickResult, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.selection.Clone()
	result := hierarchy.Click(s.tree, s.selection, nodeID)
	if !before.Equal(s.selection) {
		s.selectionChanged()
	}
	return result, s.selection.IDs()
}

// SetSelection replaces the selection. Ids that are not tags are ignored.
func (s *HierarchyService) SetSelection(ctx context.Context, tagIDs []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := hierarchy.NewSelection()
	for _, tagID := range tagIDs {
		if _, ok := s.tree.OwnerOf(tagID); ok {
			next.Add(tagID)
		}
	}
	if !next.Equal(s.selection) {
		s.selection = next
		s.selectionChanged()
	}
	return s.selection.IDs()
}

// Selection returns the selected tag ids in selection order.
func (s *HierarchyService) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection.IDs()
}

// CountUntaggedWith makes RenderTree take the untagged count from c, the
// in-memory file records, instead of the database.
func (s *HierarchyService) CountUntaggedWith(c UntaggedCounter) {
	s.mu.Lock()
	s.untagged = c
	s.mu.Unlock()
}

// RenderTree builds the render tree from the current state.
func (s *HierarchyService) RenderTree(ctx context.Context) ([]hierarchy.RenderNode, error) {
	s.mu.Lock()
	counter := s.untagged
	s.mu.Unlock()

	var untagged int
	if counter != nil {
		untagged = counter.CountUntagged(ctx)
	} else {
		n, err := s.store.CountUntaggedFiles(ctx)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, "count untagged files")
		}
		untagged = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return hierarchy.BuildRenderTree(hierarchy.RenderInput{
		Tree:          s.tree,
		Tags:          s.tags,
		Expand:        s.expand,
		Selection:     s.selection,
		UntaggedCount: untagged,
	}), nil
}

// Collections returns every collection in pre-order.
func (s *HierarchyService) Collections() []*domain.TagCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Collections()
}

// Collection returns one collection.
func (s *HierarchyService) Collection(colID string) (*domain.TagCollection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.tree.Collection(colID)
	if !ok {
		return nil, errors.NotFoundf("collection %s not found", colID)
	}
	return col, nil
}

// TagOwner returns the id of the collection holding a tag.
func (s *HierarchyService) TagOwner(tagID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.OwnerOf(tagID)
}

// CollectionParent returns the id of a collection's parent. The root has none.
func (s *HierarchyService) CollectionParent(colID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Parent(colID)
}

// RecursiveTags returns the tags of a collection and of every collection below it.
func (s *HierarchyService) RecursiveTags(colID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tree.HasCollection(colID) {
		return nil, errors.NotFoundf("collection %s not found", colID)
	}
	return s.tree.RecursiveTags(colID), nil
}

// CheckInvariants verifies the tree's reverse indexes against its lists.
func (s *HierarchyService) CheckInvariants() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.CheckInvariants()
}

// forgetTags drops removed tags from the directory and the selection and
// schedules their deletion. Files that carried them are reindexed after the
// delete so their tag fields no longer match.
func (s *HierarchyService) forgetTags(tagIDs []string) {
	if len(tagIDs) == 0 {
		return
	}
	s.tags.remove(tagIDs...)

	if before := s.selection.Len(); before > 0 {
		s.selection.Remove(tagIDs...)
		if s.selection.Len() != before {
			s.selectionChanged()
		}
	}

	ids := slices.Clone(tagIDs)
	s.persister.Submit("tags", func(ctx context.Context) error {
		affected, err := s.store.ListFilesByTags(ctx, ids)
		if err != nil {
			return err
		}
		if err := s.store.DeleteTags(ctx, ids); err != nil {
			return err
		}
		if s.index == nil || len(affected) == 0 {
			return nil
		}
		for _, f := range affected {
			for _, tagID := range ids {
				f.RemoveTag(tagID)
			}
		}
		return s.index.IndexFiles(ctx, affected)
	})
}

// selectionChanged publishes and stores the selection. Callers hold s.mu.
func (s *HierarchyService) selectionChanged() {
	ids := s.selection.IDs()
	s.events.Emit(sse.NewSelectionChangedEvent(ids))
	if s.prefs != nil {
		s.persister.Submit("selection", func(ctx context.Context) error {
			return s.prefs.SaveSelection(ctx, ids)
		})
	}
}

// persistCollections schedules a write of the whole tree. Callers hold
// s.mu, so snapshots reach the store in mutation order.
func (s *HierarchyService) persistCollections() {
	cols := s.tree.Collections()
	s.persister.Submit("collections", func(ctx context.Context) error {
		return s.store.ReplaceCollections(ctx, cols)
	})
}

func indexOrAppend(index *int) int {
	if index == nil {
		return hierarchy.Append
	}
	return *index
}
