package service

import (
	"fmt"
	"slices"
	"sync"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/normalize"
)

// TagDirectory is the in-memory tag registry the hierarchy resolves ids
// against. It is loaded once from the store and written through by
// HierarchyService.
type TagDirectory struct {
	mu       sync.RWMutex
	tags     map[string]domain.Tag
	collator *normalize.Collator
}

// NewTagDirectory returns a directory holding tags.
func NewTagDirectory(tags []*domain.Tag) *TagDirectory {
	d := &TagDirectory{
		tags:     make(map[string]domain.Tag, len(tags)),
		collator: normalize.NewCollator("en"),
	}
	for _, t := range tags {
		d.tags[t.ID] = *t
	}
	return d
}

// Get resolves a tag id.
func (d *TagDirectory) Get(id string) (domain.Tag, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.tags[id]
	return t, ok
}

// Len returns the number of tags.
func (d *TagDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tags)
}

// List returns every tag ordered by name, then id.
func (d *TagDirectory) List() []domain.Tag {
	d.mu.RLock()
	out := make([]domain.Tag, 0, len(d.tags))
	for _, t := range d.tags {
		out = append(out, t)
	}
	d.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.Tag) int {
		if c := d.collator.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// FindByName returns the tag whose name equals name ignoring case and accents.
func (d *TagDirectory) FindByName(name string) (domain.Tag, bool) {
	key := normalize.Key(normalize.Name(name))
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, t := range d.tags {
		if normalize.Key(t.Name) == key {
			return t, true
		}
	}
	return domain.Tag{}, false
}

// uniqueName returns base, or base with the lowest free " (n)" suffix.
func (d *TagDirectory) uniqueName(base string) string {
	if _, taken := d.FindByName(base); !taken {
		return base
	}
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s (%d)", base, n)
		if _, taken := d.FindByName(name); !taken {
			return name
		}
	}
}

func (d *TagDirectory) put(t domain.Tag) {
	d.mu.Lock()
	d.tags[t.ID] = t
	d.mu.Unlock()
}

func (d *TagDirectory) remove(ids ...string) {
	d.mu.Lock()
	for _, id := range ids {
		delete(d.tags, id)
	}
	d.mu.Unlock()
}
