// Package seed loads a tag hierarchy and file records from a YAML document.
//
// A seed file looks like:
//
//	tags:
//	  - name: Favourites
//	collections:
//	  - name: Nature
//	    color: "#2e7d32"
//	    tags:
//	      - name: Sky
//	    collections:
//	      - name: Animals
//	        tags: [{name: Cat}]
//	files:
//	  - path: /photos/beach.png
//	    size: 204800
//	    tags: [Sky]
//
// Files reference tags by name. Seeding only adds; nothing is removed.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
	"github.com/allusionapp/allusion-server/internal/service"
)

// Document is the root of a seed file.
type Document struct {
	Tags        []Tag        `yaml:"tags"`
	Collections []Collection `yaml:"collections"`
	Files       []File       `yaml:"files"`
}

// Collection is a collection with its own tags and children.
type Collection struct {
	Name        string       `yaml:"name"`
	Color       string       `yaml:"color"`
	Tags        []Tag        `yaml:"tags"`
	Collections []Collection `yaml:"collections"`
}

// Tag is a tag definition.
type Tag struct {
	Name  string `yaml:"name"`
	Color string `yaml:"color"`
}

// File is a file record. Name and extension default to the path's base name.
type File struct {
	ID        string            `yaml:"id"`
	Path      string            `yaml:"path"`
	Name      string            `yaml:"name"`
	Size      int64             `yaml:"size"`
	Width     int               `yaml:"width"`
	Height    int               `yaml:"height"`
	DateAdded time.Time         `yaml:"date_added"`
	Tags      []string          `yaml:"tags"`
	Comments  string            `yaml:"comments"`
	Metadata  map[string]string `yaml:"metadata"`
}

// Result counts what a seed created.
type Result struct {
	Tags        int
	Collections int
	Files       int
}

// Parse decodes a seed document. Unknown fields are rejected.
func Parse(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &doc, nil
		}
		return nil, errors.Wrap(err, errors.CodeValidation, "parse seed document")
	}
	return &doc, nil
}

// ParseFile reads and decodes a seed file.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path) //#nosec G304 -- seed path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Seeder applies documents through the services so every change takes the
// same path as an API call.
type Seeder struct {
	hierarchy *service.HierarchyService
	files     *service.FileService
}

// New creates a Seeder.
func New(h *service.HierarchyService, files *service.FileService) *Seeder {
	return &Seeder{hierarchy: h, files: files}
}

// IsEmpty reports whether the library has no tags, collections or files.
func (s *Seeder) IsEmpty(ctx context.Context) bool {
	return s.hierarchy.Tags().Len() == 0 &&
		len(s.hierarchy.Collections()) == 1 &&
		len(s.files.List(ctx)) == 0
}

// Apply creates the document's tags and collections under the root, then
// upserts its files.
func (s *Seeder) Apply(ctx context.Context, doc *Document) (Result, error) {
	var res Result

	if err := s.addTags(ctx, domain.RootTagCollectionID, doc.Tags, &res); err != nil {
		return res, err
	}
	for _, c := range doc.Collections {
		if err := s.addCollection(ctx, domain.RootTagCollectionID, c, &res); err != nil {
			return res, err
		}
	}

	for i, f := range doc.Files {
		req, err := s.fileRequest(f)
		if err != nil {
			return res, fmt.Errorf("file %d: %w", i, err)
		}
		if _, err := s.files.Upsert(ctx, req); err != nil {
			return res, fmt.Errorf("file %s: %w", f.Path, err)
		}
		res.Files++
	}
	return res, nil
}

func (s *Seeder) addCollection(ctx context.Context, parentID string, c Collection, res *Result) error {
	col, err := s.hierarchy.AddCollection(ctx, service.AddCollectionRequest{
		Name:     c.Name,
		Color:    c.Color,
		ParentID: parentID,
	})
	if err != nil {
		return fmt.Errorf("collection %q: %w", c.Name, err)
	}
	res.Collections++

	if err := s.addTags(ctx, col.ID, c.Tags, res); err != nil {
		return err
	}
	for _, child := range c.Collections {
		if err := s.addCollection(ctx, col.ID, child, res); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) addTags(ctx context.Context, colID string, tags []Tag, res *Result) error {
	for _, t := range tags {
		if _, err := s.hierarchy.AddTag(ctx, service.AddTagRequest{
			Name:         t.Name,
			Color:        t.Color,
			CollectionID: colID,
		}); err != nil {
			return fmt.Errorf("tag %q: %w", t.Name, err)
		}
		res.Tags++
	}
	return nil
}

func (s *Seeder) fileRequest(f File) (service.UpsertFileRequest, error) {
	if f.Path == "" {
		return service.UpsertFileRequest{}, errors.Validation("path is required")
	}
	name := f.Name
	if name == "" {
		name = filepath.Base(f.Path)
	}

	tagIDs := make([]string, 0, len(f.Tags))
	for _, tagName := range f.Tags {
		tag, ok := s.hierarchy.Tags().FindByName(tagName)
		if !ok {
			return service.UpsertFileRequest{}, errors.NotFoundf("tag %q not found", tagName)
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	return service.UpsertFileRequest{
		ID:           f.ID,
		Name:         name,
		AbsolutePath: f.Path,
		Extension:    filepath.Ext(f.Path),
		Size:         f.Size,
		Width:        f.Width,
		Height:       f.Height,
		DateAdded:    f.DateAdded,
		Tags:         tagIDs,
		Comments:     f.Comments,
		Metadata:     f.Metadata,
	}, nil
}
