// Package search executes structured file searches on a Bleve index. It
// translates domain search criteria into Bleve queries and keeps one
// document per file.
package search

import (
	"strings"

	"github.com/allusionapp/allusion-server/internal/domain"
)

// Index field names.
const (
	fieldID           = "id"
	fieldName         = "name"
	fieldAbsolutePath = "absolute_path"
	fieldExtension    = "extension"
	fieldComments     = "comments"
	fieldTags         = "tags"
	fieldSize         = "size"
	fieldWidth        = "width"
	fieldHeight       = "height"
	fieldDateAdded    = "date_added"
	fieldText         = "text"
	metadataPrefix    = "meta_"
)

// FileDocument is the indexed form of a file.
type FileDocument struct {
	ID           string
	Name         string
	AbsolutePath string
	Extension    string
	Comments     string
	Tags         []string
	Size         int64
	Width        int
	Height       int
	DateAdded    int64 // Unix millis
	Metadata     map[string]string
}

// NewFileDocument builds the index document for f.
func NewFileDocument(f *domain.File) *FileDocument {
	return &FileDocument{
		ID:           f.ID,
		Name:         f.Name,
		AbsolutePath: f.AbsolutePath,
		Extension:    strings.ToLower(strings.TrimPrefix(f.Extension, ".")),
		Comments:     f.Comments,
		Tags:         f.Tags,
		Size:         f.Size,
		Width:        f.Width,
		Height:       f.Height,
		DateAdded:    f.DateAdded.UnixMilli(),
		Metadata:     f.Metadata,
	}
}

// ToMap converts the document to the field names of the index mapping.
// Metadata entries become meta_<lowercased key> fields.
func (d *FileDocument) ToMap() map[string]any {
	m := map[string]any{
		fieldID:           d.ID,
		fieldName:         d.Name,
		fieldAbsolutePath: d.AbsolutePath,
		fieldExtension:    d.Extension,
		fieldComments:     d.Comments,
		fieldSize:         float64(d.Size),
		fieldWidth:        float64(d.Width),
		fieldHeight:       float64(d.Height),
		fieldDateAdded:    float64(d.DateAdded),
	}
	if len(d.Tags) > 0 {
		m[fieldTags] = d.Tags
	}

	text := []string{d.Name, d.Comments}
	for k, v := range d.Metadata {
		m[metadataField(k)] = v
		text = append(text, v)
	}
	m[fieldText] = strings.Join(text, " ")

	return m
}

func metadataField(key string) string {
	return metadataPrefix + strings.ToLower(key)
}
