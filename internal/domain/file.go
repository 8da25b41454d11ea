package domain

import (
	"slices"
	"strings"
	"time"
)

// ImageExtensions lists the supported file extensions. The first entry is
// the default value of a new extension query.
var ImageExtensions = []string{"gif", "png", "apng", "jpg", "jpeg", "jfif", "webp", "tif", "tiff", "bmp", "svg", "ico"}

// IsSupportedExtension reports whether ext (without dot, any case) is supported.
func IsSupportedExtension(ext string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(strings.TrimPrefix(ext, ".")))
}

// File is the metadata of one media file as provided by the file metadata
// provider. Metadata holds externally sourced fields such as "Creator".
type File struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	AbsolutePath string            `json:"absolute_path"`
	Extension    string            `json:"extension"`
	Size         int64             `json:"size"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	DateAdded    time.Time         `json:"date_added"`
	Tags         []string          `json:"tags"`
	Comments     string            `json:"comments"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// SetComment replaces the free-text comment and returns it.
func (f *File) SetComment(comment string) string {
	f.Comments = comment
	return comment
}

// HasTag reports whether the file carries tagID.
func (f *File) HasTag(tagID string) bool {
	return slices.Contains(f.Tags, tagID)
}

// AddTag attaches tagID if not already present.
func (f *File) AddTag(tagID string) bool {
	if f.HasTag(tagID) {
		return false
	}
	f.Tags = append(f.Tags, tagID)
	return true
}

// RemoveTag detaches tagID.
func (f *File) RemoveTag(tagID string) bool {
	i := slices.Index(f.Tags, tagID)
	if i < 0 {
		return false
	}
	f.Tags = slices.Delete(f.Tags, i, i+1)
	return true
}
