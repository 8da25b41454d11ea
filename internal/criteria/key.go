// Package criteria is the editable side of file search: the closed set of
// searchable fields, the operator and value each field admits, and the
// conversion between editor rows and domain search criteria.
package criteria

import (
	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
)

// Key identifies a searchable file field.
type Key string

// Field keys. Creator comes from embedded file metadata rather than the file record.
const (
	KeyName         Key = "name"
	KeyAbsolutePath Key = "absolutePath"
	KeyTags         Key = "tags"
	KeyExtension    Key = "extension"
	KeySize         Key = "size"
	KeyWidth        Key = "width"
	KeyHeight       Key = "height"
	KeyDateAdded    Key = "dateAdded"
	KeyComments     Key = "comments"
	KeyCreator      Key = "Creator"
)

// FieldType is the declared value type of a key. It decides which Query
// variant, operator set and value type are legal.
type FieldType string

// Field types.
const (
	FieldString FieldType = "string"
	FieldTag    FieldType = "tag"
	FieldBinary FieldType = "binary"
	FieldNumber FieldType = "number"
	FieldSize   FieldType = "size" // number of bytes, edited in megabytes
	FieldDate   FieldType = "date"
)

type keyInfo struct {
	label string
	typ   FieldType
}

var keyTable = map[Key]keyInfo{
	KeyName:         {"File name", FieldString},
	KeyAbsolutePath: {"Path", FieldString},
	KeyTags:         {"Tags", FieldTag},
	KeyExtension:    {"File type", FieldBinary},
	KeySize:         {"File size (MB)", FieldSize},
	KeyWidth:        {"Width", FieldNumber},
	KeyHeight:       {"Height", FieldNumber},
	KeyDateAdded:    {"Date added", FieldDate},
	KeyComments:     {"Comments", FieldString},
	KeyCreator:      {"Creator", FieldString},
}

// Keys returns every key in display order.
func Keys() []Key {
	return []Key{
		KeyName, KeyAbsolutePath, KeyTags, KeyExtension, KeySize,
		KeyWidth, KeyHeight, KeyDateAdded, KeyComments, KeyCreator,
	}
}

// ParseKey returns the Key named s, or a validation error.
func ParseKey(s string) (Key, error) {
	k := Key(s)
	if !k.Valid() {
		return "", errors.Validationf("unknown search field %q", s)
	}
	return k, nil
}

// Valid reports whether k is a known key.
func (k Key) Valid() bool {
	_, ok := keyTable[k]
	return ok
}

// FieldType returns the declared type of k. Unknown keys have an empty type.
func (k Key) FieldType() FieldType {
	return keyTable[k].typ
}

// Label is the human readable name of k.
func (k Key) Label() string {
	if info, ok := keyTable[k]; ok {
		return info.label
	}
	return string(k)
}

// Operators lists the operator names legal for k.
func (k Key) Operators() []string {
	var ops []string
	switch k.FieldType() {
	case FieldString:
		for _, op := range domain.StringOperators() {
			ops = append(ops, string(op))
		}
	case FieldTag:
		for _, op := range domain.TagOperators() {
			ops = append(ops, string(op))
		}
	case FieldBinary:
		for _, op := range domain.BinaryOperators() {
			ops = append(ops, string(op))
		}
	case FieldNumber, FieldSize, FieldDate:
		for _, op := range domain.NumberOperators() {
			ops = append(ops, string(op))
		}
	}
	return ops
}
