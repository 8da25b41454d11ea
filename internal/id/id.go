// Package id generates identifiers for persisted entities and for the
// ephemeral rows of the search editor.
package id

import (
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for persisted entities.
const (
	PrefixTag         = "tag"
	PrefixCollection  = "col"
	PrefixFile        = "file"
	PrefixSavedSearch = "search"
)

// criteriaPrefix marks ids that only identify a row in the search editor.
const criteriaPrefix = "__criteria"

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "tag-V1StGXR8_Z5jdHi6B-myT").
//
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Ephemeral returns a fresh id for a search editor row.
// These ids have no domain counterpart and are never persisted.
func Ephemeral() string {
	return criteriaPrefix + "-" + uuid.NewString()
}

// IsEphemeral reports whether s was produced by Ephemeral.
func IsEphemeral(s string) bool {
	return len(s) > len(criteriaPrefix)+1 && s[:len(criteriaPrefix)+1] == criteriaPrefix+"-"
}
