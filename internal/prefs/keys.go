package prefs

import "github.com/allusionapp/allusion-server/internal/normalize"

// Key prefixes. Entity index keys live under <prefix>idx:<name>:<value>.
const (
	prefixSavedSearch = "search:"
	indexInfix        = "idx:"

	keySelection  = "ui:selection"
	keyLastSearch = "ui:last-search"
)

func entityKey(prefix, id string) []byte {
	return []byte(prefix + id)
}

func indexKey(prefix, index, value string) []byte {
	return []byte(prefix + indexInfix + index + ":" + value)
}

// savedSearchNameKey makes "Sunsets", "sunsets" and "Sunséts" collide.
func savedSearchNameKey(name string) string {
	return normalize.Key(normalize.Name(name))
}
