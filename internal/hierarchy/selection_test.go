package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_OrderedSet(t *testing.T) {
	s := NewSelection("b", "a", "b")

	assert.Equal(t, []string{"b", "a"}, s.IDs())

	s.Add("c", "a")
	assert.Equal(t, []string{"b", "a", "c"}, s.IDs())

	s.Remove("a", "zzz")
	assert.Equal(t, []string{"b", "c"}, s.IDs())
	assert.False(t, s.Contains("a"))

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.IDs())
}

func TestSelection_ZeroValueUsable(t *testing.T) {
	var s Selection
	assert.True(t, s.ToggleTag("t1"))
	assert.True(t, s.Contains("t1"))
}

func TestSelection_ToggleTag(t *testing.T) {
	s := NewSelection()

	assert.True(t, s.ToggleTag("t1"))
	assert.False(t, s.ToggleTag("t1"))
	assert.Equal(t, 0, s.Len())
}

func TestSelection_IsCollectionSelected(t *testing.T) {
	tree := nestedTree(t)
	require.NoError(t, tree.AddCollection(root, col("empty", nil), Append))

	s := NewSelection("tagY")
	assert.False(t, s.IsCollectionSelected(tree, "sub1"), "tagZ below sub2 is missing")

	s.Add("tagZ")
	assert.True(t, s.IsCollectionSelected(tree, "sub1"))
	assert.True(t, s.IsCollectionSelected(tree, "sub2"))
	assert.False(t, s.IsCollectionSelected(tree, root))

	assert.False(t, s.IsCollectionSelected(tree, "empty"))
	assert.False(t, NewSelection().IsCollectionSelected(tree, "empty"))
}

func TestSelection_ToggleCollection(t *testing.T) {
	tree := nestedTree(t)
	s := NewSelection("tagX", "tagZ")

	assert.True(t, s.ToggleCollection(tree, "sub1"))
	assert.Equal(t, []string{"tagX", "tagZ", "tagY"}, s.IDs())

	assert.False(t, s.ToggleCollection(tree, "sub1"))
	assert.Equal(t, []string{"tagX"}, s.IDs())
}

func TestSelection_ToggleFullySelectedCollectionTwiceRestores(t *testing.T) {
	tree := nestedTree(t)
	s := NewSelection("other", "tagY", "tagZ")
	original := NewSelection(s.IDs()...)
	assert.True(t, s.IsCollectionSelected(tree, "sub1"))

	s.ToggleCollection(tree, "sub1")
	assert.False(t, s.IsCollectionSelected(tree, "sub1"))
	assert.Equal(t, []string{"other"}, s.IDs())

	s.ToggleCollection(tree, "sub1")
	assert.True(t, s.Equal(original))
}

func TestSelection_ToggleEmptyCollection(t *testing.T) {
	tree := mustTree(t, col(root, nil, "empty"), col("empty", nil))
	s := NewSelection("x")

	assert.False(t, s.ToggleCollection(tree, "empty"))
	assert.Equal(t, []string{"x"}, s.IDs())
}
