package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/allusionapp/allusion-server/internal/domain"
)

func TestClick(t *testing.T) {
	tree := nestedTree(t)
	sel := NewSelection()

	assert.Equal(t, ClickToggledTag, Click(tree, sel, "tagX"))
	assert.Equal(t, []string{"tagX"}, sel.IDs())

	assert.Equal(t, ClickToggledCollection, Click(tree, sel, "sub1"))
	assert.Equal(t, []string{"tagX", "tagY", "tagZ"}, sel.IDs())

	assert.Equal(t, ClickToggledCollection, Click(tree, sel, "sub1"))
	assert.Equal(t, []string{"tagX"}, sel.IDs())

	assert.Equal(t, ClickIgnored, Click(tree, sel, domain.UntaggedID))
	assert.Equal(t, ClickIgnored, Click(tree, sel, domain.SystemTagsID))
	assert.Equal(t, []string{"tagX"}, sel.IDs())

	assert.Equal(t, ClickClearedSelection, Click(tree, sel, domain.AllTagsID))
	assert.Equal(t, 0, sel.Len())
}
