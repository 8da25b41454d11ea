package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagCollection_Membership(t *testing.T) {
	c := &TagCollection{ID: "col-1", Tags: []string{"t1", "t2"}, SubCollections: []string{"col-2"}}

	assert.True(t, c.HasTag("t1"))
	assert.False(t, c.HasTag("col-2"))
	assert.True(t, c.HasSubCollection("col-2"))
	assert.False(t, c.IsEmpty())
	assert.False(t, c.IsRoot())
	assert.True(t, (&TagCollection{ID: RootTagCollectionID}).IsRoot())
	assert.True(t, (&TagCollection{ID: "x"}).IsEmpty())
}

func TestTagCollection_CloneIsDeep(t *testing.T) {
	c := &TagCollection{ID: "col-1", Name: "Animals", Tags: []string{"t1"}}

	cp := c.Clone()
	cp.Tags[0] = "changed"
	cp.Name = "Plants"

	assert.Equal(t, "t1", c.Tags[0])
	assert.Equal(t, "Animals", c.Name)
	assert.NotNil(t, cp.SubCollections, "nil slices become empty so JSON renders []")
}
