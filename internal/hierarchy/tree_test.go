package hierarchy

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allusionapp/allusion-server/internal/domain"
	"github.com/allusionapp/allusion-server/internal/errors"
)

const root = domain.RootTagCollectionID

func col(id string, tags []string, subs ...string) *domain.TagCollection {
	return &domain.TagCollection{ID: id, Name: id, Tags: tags, SubCollections: subs}
}

func mustTree(t *testing.T, cols ...*domain.TagCollection) *Tree {
	t.Helper()
	tree, err := New(cols)
	require.NoError(t, err)
	require.NoError(t, tree.CheckInvariants())
	return tree
}

// root -> {tagX}, sub1 -> {tagY}, sub2 (in sub1) -> {tagZ}
func nestedTree(t *testing.T) *Tree {
	return mustTree(t,
		col(root, []string{"tagX"}, "sub1"),
		col("sub1", []string{"tagY"}, "sub2"),
		col("sub2", []string{"tagZ"}),
	)
}

func TestNew_RejectsBrokenHierarchies(t *testing.T) {
	tests := []struct {
		name string
		cols []*domain.TagCollection
		want error
	}{
		{"no root", []*domain.TagCollection{col("a", nil)}, errors.ErrInconsistent},
		{"duplicate collection", []*domain.TagCollection{col(root, nil, "a"), col("a", nil), col("a", nil)}, errors.ErrInconsistent},
		{"tag in two collections", []*domain.TagCollection{col(root, []string{"t"}, "a"), col("a", []string{"t"})}, errors.ErrInconsistent},
		{"tag twice in one list", []*domain.TagCollection{col(root, []string{"t", "t"})}, errors.ErrInconsistent},
		{"unknown child", []*domain.TagCollection{col(root, nil, "ghost")}, errors.ErrInconsistent},
		{"two parents", []*domain.TagCollection{col(root, nil, "a", "b"), col("a", nil, "c"), col("b", nil, "c"), col("c", nil)}, errors.ErrInconsistent},
		{"orphan", []*domain.TagCollection{col(root, nil), col("a", nil)}, errors.ErrInconsistent},
		{"root as child", []*domain.TagCollection{col(root, nil, "a"), col("a", nil, root)}, errors.ErrCycle},
		{"detached cycle", []*domain.TagCollection{col(root, nil), col("a", nil, "b"), col("b", nil, "a")}, errors.ErrCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cols)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	r := col(root, []string{"t1"})
	tree := mustTree(t, r)

	r.Tags[0] = "mutated"

	assert.Equal(t, []string{"t1"}, tree.Root().Tags)
}

func TestTree_Accessors(t *testing.T) {
	tree := nestedTree(t)

	owner, ok := tree.OwnerOf("tagZ")
	require.True(t, ok)
	assert.Equal(t, "sub2", owner)

	p, ok := tree.Parent("sub2")
	require.True(t, ok)
	assert.Equal(t, "sub1", p)

	_, ok = tree.Parent(root)
	assert.False(t, ok)

	var order []string
	for _, c := range tree.Collections() {
		order = append(order, c.ID)
	}
	assert.Equal(t, []string{root, "sub1", "sub2"}, order)
	assert.Equal(t, []string{root, "sub1", "sub2"}, tree.Path("sub2"))
	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, 3, tree.TagCount())
}

func TestRecursiveTags(t *testing.T) {
	tree := nestedTree(t)

	assert.Equal(t, []string{"tagY", "tagZ"}, tree.RecursiveTags("sub1"))
	assert.Equal(t, []string{"tagX", "tagY", "tagZ"}, tree.RecursiveTags(root))
	assert.Nil(t, tree.RecursiveTags("missing"))
}

func TestRecursiveTags_OwnTagsBeforeSubCollections(t *testing.T) {
	tree := mustTree(t,
		col(root, []string{"r1", "r2"}, "a", "b"),
		col("a", []string{"a1"}, "a-inner"),
		col("a-inner", []string{"ai1", "ai2"}),
		col("b", []string{"b1"}),
	)

	assert.Equal(t, []string{"r1", "r2", "a1", "ai1", "ai2", "b1"}, tree.RecursiveTags(root))
}

func TestMoveTag(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		target   string
		index    int
		wantRoot []string
		wantA    []string
	}{
		{"into other collection at front", "r2", "a", 0, []string{"r1", "r3"}, []string{"r2", "a1", "a2"}},
		{"append with negative index", "r1", "a", Append, []string{"r2", "r3"}, []string{"a1", "a2", "r1"}},
		{"index past end is clamped", "r3", "a", 99, []string{"r1", "r2"}, []string{"a1", "a2", "r3"}},
		{"within collection downwards", "r1", root, 2, []string{"r2", "r3", "r1"}, []string{"a1", "a2"}},
		{"within collection upwards", "r3", root, 0, []string{"r3", "r1", "r2"}, []string{"a1", "a2"}},
		{"onto itself", "r2", root, 1, []string{"r1", "r2", "r3"}, []string{"a1", "a2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustTree(t,
				col(root, []string{"r1", "r2", "r3"}, "a"),
				col("a", []string{"a1", "a2"}),
			)

			from, err := tree.MoveTag(tt.tag, tt.target, tt.index)
			require.NoError(t, err)
			assert.Equal(t, root, from)

			r, _ := tree.Collection(root)
			a, _ := tree.Collection("a")
			assert.Equal(t, tt.wantRoot, r.Tags)
			assert.Equal(t, tt.wantA, a.Tags)

			owner, _ := tree.OwnerOf(tt.tag)
			assert.Equal(t, tt.target, owner)
			assert.NoError(t, tree.CheckInvariants())
		})
	}
}

func TestMoveTag_RejectsUnknownIDs(t *testing.T) {
	tree := nestedTree(t)
	before := tree.Clone()

	_, err := tree.MoveTag("not-placed", "sub1", 0)
	assert.ErrorIs(t, err, errors.ErrInconsistent)

	_, err = tree.MoveTag("tagX", "no-such-collection", 0)
	assert.ErrorIs(t, err, errors.ErrInconsistent)

	assert.True(t, tree.Equal(before))
}

func TestMoveTagBefore(t *testing.T) {
	tree := mustTree(t,
		col(root, []string{"r1", "r2", "r3"}, "a"),
		col("a", []string{"a1", "a2"}),
	)

	_, err := tree.MoveTagBefore("r1", "a2")
	require.NoError(t, err)
	a, _ := tree.Collection("a")
	assert.Equal(t, []string{"a1", "r1", "a2"}, a.Tags)

	_, err = tree.MoveTagBefore("r2", "r3")
	require.NoError(t, err)
	r, _ := tree.Collection(root)
	assert.Equal(t, []string{"r2", "r3"}, r.Tags)

	_, err = tree.MoveTagBefore("r3", "r2")
	require.NoError(t, err)
	r, _ = tree.Collection(root)
	assert.Equal(t, []string{"r3", "r2"}, r.Tags)

	_, err = tree.MoveTagBefore("r3", "r3")
	require.NoError(t, err)

	_, err = tree.MoveTagBefore("r3", "ghost")
	assert.ErrorIs(t, err, errors.ErrInconsistent)
	assert.NoError(t, tree.CheckInvariants())
}

func TestMoveCollection(t *testing.T) {
	tree := mustTree(t,
		col(root, nil, "a", "b", "c"),
		col("a", nil),
		col("b", nil, "b1"),
		col("b1", nil),
		col("c", nil),
	)

	from, err := tree.MoveCollection("c", "b", 0)
	require.NoError(t, err)
	assert.Equal(t, root, from)

	b, _ := tree.Collection("b")
	assert.Equal(t, []string{"c", "b1"}, b.SubCollections)

	_, err = tree.MoveCollection("a", root, Append)
	require.NoError(t, err)
	r, _ := tree.Collection(root)
	assert.Equal(t, []string{"b", "a"}, r.SubCollections)

	p, _ := tree.Parent("c")
	assert.Equal(t, "b", p)
	assert.NoError(t, tree.CheckInvariants())
}

// A contains B contains C. Moving A under C would close a cycle.
func TestMoveCollection_NoCycle(t *testing.T) {
	tree := mustTree(t,
		col(root, nil, "A"),
		col("A", []string{"ta"}, "B"),
		col("B", []string{"tb"}, "C"),
		col("C", []string{"tc"}),
	)
	before := tree.Clone()

	tests := []struct {
		name, col, target string
	}{
		{"into grandchild", "A", "C"},
		{"into child", "A", "B"},
		{"into itself", "B", "B"},
		{"root", root, "C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tree.MoveCollection(tt.col, tt.target, 0)
			assert.ErrorIs(t, err, errors.ErrCycle)
			assert.True(t, tree.Equal(before))
			assert.NoError(t, tree.CheckInvariants())
		})
	}

	assert.Equal(t, []string{"A"}, tree.Root().SubCollections)
	a, _ := tree.Collection("A")
	assert.Equal(t, []string{"B"}, a.SubCollections)
	b, _ := tree.Collection("B")
	assert.Equal(t, []string{"C"}, b.SubCollections)
}

func TestMoveCollection_UnknownIDs(t *testing.T) {
	tree := nestedTree(t)

	_, err := tree.MoveCollection("ghost", root, 0)
	assert.ErrorIs(t, err, errors.ErrInconsistent)

	_, err = tree.MoveCollection("sub2", "ghost", 0)
	assert.ErrorIs(t, err, errors.ErrInconsistent)
}

// Random sequences of moves, valid or not, never break the tree.
func TestMoves_PreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 42))

	for round := range 50 {
		tree := mustTree(t,
			col(root, []string{"t0", "t1"}, "c1", "c2"),
			col("c1", []string{"t2", "t3"}, "c3"),
			col("c2", []string{"t4"}),
			col("c3", []string{"t5", "t6", "t7"}, "c4"),
			col("c4", nil),
		)
		tags := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "ghost"}
		cols := []string{root, "c1", "c2", "c3", "c4", "nowhere"}

		for range 200 {
			target := cols[rng.IntN(len(cols))]
			index := rng.IntN(6) - 1

			before := tree.Clone()
			var err error
			switch rng.IntN(3) {
			case 0:
				_, err = tree.MoveTag(tags[rng.IntN(len(tags))], target, index)
			case 1:
				_, err = tree.MoveTagBefore(tags[rng.IntN(len(tags))], tags[rng.IntN(len(tags))])
			default:
				_, err = tree.MoveCollection(cols[rng.IntN(len(cols))], target, index)
			}
			if err != nil {
				require.True(t, tree.Equal(before), "round %d: failed move changed the tree", round)
			}
			require.NoError(t, tree.CheckInvariants(), "round %d", round)
		}

		assert.Equal(t, 8, tree.TagCount())
		assert.Equal(t, 5, tree.Len())
		assert.ElementsMatch(t, tags[:8], tree.RecursiveTags(root))
	}
}

func TestAddAndRemove(t *testing.T) {
	tree := nestedTree(t)

	require.NoError(t, tree.AddTag("sub1", "tagNew", 0))
	assert.ErrorIs(t, tree.AddTag("sub2", "tagNew", 0), errors.ErrAlreadyExists)
	assert.ErrorIs(t, tree.AddTag("ghost", "tagOther", 0), errors.ErrNotFound)

	require.NoError(t, tree.AddCollection("sub2", &domain.TagCollection{ID: "sub3", Name: "Deep", Tags: []string{"ignored"}}, Append))
	assert.ErrorIs(t, tree.AddCollection("sub2", &domain.TagCollection{ID: "sub3"}, Append), errors.ErrAlreadyExists)
	require.NoError(t, tree.AddTag("sub3", "tagDeep", Append))

	sub3, _ := tree.Collection("sub3")
	assert.Equal(t, []string{"tagDeep"}, sub3.Tags)
	assert.NoError(t, tree.CheckInvariants())

	require.NoError(t, tree.RemoveTag("tagX"))
	assert.ErrorIs(t, tree.RemoveTag("tagX"), errors.ErrInconsistent)

	tagIDs, colIDs, err := tree.RemoveCollection("sub1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub1", "sub2", "sub3"}, colIDs)
	assert.ElementsMatch(t, []string{"tagNew", "tagY", "tagZ", "tagDeep"}, tagIDs)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, 0, tree.TagCount())
	assert.NoError(t, tree.CheckInvariants())

	_, _, err = tree.RemoveCollection(root)
	assert.ErrorIs(t, err, errors.ErrConflict)
	_, _, err = tree.RemoveCollection("sub1")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRenameAndColor(t *testing.T) {
	tree := nestedTree(t)

	require.NoError(t, tree.RenameCollection("sub1", "Animals"))
	require.NoError(t, tree.SetCollectionColor("sub1", "#ff0000"))
	assert.ErrorIs(t, tree.RenameCollection("ghost", "x"), errors.ErrNotFound)

	c, _ := tree.Collection("sub1")
	assert.Equal(t, "Animals", c.Name)
	assert.Equal(t, "#ff0000", c.Color)
}

func TestNewEmpty(t *testing.T) {
	tree := NewEmpty(&domain.TagCollection{ID: "whatever", Name: "Hierarchy", Tags: []string{"x"}})

	assert.Equal(t, root, tree.Root().ID)
	assert.Empty(t, tree.Root().Tags)
	assert.NoError(t, tree.CheckInvariants())
}

func TestCheckInvariants_DetectsStaleIndex(t *testing.T) {
	tree := nestedTree(t)
	tree.tagOwner["tagX"] = "sub2"

	assert.ErrorIs(t, tree.CheckInvariants(), errors.ErrInconsistent)
}
