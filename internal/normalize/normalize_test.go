package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Landscape", "Landscape"},
		{"  Blue\tSky ", "Blue Sky"},
		{"a   b\n c", "a b c"},
		{"bell\x07", "bell"},
		{"", ""},
		{"   ", ""},
		{"Café", "Café"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.input))
		})
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cafe", Key("Café"))
	assert.Equal(t, Key("Café"), Key("CAFE"))
	assert.Equal(t, Key(" blue  sky"), Key("Blue Sky"))
	assert.NotEqual(t, Key("blue"), Key("blues"))
}

func TestCollator_Sort(t *testing.T) {
	c := NewCollator("en")

	names := []string{"item 10", "Zebra", "apple", "item 2", "Éclair"}
	c.Sort(names)

	assert.Equal(t, []string{"apple", "Éclair", "item 2", "item 10", "Zebra"}, names)
	assert.Equal(t, 0, c.Compare("abc", "ABC"))
	assert.Equal(t, -1, c.Compare("a", "b"))
}

func TestNewCollator_InvalidTagFallsBack(t *testing.T) {
	c := NewCollator("not a tag!")
	assert.Equal(t, -1, c.Compare("a", "b"))
}
