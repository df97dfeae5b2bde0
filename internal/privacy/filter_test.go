package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripPrivateTags_RemovesSingleBlock(t *testing.T) {
	got := StripPrivateTags("discuss the API <private>my salary is X</private> design")
	assert.Equal(t, "discuss the API  design", got)
}

func TestStripPrivateTags_RemovesMultipleBlocksAcrossLines(t *testing.T) {
	content := "line one <private>secret\nacross lines</private> line two <private>another</private> line three"
	got := StripPrivateTags(content)
	assert.NotContains(t, got, "secret")
	assert.NotContains(t, got, "another")
	assert.Contains(t, got, "line one")
	assert.Contains(t, got, "line three")
}

func TestStripPrivateTags_LeavesUntaggedContentUnchanged(t *testing.T) {
	assert.Equal(t, "nothing private here", StripPrivateTags("nothing private here"))
}

func TestHasOnlyPrivateContent_TrueWhenNothingSurvivesStripping(t *testing.T) {
	assert.True(t, HasOnlyPrivateContent("  <private>everything</private>  "))
}

func TestHasOnlyPrivateContent_FalseWhenContentRemains(t *testing.T) {
	assert.False(t, HasOnlyPrivateContent("<private>secret</private> but also this"))
}
