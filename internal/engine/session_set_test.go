package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInjectedSets_UnionAndGet(t *testing.T) {
	sets := newInjectedSets()
	key := sessionKey("sess-1", "proj-1")

	sets.union(key, []string{"m1", "m2"})
	got := sets.get(key)
	assert.True(t, got["m1"])
	assert.True(t, got["m2"])
	assert.False(t, got["m3"])
}

func TestInjectedSets_Clear(t *testing.T) {
	sets := newInjectedSets()
	key := sessionKey("sess-1", "proj-1")

	sets.union(key, []string{"m1"})
	sets.clear(key)
	got := sets.get(key)
	assert.Empty(t, got)
}

func TestKeyedMutex_SameKeyReturnsSameLock(t *testing.T) {
	km := newKeyedMutex()
	a := km.get("k1")
	b := km.get("k1")
	assert.Same(t, a, b)

	c := km.get("k2")
	assert.NotSame(t, a, c)
}
