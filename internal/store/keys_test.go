package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "quire:prod:entity:1-2-00000000000000ff", EntityKey("prod", "1-2-00000000000000ff"))
	assert.Equal(t, "quire:prod:ident:2-00000000000000ff", AllocationKey("prod", "2-00000000000000ff"))
	assert.Equal(t, "quire:prod:document_events", DocumentEventsChannel("prod"))
	assert.Equal(t, `quire:prod:entity:1-\*x*`, EntityKeyPattern("prod", "1-*x"))

	id, ok := EntityIDFromKey("prod", "quire:prod:entity:1-2-00000000000000ff")
	assert.True(t, ok)
	assert.Equal(t, "1-2-00000000000000ff", id)

	_, ok = EntityIDFromKey("prod", "quire:dev:entity:1-2-00000000000000ff")
	assert.False(t, ok)
}
