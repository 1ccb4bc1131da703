package websocket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionTable(t *testing.T) {
	table := NewSessionTable()

	_, ok := table.Lookup("conn-1")
	assert.False(t, ok)

	table.Bind("conn-1", "user-a")
	userID, ok := table.Lookup("conn-1")
	assert.True(t, ok)
	assert.Equal(t, "user-a", userID)

	// Rebinding overwrites; the newest token wins.
	table.Bind("conn-1", "user-b")
	userID, _ = table.Lookup("conn-1")
	assert.Equal(t, "user-b", userID)

	table.Remove("conn-1")
	_, ok = table.Lookup("conn-1")
	assert.False(t, ok)

	// Removing an unknown connection is a no-op.
	table.Remove("conn-404")
}
