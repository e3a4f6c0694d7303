package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate_Length(t *testing.T) {
	assert.Len(t, NewRoomId(), RoomIdLength)
	assert.Len(t, NewUserId(), UserIdLength)
	assert.Len(t, NewTrackId(), TrackIdLength)
}

func TestGenerate_CollisionFree(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 5000; i++ {
		id := NewRoomId()
		assert.False(t, seen[id], "unexpected duplicate id %s", id)
		seen[id] = true
	}
}

func TestGenerate_Alphabet(t *testing.T) {
	id := Generate(64)
	for _, c := range id {
		assert.Contains(t, alphabet, string(c))
	}
}
