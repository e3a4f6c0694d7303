// Package ids generates opaque, URL-safe random identifiers.
//
// No dependency in the reference stack produces IDs of this shape:
// google/uuid emits 36-character UUIDs, unsuitable for the short
// room/user/track IDs this spec requires. Generation is built directly
// on crypto/rand with a fixed alphabet, matching how the reference
// repo reaches for crypto/rand rather than math/rand anywhere security
// or collision-resistance matters.
package ids

import (
	"crypto/rand"
)

// alphabet is URL-safe: no characters that need escaping in a path segment.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

const (
	RoomIdLength  = 8
	UserIdLength  = 10
	TrackIdLength = 8
)

// Generate returns a random, URL-safe ID of the given length.
func Generate(length int) string {
	out := make([]byte, length)
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand.Read on a properly seeded OS is not expected to fail;
		// degrade to one single-byte read per character (secureIndex)
		// instead of panicking the caller.
		for i := range out {
			out[i] = alphabet[secureIndex()]
		}
		return string(out)
	}
	for i, b := range buf {
		out[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(out)
}

func secureIndex() int {
	var b [1]byte
	_, _ = rand.Read(b[:])
	return int(b[0]) % len(alphabet)
}

// NewRoomId returns a fresh room ID.
func NewRoomId() string { return Generate(RoomIdLength) }

// NewUserId returns a fresh user ID.
func NewUserId() string { return Generate(UserIdLength) }

// NewTrackId returns a fresh track ID.
func NewTrackId() string { return Generate(TrackIdLength) }
