package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/listenroom/backend/internal/v1/clock"
	"github.com/listenroom/backend/internal/v1/session"
	"github.com/listenroom/backend/internal/v1/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConn implements the unexported session.wsConnection interface
// structurally; none of its methods are exercised directly in these
// tests since HandleMessage/Disconnect never run the read/write pumps.
type stubConn struct{}

func (stubConn) ReadMessage() (int, []byte, error)  { return 0, nil, nil }
func (stubConn) WriteMessage(int, []byte) error     { return nil }
func (stubConn) Close() error                       { return nil }
func (stubConn) SetReadDeadline(time.Time) error     { return nil }
func (stubConn) SetWriteDeadline(time.Time) error    { return nil }
func (stubConn) SetPongHandler(func(string) error)   {}

// stubResolver is a fake youtube.Resolver for deterministic tests.
type stubResolver struct {
	id   string
	err  error
	meta types.TrackMetadata
}

func (s stubResolver) ExtractID(raw string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.id, nil
}

func (s stubResolver) FetchMetadata(ctx context.Context, videoId string) types.TrackMetadata {
	return s.meta
}

func newTestCoordinator() (*Coordinator, *clock.Fake) {
	fake := clock.NewFake(1_000_000)
	resolver := stubResolver{
		id:   "dQw4w9WgXcQ",
		meta: types.TrackMetadata{YoutubeId: "dQw4w9WgXcQ", Title: "Track", Thumbnail: "thumb.jpg"},
	}
	return New(fake, nil, resolver), fake
}

func newTestSession(co *Coordinator) *session.Session {
	return session.New(stubConn{}, co)
}

func TestHandleMessage_JoinUnknownRoom(t *testing.T) {
	co, _ := newTestCoordinator()
	s := newTestSession(co)

	co.HandleMessage(s, types.InboundMessage{Type: types.MsgJoin, RoomId: "missing"})

	_, joined := co.sessions[s]
	assert.False(t, joined)
}

func TestHandleMessage_JoinAssignsHostAndState(t *testing.T) {
	co, _ := newTestCoordinator()
	r := co.CreateRoom("Test Room")
	s := newTestSession(co)

	co.HandleMessage(s, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id), UserName: "Alice"})

	key, joined := co.sessions[s]
	require.True(t, joined)
	assert.Equal(t, r.Id, key.roomId)
	assert.True(t, r.IsHost(key.userId))
	assert.Equal(t, 1, r.UserCount())
}

func TestHandleMessage_PreJoinMessageDropped(t *testing.T) {
	co, _ := newTestCoordinator()
	r := co.CreateRoom("Test Room")
	s := newTestSession(co)

	co.HandleMessage(s, types.InboundMessage{Type: types.MsgChatMessage, Text: "hello"})

	_, joined := co.sessions[s]
	assert.False(t, joined)
	assert.Equal(t, 0, r.UserCount())
}

func TestHandleMessage_QueueAddResolvesAndStarts(t *testing.T) {
	co, _ := newTestCoordinator()
	r := co.CreateRoom("Test Room")
	s := newTestSession(co)
	co.HandleMessage(s, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id), UserName: "Alice"})

	co.HandleMessage(s, types.InboundMessage{Type: types.MsgQueueAdd, Url: "https://youtu.be/dQw4w9WgXcQ"})

	state := r.Serialize()
	require.Len(t, state.Queue, 1)
	assert.Equal(t, "dQw4w9WgXcQ", state.Queue[0].YoutubeId)
	assert.Equal(t, types.PlaybackStatePlaying, state.PlaybackState)
}

func TestHandleMessage_QueueAddInvalidURLAddsNoTrack(t *testing.T) {
	fake := clock.NewFake(1_000_000)
	resolver := stubResolver{err: errors.New("bad url")}
	co := New(fake, nil, resolver)
	r := co.CreateRoom("Test Room")
	s := newTestSession(co)
	co.HandleMessage(s, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id)})

	co.HandleMessage(s, types.InboundMessage{Type: types.MsgQueueAdd, Url: "not a url"})

	state := r.Serialize()
	assert.Empty(t, state.Queue)
}

func TestHandleMessage_AnyParticipantCanControlPlayback(t *testing.T) {
	co, _ := newTestCoordinator()
	r := co.CreateRoom("Test Room")

	host := newTestSession(co)
	co.HandleMessage(host, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id), UserName: "Host"})

	guest := newTestSession(co)
	co.HandleMessage(guest, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id), UserName: "Guest"})

	co.HandleMessage(host, types.InboundMessage{Type: types.MsgQueueAdd, Url: "dQw4w9WgXcQ"})
	r.Pause()

	guestKey := co.sessions[guest]
	require.False(t, r.IsHost(guestKey.userId))

	co.HandleMessage(guest, types.InboundMessage{Type: types.MsgPlaybackPlay})
	assert.Equal(t, types.PlaybackStatePlaying, r.Serialize().PlaybackState, "playback control has no host restriction")
}

func TestHandleMessage_RemoveTrackDeniedForNonHostNonOwner(t *testing.T) {
	co, _ := newTestCoordinator()
	r := co.CreateRoom("Test Room")

	host := newTestSession(co)
	co.HandleMessage(host, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id), UserName: "Host"})
	guest := newTestSession(co)
	co.HandleMessage(guest, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id), UserName: "Guest"})

	co.HandleMessage(host, types.InboundMessage{Type: types.MsgQueueAdd, Url: "dQw4w9WgXcQ"})
	trackId := string(r.Serialize().Queue[0].Id)

	co.HandleMessage(guest, types.InboundMessage{Type: types.MsgQueueRemove, TrackId: trackId})
	assert.Len(t, r.Serialize().Queue, 1, "non-host non-owner removal must be denied")

	co.HandleMessage(host, types.InboundMessage{Type: types.MsgQueueRemove, TrackId: trackId})
	assert.Empty(t, r.Serialize().Queue, "host may remove any track")
}

func TestDisconnect_MigratesHostAndReapsEmptyRoom(t *testing.T) {
	co, _ := newTestCoordinator()
	r := co.CreateRoom("Test Room")

	host := newTestSession(co)
	co.HandleMessage(host, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id), UserName: "Host"})
	guest := newTestSession(co)
	co.HandleMessage(guest, types.InboundMessage{Type: types.MsgJoin, RoomId: string(r.Id), UserName: "Guest"})

	guestKey := co.sessions[guest]

	co.Disconnect(host)
	assert.True(t, r.IsHost(guestKey.userId))
	assert.Equal(t, 1, r.UserCount())

	co.Disconnect(guest)
	_, stillExists := co.GetRoom(r.Id)
	assert.False(t, stillExists)
}
