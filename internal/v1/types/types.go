// Package types defines shared types and constants for the application.
package types

// RoomIdType identifies a room by its opaque, URL-safe ID.
type RoomIdType string

// UserIdType identifies a participant by their opaque, URL-safe ID.
type UserIdType string

// TrackIdType identifies a queue entry by its opaque, URL-safe ID.
type TrackIdType string

// PlaybackStateType is one of "playing" or "paused".
type PlaybackStateType string

const (
	PlaybackStatePlaying PlaybackStateType = "playing"
	PlaybackStatePaused  PlaybackStateType = "paused"
)

// Palette is the fixed set of avatar colors assigned by join order.
var Palette = [12]string{
	"#FF5722", "#FF9800", "#FFC107", "#4CAF50",
	"#2196F3", "#9C27B0", "#E91E63", "#00BCD4",
	"#8BC34A", "#FF5252", "#69F0AE", "#40C4FF",
}

// Track is one queued video reference.
type Track struct {
	Id          TrackIdType `json:"id"`
	YoutubeId   string      `json:"youtubeId"`
	Title       string      `json:"title"`
	Thumbnail   string      `json:"thumbnail"`
	Duration    float64     `json:"duration"`
	AddedBy     UserIdType  `json:"addedBy"`
	AddedByName string      `json:"addedByName"`
}

// User is one connected participant.
type User struct {
	Id    UserIdType `json:"id"`
	Name  string     `json:"name"`
	Color string     `json:"color"`
}

// TrackMetadata is what the YouTube collaborator resolves for a video ID.
type TrackMetadata struct {
	YoutubeId string
	Title     string
	Thumbnail string
}

// --- Inbound message types (client -> server) ---
//
// Dispatch on Type is a closed set; anything else is silently dropped.
const (
	MsgJoin          = "join"
	MsgQueueAdd      = "queue:add"
	MsgQueueRemove   = "queue:remove"
	MsgPlaybackPlay  = "playback:play"
	MsgPlaybackPause = "playback:pause"
	MsgPlaybackSkip  = "playback:skip"
	MsgPlaybackSeek  = "playback:seek"
	MsgChatMessage   = "chat:message"
	MsgCrossfadeSet  = "crossfade:set"
)

// InboundMessage is the decoded JSON envelope received from a participant.
// Fields are a superset across all recognized Type values; only the ones
// relevant to a given Type are read. Time, Text and Duration are decoded
// as `any` because malformed client input (wrong JSON type) must be
// coerced rather than rejected at the transport boundary.
type InboundMessage struct {
	Type     string `json:"type"`
	RoomId   string `json:"roomId,omitempty"`
	UserName string `json:"userName,omitempty"`
	Url      string `json:"url,omitempty"`
	TrackId  string `json:"trackId,omitempty"`
	Time     any    `json:"time,omitempty"`
	Text     any    `json:"text,omitempty"`
	Duration any    `json:"duration,omitempty"`
}

// --- Outbound message types (server -> client) ---

const (
	MsgRoomState        = "room:state"
	MsgRoomError        = "room:error"
	MsgQueueUpdated     = "queue:updated"
	MsgPlaybackSync     = "playback:sync"
	MsgUserJoined       = "user:joined"
	MsgUserLeft         = "user:left"
	MsgSkipVotes        = "skip:votes"
	MsgChatMessageOut   = "chat:message"
	MsgCrossfadeUpdated = "crossfade:updated"
)

// SerializedRoom is the wire representation of a Room sent in room:state.
type SerializedRoom struct {
	Id                RoomIdType        `json:"id"`
	Name              string            `json:"name"`
	HostId            UserIdType        `json:"hostId"`
	Queue             []Track           `json:"queue"`
	CurrentIndex      int               `json:"currentIndex"`
	PlaybackState     PlaybackStateType `json:"playbackState"`
	Elapsed           float64           `json:"elapsed"`
	StartedAt         int64             `json:"startedAt"`
	Users             []User            `json:"users"`
	SkipVotes         int               `json:"skipVotes"`
	SkipNeeded        int               `json:"skipNeeded"`
	CrossfadeDuration float64           `json:"crossfadeDuration"`
}

// RoomStateMessage is sent to a joining session only.
type RoomStateMessage struct {
	Type   string         `json:"type"`
	Room   SerializedRoom `json:"room"`
	UserId UserIdType     `json:"userId"`
}

// RoomErrorMessage is sent to the originating session only.
type RoomErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// QueueUpdatedMessage is broadcast after any queue mutation.
type QueueUpdatedMessage struct {
	Type         string  `json:"type"`
	Queue        []Track `json:"queue"`
	CurrentIndex int     `json:"currentIndex"`
}

// PlaybackSyncMessage is broadcast after any playback clock transition.
// YoutubeId is nil when CurrentIndex is -1.
type PlaybackSyncMessage struct {
	Type         string            `json:"type"`
	State        PlaybackStateType `json:"state"`
	CurrentIndex int               `json:"currentIndex"`
	Elapsed      float64           `json:"elapsed"`
	Timestamp    int64             `json:"timestamp"`
	YoutubeId    *string           `json:"youtubeId"`
}

// UserJoinedMessage is broadcast to every session except the joiner.
type UserJoinedMessage struct {
	Type string `json:"type"`
	User User   `json:"user"`
}

// UserLeftMessage is broadcast to remaining sessions.
type UserLeftMessage struct {
	Type   string     `json:"type"`
	UserId UserIdType `json:"userId"`
}

// SkipVotesMessage reports the current skip tally.
type SkipVotesMessage struct {
	Type    string `json:"type"`
	Current int    `json:"current"`
	Needed  int    `json:"needed"`
}

// ChatMessageOut is broadcast to every participant, including the sender.
type ChatMessageOut struct {
	Type      string     `json:"type"`
	UserId    UserIdType `json:"userId"`
	UserName  string     `json:"userName"`
	Text      string     `json:"text"`
	Timestamp int64      `json:"timestamp"`
}

// CrossfadeUpdatedMessage is broadcast after crossfade:set.
type CrossfadeUpdatedMessage struct {
	Type     string  `json:"type"`
	Duration float64 `json:"duration"`
}

// --- Shared interfaces ---
//
// These let the room and coordinator packages depend on behavior rather
// than on the session package's concrete type, avoiding an import cycle
// (session needs room/coordinator to exist; room/coordinator need only
// this much of session).

// Session is the minimal contract a participant's connection must satisfy.
// Deliver returns false if the message could not be enqueued for send, at
// which point the caller must treat the session as closed.
type Session interface {
	Deliver(payload any) bool
	Close()
}
