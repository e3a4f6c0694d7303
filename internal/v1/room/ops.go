package room

import (
	"strings"

	"github.com/listenroom/backend/internal/v1/ids"
	"github.com/listenroom/backend/internal/v1/types"
)

const (
	maxRoomNameLength    = 64
	maxUserNameLength    = 24
	maxChatMessageLength = 500
	defaultUserName      = "Anonymous"
)

// Join adds a new participant, assigns it a palette color by join order,
// makes it host if it is the first participant, and broadcasts user:joined
// to everyone else. It returns a room:state snapshot to send back to the
// joiner alone, plus the IDs of any users evicted by that broadcast.
// userName is trimmed and truncated to 24 chars, defaulting to "Anonymous".
func (r *Room) Join(userId types.UserIdType, userName string, sess types.Session) (types.SerializedRoom, []types.UserIdType) {
	r.mu.Lock()

	name := normalizeUserName(userName)
	color := types.Palette[len(r.userOrder)%len(types.Palette)]
	user := types.User{Id: userId, Name: name, Color: color}

	r.userOrder = append(r.userOrder, userId)
	r.users[userId] = user
	r.sessions[userId] = sess

	if r.hostId == "" {
		r.hostId = userId
	}

	state := r.serializeLocked()
	joined := types.UserJoinedMessage{Type: types.MsgUserJoined, User: user}
	evicted := r.broadcastLocked(types.MsgUserJoined, joined, userId)

	r.mu.Unlock()
	r.notifyEvicted(evicted)

	return state, evicted
}

// Leave removes a participant, migrating host to the first remaining user
// in insertion order when the departing user was host, and broadcasts
// user:left to the rest of the room. Returns true if the user was present.
func (r *Room) Leave(userId types.UserIdType) bool {
	r.mu.Lock()
	ok := r.leaveLocked(userId)
	var evicted []types.UserIdType
	if ok {
		evicted = r.broadcastLocked(types.MsgUserLeft, types.UserLeftMessage{Type: types.MsgUserLeft, UserId: userId}, "")
	}
	r.mu.Unlock()
	r.notifyEvicted(evicted)
	return ok
}

// leaveLocked removes userId from every piece of room state: membership,
// sessions, skip votes, and (if needed) host. It does not broadcast;
// callers decide whether and what to announce. Shared by the explicit
// Leave operation and by broadcastLocked's failed-delivery eviction path,
// so eviction never leaves a half-removed user behind. Caller must hold
// r.mu (write lock).
func (r *Room) leaveLocked(userId types.UserIdType) bool {
	if _, ok := r.users[userId]; !ok {
		return false
	}

	delete(r.users, userId)
	delete(r.sessions, userId)
	r.skipVotes.Delete(userId)

	for i, id := range r.userOrder {
		if id == userId {
			r.userOrder = append(r.userOrder[:i], r.userOrder[i+1:]...)
			break
		}
	}

	if r.hostId == userId {
		if len(r.userOrder) > 0 {
			r.hostId = r.userOrder[0]
		} else {
			r.hostId = ""
		}
	}

	return true
}

// normalizeUserName trims, truncates, and defaults a client-supplied name.
func normalizeUserName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultUserName
	}
	if runes := []rune(name); len(runes) > maxUserNameLength {
		name = string(runes[:maxUserNameLength])
	}
	return name
}

// NormalizeRoomName trims and truncates a client-supplied room name,
// defaulting to "Room "+id when blank.
func NormalizeRoomName(name string, id types.RoomIdType) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Room " + string(id)
	}
	if runes := []rune(name); len(runes) > maxRoomNameLength {
		name = string(runes[:maxRoomNameLength])
	}
	return name
}

// AddTrack appends an already-resolved track to the queue. If nothing was
// playing (currentIndex == -1), it becomes and starts the current track.
func (r *Room) AddTrack(track types.Track) {
	r.mu.Lock()
	r.queue = append(r.queue, track)
	if r.currentIndex == -1 {
		r.currentIndex = len(r.queue) - 1
		r.startTrackLocked()
	}

	queueMsg := r.buildQueueUpdatedLocked()
	syncMsg := r.buildPlaybackSyncLocked()
	evicted := r.broadcastLocked(types.MsgQueueUpdated, queueMsg, "")
	evicted = append(evicted, r.broadcastLocked(types.MsgPlaybackSync, syncMsg, "")...)
	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// RemoveTrack removes the track with the given ID on behalf of userId, and
// fixes up currentIndex: if the removed track was before the current one,
// the index shifts back by one to keep pointing at the same track; if it
// was the current track itself, the track that slides into its slot (or
// the new last track, if the removed one was last) starts over at
// elapsed 0, or playback stops entirely if the queue is now empty; if it
// was after, the index is untouched. Only the room's host or the track's
// original adder may remove it; anyone else's request is a silent no-op.
func (r *Room) RemoveTrack(userId types.UserIdType, trackId types.TrackIdType) {
	r.mu.Lock()

	idx := -1
	for i, t := range r.queue {
		if t.Id == trackId {
			idx = i
			break
		}
	}
	if idx == -1 {
		r.mu.Unlock()
		return
	}
	if track := r.queue[idx]; userId != r.hostId && userId != track.AddedBy {
		r.mu.Unlock()
		return
	}

	r.queue = append(r.queue[:idx], r.queue[idx+1:]...)

	switch {
	case idx < r.currentIndex:
		r.currentIndex--
	case idx == r.currentIndex:
		switch {
		case len(r.queue) == 0:
			r.currentIndex = -1
			r.stopAllLocked()
		case r.currentIndex >= len(r.queue):
			r.currentIndex = len(r.queue) - 1
			r.startTrackLocked()
		default:
			r.startTrackLocked()
		}
	}

	queueMsg := r.buildQueueUpdatedLocked()
	syncMsg := r.buildPlaybackSyncLocked()
	evicted := r.broadcastLocked(types.MsgQueueUpdated, queueMsg, "")
	evicted = append(evicted, r.broadcastLocked(types.MsgPlaybackSync, syncMsg, "")...)

	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// startTrackLocked resets the playback clock to the beginning of the
// current track and starts it playing. Caller must hold r.mu.
func (r *Room) startTrackLocked() {
	r.playbackState = types.PlaybackStatePlaying
	r.elapsed = 0
	r.startedAt = r.clock.NowMillis()
	r.clearSkipVotesLocked()
}

// stopAllLocked pauses playback and resets the clock to zero, used when
// the queue runs out or the current track is removed out from under it.
// Caller must hold r.mu.
func (r *Room) stopAllLocked() {
	r.playbackState = types.PlaybackStatePaused
	r.elapsed = 0
	r.startedAt = 0
	r.clearSkipVotesLocked()
}

func (r *Room) clearSkipVotesLocked() {
	for id := range r.skipVotes {
		r.skipVotes.Delete(id)
	}
}

// Play resumes playback from the current elapsed position. A no-op if
// already playing or no track is current (currentIndex == -1).
func (r *Room) Play() {
	r.mu.Lock()
	if r.playbackState == types.PlaybackStatePlaying || r.currentIndex == -1 {
		r.mu.Unlock()
		return
	}
	r.playbackState = types.PlaybackStatePlaying
	r.startedAt = r.clock.NowMillis() - int64(r.elapsed*1000)

	syncMsg := r.buildPlaybackSyncLocked()
	evicted := r.broadcastLocked(types.MsgPlaybackSync, syncMsg, "")
	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// Pause freezes playback at its current elapsed position. A no-op if
// already paused.
func (r *Room) Pause() {
	r.mu.Lock()
	if r.playbackState == types.PlaybackStatePaused {
		r.mu.Unlock()
		return
	}
	r.elapsed = r.elapsedLocked()
	r.playbackState = types.PlaybackStatePaused
	r.startedAt = 0

	syncMsg := r.buildPlaybackSyncLocked()
	evicted := r.broadcastLocked(types.MsgPlaybackSync, syncMsg, "")
	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// Seek jumps the playback position to seconds, clamped to >= 0, without
// changing play/pause state. A no-op if no track is current
// (currentIndex == -1).
func (r *Room) Seek(seconds float64) {
	r.mu.Lock()
	if r.currentIndex == -1 {
		r.mu.Unlock()
		return
	}
	if seconds < 0 {
		seconds = 0
	}

	if r.playbackState == types.PlaybackStatePlaying {
		r.startedAt = r.clock.NowMillis() - int64(seconds*1000)
	} else {
		r.elapsed = seconds
	}

	syncMsg := r.buildPlaybackSyncLocked()
	evicted := r.broadcastLocked(types.MsgPlaybackSync, syncMsg, "")
	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// nextTrackLocked advances currentIndex to the following queue entry and
// restarts the clock, or stops playback entirely if the queue is
// exhausted. Caller must hold r.mu.
func (r *Room) nextTrackLocked() {
	r.currentIndex++
	if r.currentIndex < len(r.queue) {
		r.startTrackLocked()
	} else {
		r.currentIndex = -1
		r.stopAllLocked()
	}
}

// SkipVote registers userId's vote to skip the current track and always
// broadcasts the updated tally. Once votes reach ceil(|users|/2), the room
// additionally advances to the next track and clears the tally. A no-op
// if userId is not a member or nothing is playing.
func (r *Room) SkipVote(userId types.UserIdType) {
	r.mu.Lock()
	if _, ok := r.users[userId]; !ok || r.currentIndex == -1 {
		r.mu.Unlock()
		return
	}

	r.skipVotes.Insert(userId)
	needed := skipThreshold(len(r.userOrder))
	current := r.skipVotes.Len()

	votesMsg := types.SkipVotesMessage{Type: types.MsgSkipVotes, Current: current, Needed: needed}
	evicted := r.broadcastLocked(types.MsgSkipVotes, votesMsg, "")

	if current >= needed {
		r.nextTrackLocked()
		queueMsg := r.buildQueueUpdatedLocked()
		syncMsg := r.buildPlaybackSyncLocked()
		evicted = append(evicted, r.broadcastLocked(types.MsgQueueUpdated, queueMsg, "")...)
		evicted = append(evicted, r.broadcastLocked(types.MsgPlaybackSync, syncMsg, "")...)
	}

	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// Chat broadcasts a chat message to every participant, including the
// sender. text is trimmed and truncated to 500 characters; if nothing
// remains after trimming, the message is dropped silently.
func (r *Room) Chat(userId types.UserIdType, text string) {
	text = strings.TrimSpace(text)
	if runes := []rune(text); len(runes) > maxChatMessageLength {
		text = string(runes[:maxChatMessageLength])
	}
	if text == "" {
		return
	}

	r.mu.Lock()
	user, ok := r.users[userId]
	if !ok {
		r.mu.Unlock()
		return
	}

	msg := types.ChatMessageOut{
		Type:      types.MsgChatMessageOut,
		UserId:    userId,
		UserName:  user.Name,
		Text:      text,
		Timestamp: r.clock.NowMillis(),
	}
	evicted := r.broadcastLocked(types.MsgChatMessageOut, msg, "")
	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// SetCrossfade updates the room's crossfade duration, clamped to [0, 8].
func (r *Room) SetCrossfade(seconds float64) {
	r.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if seconds > maxCrossfadeDuration {
		seconds = maxCrossfadeDuration
	}
	r.crossfadeDuration = seconds

	msg := types.CrossfadeUpdatedMessage{Type: types.MsgCrossfadeUpdated, Duration: seconds}
	evicted := r.broadcastLocked(types.MsgCrossfadeUpdated, msg, "")
	r.mu.Unlock()
	r.notifyEvicted(evicted)
}

// NextTrackId generates a new opaque track ID. Exposed so the coordinator
// can stamp a resolved track before calling AddTrack.
func NextTrackId() types.TrackIdType {
	return types.TrackIdType(ids.NewTrackId())
}

// IsHost reports whether userId is the room's current host. Playback
// control, skip voting, chat, and crossfade are open to any participant;
// only queue:remove checks host status (see RemoveTrack).
func (r *Room) IsHost(userId types.UserIdType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostId == userId
}

// UserName returns userId's display name, or "" if it is not a member.
func (r *Room) UserName(userId types.UserIdType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[userId].Name
}

// HasUser reports whether userId is currently a member of the room.
func (r *Room) HasUser(userId types.UserIdType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userId]
	return ok
}
