package room

import "github.com/vovakirdan/pong-arena/internal/game"

// Event represents an event fanned out from a room to its sessions.
// EventType returns the wire name the transport layer tags the payload with.
type Event interface {
	EventType() string
}

// PlayerInfo is the public view of one room member.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Seat   string `json:"seat"`
	Ready  bool   `json:"ready"`
	IsAI   bool   `json:"isAI"`
	IsHost bool   `json:"isHost"`
}

// PlayerJoinedEvent is sent to everyone when a player takes a seat.
type PlayerJoinedEvent struct {
	Player  PlayerInfo   `json:"player"`
	Players []PlayerInfo `json:"players"`
}

func (PlayerJoinedEvent) EventType() string { return "playerJoined" }

// PlayerLeftEvent is sent when a seated player leaves the room.
type PlayerLeftEvent struct {
	PlayerID string       `json:"playerId"`
	Players  []PlayerInfo `json:"players"`
}

func (PlayerLeftEvent) EventType() string { return "playerLeft" }

// ReadyUpdateEvent carries all players' ready flags after a toggle.
type ReadyUpdateEvent struct {
	Players  []PlayerInfo `json:"players"`
	AllReady bool         `json:"allReady"`
}

func (ReadyUpdateEvent) EventType() string { return "readyUpdate" }

// GameStartedEvent is sent once when the match begins, carrying the
// effective rules and the state of the freshly served ball.
type GameStartedEvent struct {
	Players      []PlayerInfo  `json:"players"`
	WinScore     int           `json:"winScore"`
	TickRate     int           `json:"tickRate"`
	InitialState game.Snapshot `json:"initialState"`
}

func (GameStartedEvent) EventType() string { return "gameStarted" }

// StateEvent carries one per-tick simulation snapshot.
type StateEvent struct {
	State game.Snapshot `json:"state"`
}

func (StateEvent) EventType() string { return "state" }

// GamePausedEvent is sent when the match is frozen.
type GamePausedEvent struct {
	Reason string `json:"reason"`
}

func (GamePausedEvent) EventType() string { return "gamePaused" }

// GameResumedEvent is sent when a paused match continues.
type GameResumedEvent struct{}

func (GameResumedEvent) EventType() string { return "gameResumed" }

// GameEndedEvent is the terminal event of a match. Winner is nil when the
// match ended without one, such as on host departure.
type GameEndedEvent struct {
	Winner *string        `json:"winner"`
	Scores map[string]int `json:"scores"`
	Reason string         `json:"reason"`
}

func (GameEndedEvent) EventType() string { return "gameEnded" }

// NoticeEvent is a human-readable announcement, such as a player being
// replaced by an AI controller.
type NoticeEvent struct {
	Message string `json:"message"`
}

func (NoticeEvent) EventType() string { return "notice" }

// Match end reasons as they appear on the wire.
const (
	EndReasonScoreLimit       = "score_limit"
	EndReasonHostDisconnected = "host_disconnected"
	EndReasonEndedByHost      = "ended_by_host"
)
