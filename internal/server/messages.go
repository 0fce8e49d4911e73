package server

import (
	"encoding/json"
	"fmt"

	"github.com/vovakirdan/pong-arena/internal/room"
)

// MessageType for WebSocket communication from client to server.
type MessageType string

const (
	MsgTypeCreateRoom  MessageType = "createRoom"  // Client creates a room
	MsgTypeJoinRoom    MessageType = "joinRoom"    // Client joins a room by code
	MsgTypeQuickPlay   MessageType = "quickPlay"   // Client creates a room that auto-starts
	MsgTypeGetRooms    MessageType = "getRooms"    // Client requests the room list
	MsgTypeToggleReady MessageType = "toggleReady" // Client toggles its ready flag
	MsgTypeStartGame   MessageType = "startGame"   // Host starts the match
	MsgTypePauseGame   MessageType = "pauseGame"   // Host pauses the match
	MsgTypeResumeGame  MessageType = "resumeGame"  // Host resumes the match
	MsgTypeRestartGame MessageType = "restartGame" // Host restarts the match
	MsgTypeEndGame     MessageType = "endGame"     // Host aborts the match
	MsgTypeInput       MessageType = "input"       // Client sends paddle direction
	MsgTypeLeaveRoom   MessageType = "leaveRoom"   // Client leaves its room
)

// ClientMessage is one WebSocket message from a client.
type ClientMessage struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Parse unmarshals the message payload into its concrete payload type.
func (m *ClientMessage) Parse() (any, error) {
	var target any
	switch m.Type {
	case MsgTypeCreateRoom:
		target = &CreateRoomPayload{}
	case MsgTypeJoinRoom:
		target = &JoinRoomPayload{}
	case MsgTypeQuickPlay:
		target = &QuickPlayPayload{}
	case MsgTypeGetRooms:
		target = &GetRoomsPayload{}
	case MsgTypeToggleReady:
		target = &ToggleReadyPayload{}
	case MsgTypeStartGame:
		target = &StartGamePayload{}
	case MsgTypePauseGame:
		target = &PauseGamePayload{}
	case MsgTypeResumeGame:
		target = &ResumeGamePayload{}
	case MsgTypeRestartGame:
		target = &RestartGamePayload{}
	case MsgTypeEndGame:
		target = &EndGamePayload{}
	case MsgTypeInput:
		target = &InputPayload{}
	case MsgTypeLeaveRoom:
		target = &LeaveRoomPayload{}
	default:
		return nil, fmt.Errorf("unknown message type: %s", m.Type)
	}

	if len(m.Payload) == 0 {
		return target, nil
	}

	err := json.Unmarshal(m.Payload, target)
	return target, err
}

// CreateRoomPayload is the payload for MsgTypeCreateRoom.
type CreateRoomPayload struct {
	Name        string `json:"name"`
	Mode        string `json:"mode"`
	PlayerCount int    `json:"playerCount"`
	Difficulty  string `json:"difficulty"`
}

// JoinRoomPayload is the payload for MsgTypeJoinRoom.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// QuickPlayPayload is the payload for MsgTypeQuickPlay. Unset fields fall
// back to a two-player match against a medium AI.
type QuickPlayPayload struct {
	Name        string `json:"name"`
	Mode        string `json:"mode"`
	PlayerCount int    `json:"playerCount"`
	Difficulty  string `json:"difficulty"`
}

// InputPayload is the payload for MsgTypeInput.
type InputPayload struct {
	Direction string `json:"direction"`
}

// GetRoomsPayload: empty.
type GetRoomsPayload struct{}

// ToggleReadyPayload: empty.
type ToggleReadyPayload struct{}

// StartGamePayload: empty.
type StartGamePayload struct{}

// PauseGamePayload: empty.
type PauseGamePayload struct{}

// ResumeGamePayload: empty.
type ResumeGamePayload struct{}

// RestartGamePayload: empty.
type RestartGamePayload struct{}

// EndGamePayload: empty.
type EndGamePayload struct{}

// LeaveRoomPayload: empty.
type LeaveRoomPayload struct{}

// ServerMessage is one WebSocket message to a client: a type tag plus the
// event or response payload.
type ServerMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EncodeEvent wraps a room event in the wire envelope.
func EncodeEvent(evt room.Event) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", evt.EventType(), err)
	}
	return json.Marshal(ServerMessage{Type: evt.EventType(), Payload: payload})
}

// Server-originated responses implement room.Event so every outbound message
// flows through the session channel and a single connection writer.

// RoomConfig echoes a room's effective configuration back to the client.
type RoomConfig struct {
	Mode        string `json:"mode"`
	PlayerCount int    `json:"playerCount"`
	Difficulty  string `json:"aiDifficulty"`
}

// RoomResult is the shared body of the create and join confirmations: who the
// caller became, which room they are in, and the room's current roster.
type RoomResult struct {
	Success   bool              `json:"success"`
	PlayerID  string            `json:"playerId"`
	Seat      string            `json:"seat"`
	Spectator bool              `json:"isSpectator,omitempty"`
	Host      bool              `json:"isHost"`
	RoomID    string            `json:"roomId"`
	Config    RoomConfig        `json:"config"`
	Players   []room.PlayerInfo `json:"players"`
	Seats     []string          `json:"seats"`
}

// RoomCreatedManualMsg confirms an explicit createRoom to the creator.
type RoomCreatedManualMsg struct {
	RoomResult
}

func (RoomCreatedManualMsg) EventType() string { return "roomCreatedManual" }

// RoomCreatedMsg confirms a quick-play room to the creator.
type RoomCreatedMsg struct {
	RoomResult
}

func (RoomCreatedMsg) EventType() string { return "roomCreated" }

// RoomJoinedMsg confirms a join to the joining client.
type RoomJoinedMsg struct {
	RoomResult
}

func (RoomJoinedMsg) EventType() string { return "roomJoined" }

// RoomListMsg carries summaries of all live rooms.
type RoomListMsg struct {
	Rooms []room.Info `json:"rooms"`
}

func (RoomListMsg) EventType() string { return "roomList" }

// ErrorMsg reports a rejected request to one client.
type ErrorMsg struct {
	Message string `json:"message"`
}

func (ErrorMsg) EventType() string { return "error" }
