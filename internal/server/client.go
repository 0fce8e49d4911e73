package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/pong-arena/internal/arena"
	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/room"
)

// quickPlayStartDelay gives the quick-play client a moment to process its
// room confirmation before the first state snapshots arrive.
const quickPlayStartDelay = 500 * time.Millisecond

const writeTimeout = 10 * time.Second

// client is one WebSocket connection. The read loop parses and dispatches
// requests; the write loop is the sole connection writer, draining the
// session channel that rooms publish events to.
type client struct {
	id      string
	server  *Server
	conn    *websocket.Conn
	session *room.ChannelSession
	logger  *log.Logger

	mu   sync.Mutex
	room *room.Room
}

func newClient(id string, srv *Server, conn *websocket.Conn) *client {
	return &client{
		id:      id,
		server:  srv,
		conn:    conn,
		session: room.NewChannelSession(id, 256),
		logger:  srv.logger.With("client", id),
	}
}

// run pumps the connection until either loop fails, then leaves the room so
// a disconnect is indistinguishable from an orderly leave.
func (c *client) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return c.readLoop(ctx)
	})
	eg.Go(func() error {
		return c.writeLoop(ctx)
	})
	err := eg.Wait()

	c.session.Close()
	c.leaveRoom()
	return err
}

func (c *client) readLoop(ctx context.Context) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return err
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("malformed message, closing", "err", err)
			c.conn.Close(websocket.StatusUnsupportedData, "malformed message")
			return err
		}
		c.dispatch(msg)
	}
}

func (c *client) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.session.Done():
			return nil
		case evt := <-c.session.Events():
			data, err := EncodeEvent(evt)
			if err != nil {
				c.logger.Error("failed to encode event", "type", evt.EventType(), "err", err)
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.conn.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (c *client) dispatch(msg ClientMessage) {
	payload, err := msg.Parse()
	if err != nil {
		c.sendError(err.Error())
		return
	}

	switch p := payload.(type) {
	case *CreateRoomPayload:
		c.handleCreateRoom(p)
	case *JoinRoomPayload:
		c.handleJoinRoom(p)
	case *QuickPlayPayload:
		c.handleQuickPlay(p)
	case *GetRoomsPayload:
		c.session.Send(RoomListMsg{Rooms: c.server.registry.List()})
	case *ToggleReadyPayload:
		if rm := c.currentRoom(); rm != nil {
			rm.ToggleReady(c.id)
		}
	case *StartGamePayload:
		c.roomOp(func(rm *room.Room) error { return rm.StartGame(c.id) })
	case *PauseGamePayload:
		c.roomOp(func(rm *room.Room) error { return rm.PauseGame(c.id) })
	case *ResumeGamePayload:
		c.roomOp(func(rm *room.Room) error { return rm.ResumeGame(c.id) })
	case *RestartGamePayload:
		c.roomOp(func(rm *room.Room) error { return rm.RestartGame(c.id) })
	case *EndGamePayload:
		c.roomOp(func(rm *room.Room) error { return rm.EndGame(c.id) })
	case *InputPayload:
		if rm := c.currentRoom(); rm != nil {
			rm.HandleInput(c.id, arena.ParseDirection(p.Direction))
		}
	case *LeaveRoomPayload:
		c.leaveRoom()
	}
}

func (c *client) handleCreateRoom(p *CreateRoomPayload) {
	if c.currentRoom() != nil {
		c.sendError("already in a room")
		return
	}

	cfg := c.server.cfg
	rm, err := c.server.registry.Create(room.Options{
		Mode:        room.ParseMode(p.Mode),
		PlayerCount: p.PlayerCount,
		Difficulty:  config.ParseDifficulty(p.Difficulty),
		Game:        cfg.Game,
		AI:          cfg.AI,
	})
	if err != nil {
		c.sendError(err.Error())
		return
	}

	res, err := rm.AddPlayer(c.id, p.Name, c.session)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.setRoom(rm)
	c.session.Send(RoomCreatedManualMsg{RoomResult: roomResult(rm, res)})
}

func (c *client) handleJoinRoom(p *JoinRoomPayload) {
	if c.currentRoom() != nil {
		c.sendError("already in a room")
		return
	}

	rm, ok := c.server.registry.Lookup(p.RoomID)
	if !ok {
		c.sendError("room not found: " + p.RoomID)
		return
	}
	res, err := rm.AddPlayer(c.id, p.Name, c.session)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.setRoom(rm)
	c.session.Send(RoomJoinedMsg{RoomResult: roomResult(rm, res)})
}

// handleQuickPlay creates a room from the caller's config and starts the
// match shortly after, with no ready step; empty seats get AI controllers.
// An absent config means a two-player game against a medium AI.
func (c *client) handleQuickPlay(p *QuickPlayPayload) {
	if c.currentRoom() != nil {
		c.sendError("already in a room")
		return
	}

	mode := room.ModeHumanVsAI
	if p.Mode != "" {
		mode = room.ParseMode(p.Mode)
	}
	cfg := c.server.cfg
	rm, err := c.server.registry.Create(room.Options{
		Mode:        mode,
		PlayerCount: p.PlayerCount,
		Difficulty:  config.ParseDifficulty(p.Difficulty),
		Game:        cfg.Game,
		AI:          cfg.AI,
	})
	if err != nil {
		c.sendError(err.Error())
		return
	}

	res, err := rm.AddPlayer(c.id, p.Name, c.session)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.setRoom(rm)
	rm.MarkReady(c.id)
	c.session.Send(RoomCreatedMsg{RoomResult: roomResult(rm, res)})

	time.AfterFunc(quickPlayStartDelay, func() {
		err := rm.AutoStart()
		if err != nil && !errors.Is(err, room.ErrGameRunning) && !errors.Is(err, room.ErrRoomClosed) {
			c.logger.Warn("quick play auto-start failed", "room", rm.ID, "err", err)
		}
	})
}

// roomResult assembles the confirmation body shared by the create and join
// replies from the room's current view.
func roomResult(rm *room.Room, res room.JoinResult) RoomResult {
	info := rm.Info()
	seats := arena.Seats(info.PlayerCount)
	names := make([]string, len(seats))
	for i, s := range seats {
		names[i] = s.String()
	}
	return RoomResult{
		Success:   true,
		PlayerID:  res.Player.ID,
		Seat:      res.Player.Seat,
		Spectator: res.Spectator,
		Host:      res.Host,
		RoomID:    rm.ID,
		Config: RoomConfig{
			Mode:        info.Mode,
			PlayerCount: info.PlayerCount,
			Difficulty:  info.Difficulty,
		},
		Players: res.Players,
		Seats:   names,
	}
}

func (c *client) roomOp(op func(*room.Room) error) {
	rm := c.currentRoom()
	if rm == nil {
		c.sendError("not in a room")
		return
	}
	err := op(rm)
	if err == nil {
		return
	}
	// A non-host poking host-only controls is a benign no-op, not a fault
	if errors.Is(err, room.ErrNotHost) {
		return
	}
	c.sendError(err.Error())
}

func (c *client) currentRoom() *room.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.room
}

func (c *client) setRoom(rm *room.Room) {
	c.mu.Lock()
	c.room = rm
	c.mu.Unlock()
}

// leaveRoom detaches the client from its room and evicts the room when no
// human sessions remain. Idempotent; also runs on disconnect.
func (c *client) leaveRoom() {
	c.mu.Lock()
	rm := c.room
	c.room = nil
	c.mu.Unlock()
	if rm == nil {
		return
	}

	res := rm.RemovePlayer(c.id)
	if res.Closed || res.Empty {
		c.server.registry.Evict(rm.ID)
	}
}

func (c *client) sendError(message string) {
	c.session.Send(ErrorMsg{Message: message})
}
