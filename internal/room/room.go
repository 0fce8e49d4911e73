// Package room manages game rooms: membership, seat assignment, the lobby
// ready flow, match lifecycle, and fan-out of room events to sessions. A room
// owns at most one running simulation at a time.
package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/pong-arena/internal/arena"
	"github.com/vovakirdan/pong-arena/internal/config"
	"github.com/vovakirdan/pong-arena/internal/game"
)

// Mode selects how empty seats behave and how leaves are handled mid-match.
type Mode string

const (
	ModeHumanVsHuman Mode = "human_vs_human"
	ModeHumanVsAI    Mode = "human_vs_ai"
	ModeAIvsAI       Mode = "ai_vs_ai"
)

// ParseMode maps a wire string to a Mode, defaulting to human vs human.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeHumanVsAI:
		return ModeHumanVsAI
	case ModeAIvsAI:
		return ModeAIvsAI
	default:
		return ModeHumanVsHuman
	}
}

var (
	ErrNotHost         = errors.New("only the host can do that")
	ErrGameRunning     = errors.New("game already running")
	ErrNoGame          = errors.New("no game in progress")
	ErrPlayersNotReady = errors.New("not all players are ready")
	ErrRoomClosed      = errors.New("room is closed")
	ErrSeatUnavailable = errors.New("seat is unavailable")
)

// MatchRecord is one finished match as persisted to storage.
type MatchRecord struct {
	RoomID        string
	Mode          string
	PlayerCount   int
	WinnerSeat    string
	Scores        map[string]int
	EndReason     string
	DurationTicks uint64
	EndedAt       time.Time
}

// ResultSaver persists finished matches. A nil saver disables history.
type ResultSaver interface {
	SaveMatch(ctx context.Context, rec MatchRecord) error
}

// Options configure a new room.
type Options struct {
	Mode        Mode
	PlayerCount int
	Difficulty  config.Difficulty
	Game        config.GameConfig
	AI          config.AIConfig
}

// Player is one room member holding a seat. AI players have a nil session.
type Player struct {
	ID      string
	Name    string
	Seat    arena.Seat
	Ready   bool
	AI      bool
	Session SessionHandle
}

// Room is a single game room. All membership and lifecycle state is guarded
// by mu; the simulation has its own lock, and the room never calls a blocking
// simulation method while holding mu.
type Room struct {
	ID      string
	opts    Options
	logger  *log.Logger
	saver   ResultSaver
	created time.Time

	mu         sync.Mutex
	players    map[string]*Player
	spectators map[string]SessionHandle
	hostID     string
	sim        *game.Simulation
	closed     bool
}

// New creates an empty room with the given join code.
func New(id string, opts Options, logger *log.Logger, saver ResultSaver) *Room {
	if opts.PlayerCount < 2 || opts.PlayerCount > 4 {
		opts.PlayerCount = 2
	}
	return &Room{
		ID:         id,
		opts:       opts,
		logger:     logger.With("room", id),
		saver:      saver,
		created:    time.Now(),
		players:    make(map[string]*Player),
		spectators: make(map[string]SessionHandle),
	}
}

// Mode returns the room's play mode.
func (r *Room) Mode() Mode { return r.opts.Mode }

// JoinResult describes the outcome of an AddPlayer call.
type JoinResult struct {
	Player    PlayerInfo
	Players   []PlayerInfo
	Spectator bool
	Host      bool
}

// AddPlayer seats a session in the first free seat for the room's player
// count. When every seat is taken the session becomes a spectator, which
// still receives all room events. The first human to join is the host.
func (r *Room) AddPlayer(playerID, name string, session SessionHandle) (JoinResult, error) {
	if name == "" {
		name = "player-" + shortID(playerID)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return JoinResult{}, ErrRoomClosed
	}

	seat := r.freeSeatLocked()
	if seat == arena.SeatNone {
		r.spectators[playerID] = session
		res := JoinResult{
			Player:    PlayerInfo{ID: playerID, Name: name},
			Players:   r.playerListLocked(),
			Spectator: true,
		}
		r.mu.Unlock()
		r.logger.Info("spectator joined", "player", playerID)
		return res, nil
	}

	p := &Player{ID: playerID, Name: name, Seat: seat, Session: session}
	r.players[playerID] = p
	if r.hostID == "" {
		r.hostID = playerID
	}
	res := JoinResult{
		Player:  r.infoLocked(p),
		Players: r.playerListLocked(),
		Host:    r.hostID == playerID,
	}
	handles := r.handlesLocked()
	r.mu.Unlock()

	r.logger.Info("player joined", "player", playerID, "seat", seat)
	r.sendAll(handles, PlayerJoinedEvent{Player: res.Player, Players: res.Players})
	return res, nil
}

// AddAIPlayer seats an AI player. Fails when the seat is occupied or not
// part of the room's configuration.
func (r *Room) AddAIPlayer(seat arena.Seat) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRoomClosed
	}
	valid := false
	for _, s := range arena.Seats(r.opts.PlayerCount) {
		if s == seat {
			valid = true
		}
	}
	if !valid {
		r.mu.Unlock()
		return ErrSeatUnavailable
	}
	for _, p := range r.players {
		if p.Seat == seat {
			r.mu.Unlock()
			return ErrSeatUnavailable
		}
	}

	p := newAIPlayer(seat)
	r.players[p.ID] = p
	evt := PlayerJoinedEvent{Player: r.infoLocked(p), Players: r.playerListLocked()}
	handles := r.handlesLocked()
	r.mu.Unlock()

	r.sendAll(handles, evt)
	return nil
}

// ToggleReady flips a player's ready flag and announces the new roster.
// AI players are always ready and cannot be toggled.
func (r *Room) ToggleReady(playerID string) {
	r.mu.Lock()
	p, ok := r.players[playerID]
	if !ok || p.AI {
		r.mu.Unlock()
		return
	}
	p.Ready = !p.Ready
	evt := ReadyUpdateEvent{Players: r.playerListLocked(), AllReady: r.allReadyLocked()}
	handles := r.handlesLocked()
	r.mu.Unlock()

	r.sendAll(handles, evt)
}

// MarkReady sets a player ready without toggling. Quick play uses it because
// quick-play players are ready implicitly.
func (r *Room) MarkReady(playerID string) {
	r.mu.Lock()
	p, ok := r.players[playerID]
	if !ok || p.AI || p.Ready {
		r.mu.Unlock()
		return
	}
	p.Ready = true
	evt := ReadyUpdateEvent{Players: r.playerListLocked(), AllReady: r.allReadyLocked()}
	handles := r.handlesLocked()
	r.mu.Unlock()

	r.sendAll(handles, evt)
}

// AutoStart begins the match on behalf of the host, used by quick play
// shortly after the room is created.
func (r *Room) AutoStart() error {
	r.mu.Lock()
	host := r.hostID
	closed := r.closed
	r.mu.Unlock()
	if closed || host == "" {
		return ErrRoomClosed
	}
	return r.StartGame(host)
}

// StartGame begins a match. Only the host may start. In human vs human mode
// every seated human must be ready; human vs AI starts immediately. Seats
// left unfilled are given to AI controllers at the room's difficulty.
func (r *Room) StartGame(requesterID string) error {
	r.mu.Lock()
	if r.hostID != requesterID {
		r.mu.Unlock()
		return ErrNotHost
	}
	if r.sim != nil && r.sim.Status() != game.StatusEnded {
		r.mu.Unlock()
		return ErrGameRunning
	}
	if r.opts.Mode == ModeHumanVsHuman && !r.allReadyLocked() {
		r.mu.Unlock()
		return ErrPlayersNotReady
	}
	r.fillAISeatsLocked()

	occupants := make(map[arena.Seat]game.Occupant, len(r.players))
	for _, p := range r.players {
		occupants[p.Seat] = game.Occupant{PlayerID: p.ID, AI: p.AI}
	}
	profile := r.opts.AI.Profile(r.opts.Difficulty)

	var sim *game.Simulation
	sim = game.NewSimulation(r.opts.Game, profile, occupants, time.Now().UnixNano(), game.Hooks{
		Broadcast: r.broadcastState,
		GameOver: func(winner arena.Seat) {
			r.finishMatch(sim, winner)
		},
	})
	r.sim = sim
	players := r.playerListLocked()
	handles := r.handlesLocked()
	r.mu.Unlock()

	sim.Start()
	r.logger.Info("game started", "mode", r.opts.Mode, "players", len(players))
	r.sendAll(handles, GameStartedEvent{
		Players:      players,
		WinScore:     r.opts.Game.WinScore,
		TickRate:     r.opts.Game.TickRate,
		InitialState: sim.SnapshotNow(),
	})
	return nil
}

// HandleInput forwards a player's direction to the running simulation.
// Input from spectators or outside a match is dropped.
func (r *Room) HandleInput(playerID string, dir arena.Direction) {
	r.mu.Lock()
	sim := r.sim
	_, seated := r.players[playerID]
	r.mu.Unlock()
	if sim == nil || !seated {
		return
	}
	sim.SetInput(playerID, dir)
}

// PauseGame freezes the match. Host only.
func (r *Room) PauseGame(requesterID string) error {
	r.mu.Lock()
	if r.hostID != requesterID {
		r.mu.Unlock()
		return ErrNotHost
	}
	sim := r.sim
	handles := r.handlesLocked()
	r.mu.Unlock()

	if sim == nil {
		return ErrNoGame
	}
	sim.Pause()
	r.sendAll(handles, GamePausedEvent{Reason: "host_paused"})
	return nil
}

// ResumeGame continues a paused match. Host only.
func (r *Room) ResumeGame(requesterID string) error {
	r.mu.Lock()
	if r.hostID != requesterID {
		r.mu.Unlock()
		return ErrNotHost
	}
	sim := r.sim
	handles := r.handlesLocked()
	r.mu.Unlock()

	if sim == nil {
		return ErrNoGame
	}
	sim.Resume()
	r.sendAll(handles, GameResumedEvent{})
	return nil
}

// EndGame aborts the current match without a winner. Host only.
func (r *Room) EndGame(requesterID string) error {
	r.mu.Lock()
	if r.hostID != requesterID {
		r.mu.Unlock()
		return ErrNotHost
	}
	sim := r.sim
	r.sim = nil
	handles := r.handlesLocked()
	r.mu.Unlock()

	if sim == nil {
		return ErrNoGame
	}
	sim.Stop()
	r.sendAll(handles, GameEndedEvent{
		Winner: nil,
		Scores: sim.Scores(),
		Reason: EndReasonEndedByHost,
	})
	return nil
}

// RestartGame stops any current match and starts a fresh one. Host only.
// Ready flags are not reset; the lobby state that admitted the previous
// match still holds.
func (r *Room) RestartGame(requesterID string) error {
	r.mu.Lock()
	if r.hostID != requesterID {
		r.mu.Unlock()
		return ErrNotHost
	}
	sim := r.sim
	r.sim = nil
	r.mu.Unlock()

	if sim != nil {
		sim.Stop()
	}
	return r.StartGame(requesterID)
}

// RemoveResult describes the room's state after a departure.
type RemoveResult struct {
	// Closed reports that the room ended because the host left.
	Closed bool
	// Empty reports that no human sessions remain.
	Empty bool
}

// RemovePlayer handles a player or spectator leaving, including disconnects.
// A host departure always ends the room for everyone. A non-host departure
// during a human vs human match pauses the game; in human vs AI mode the
// vacated seat is back-filled by an AI controller and play continues.
func (r *Room) RemovePlayer(playerID string) RemoveResult {
	r.mu.Lock()
	if _, ok := r.spectators[playerID]; ok {
		delete(r.spectators, playerID)
		empty := r.emptyLocked()
		r.mu.Unlock()
		return RemoveResult{Empty: empty}
	}
	p, ok := r.players[playerID]
	if !ok {
		empty := r.emptyLocked()
		r.mu.Unlock()
		return RemoveResult{Empty: empty}
	}

	if playerID == r.hostID {
		r.closed = true
		sim := r.sim
		r.sim = nil
		delete(r.players, playerID)
		handles := r.handlesLocked()
		scores := map[string]int{}
		r.mu.Unlock()

		if sim != nil {
			sim.Stop()
			scores = sim.Scores()
		}
		r.logger.Info("host left, closing room", "player", playerID)
		r.sendAll(handles, GameEndedEvent{
			Winner: nil,
			Scores: scores,
			Reason: EndReasonHostDisconnected,
		})
		return RemoveResult{Closed: true, Empty: true}
	}

	delete(r.players, playerID)
	seat := p.Seat
	name := p.Name
	sim := r.sim
	left := PlayerLeftEvent{PlayerID: playerID, Players: r.playerListLocked()}
	handles := r.handlesLocked()
	empty := r.emptyLocked()
	r.mu.Unlock()

	r.logger.Info("player left", "player", playerID, "seat", seat)
	r.sendAll(handles, left)

	if sim != nil && sim.Status() == game.StatusPlaying {
		if r.opts.Mode == ModeHumanVsHuman {
			sim.Pause()
			r.sendAll(handles, GamePausedEvent{Reason: "player_disconnected"})
			r.sendAll(handles, NoticeEvent{Message: name + " disconnected, game paused"})
		} else {
			r.backfillSeat(seat)
			r.sendAll(handles, NoticeEvent{Message: name + " was replaced by an AI player"})
		}
	}
	return RemoveResult{Empty: empty}
}

// backfillSeat seats an AI player where a human just left and hands the
// paddle to a controller so it keeps playing.
func (r *Room) backfillSeat(seat arena.Seat) {
	p := newAIPlayer(seat)

	r.mu.Lock()
	sim := r.sim
	r.players[p.ID] = p
	r.mu.Unlock()

	if sim != nil {
		sim.AttachAI(seat, p.ID)
	}
}

func newAIPlayer(seat arena.Seat) *Player {
	return &Player{
		ID:    "ai_" + seat.String(),
		Name:  "AI (" + seat.String() + ")",
		Seat:  seat,
		Ready: true,
		AI:    true,
	}
}

// finishMatch records and announces a won match. The sim argument guards
// against a stale callback from a simulation the room has already replaced.
func (r *Room) finishMatch(sim *game.Simulation, winner arena.Seat) {
	r.mu.Lock()
	if r.sim != sim {
		r.mu.Unlock()
		return
	}
	r.sim = nil
	handles := r.handlesLocked()
	playerCount := len(r.players)
	r.mu.Unlock()

	scores := sim.Scores()
	snap := sim.SnapshotNow()
	winnerName := winner.String()

	r.logger.Info("match finished", "winner", winnerName, "ticks", snap.Tick)
	r.sendAll(handles, GameEndedEvent{
		Winner: &winnerName,
		Scores: scores,
		Reason: EndReasonScoreLimit,
	})

	if r.saver == nil {
		return
	}
	rec := MatchRecord{
		RoomID:        r.ID,
		Mode:          string(r.opts.Mode),
		PlayerCount:   playerCount,
		WinnerSeat:    winnerName,
		Scores:        scores,
		EndReason:     EndReasonScoreLimit,
		DurationTicks: snap.Tick,
		EndedAt:       time.Now(),
	}
	if err := r.saver.SaveMatch(context.Background(), rec); err != nil {
		r.logger.Warn("failed to save match result", "err", err)
	}
}

// broadcastState fans one simulation snapshot out to every session.
func (r *Room) broadcastState(snap game.Snapshot) {
	r.mu.Lock()
	handles := r.handlesLocked()
	r.mu.Unlock()

	evt := StateEvent{State: snap}
	for _, h := range handles {
		h.Send(evt)
	}
}

// Stop tears the room down: the simulation halts and no further joins are
// accepted. Used when the registry evicts an empty room.
func (r *Room) Stop() {
	r.mu.Lock()
	r.closed = true
	sim := r.sim
	r.sim = nil
	r.mu.Unlock()

	if sim != nil {
		sim.Stop()
	}
}

// IsEmpty reports whether no human player or spectator remains. AI-only
// rooms count as empty and are eligible for eviction.
func (r *Room) IsEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.emptyLocked()
}

// IsHost reports whether the given player is the room's host.
func (r *Room) IsHost(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostID == playerID
}

// Info is the public summary of a room for listings and the HTTP API.
type Info struct {
	ID          string       `json:"id"`
	Mode        string       `json:"mode"`
	PlayerCount int          `json:"playerCount"`
	Difficulty  string       `json:"difficulty"`
	Status      string       `json:"status"`
	Players     []PlayerInfo `json:"players"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// Info returns the room's current public summary.
func (r *Room) Info() Info {
	r.mu.Lock()
	sim := r.sim
	info := Info{
		ID:          r.ID,
		Mode:        string(r.opts.Mode),
		PlayerCount: r.opts.PlayerCount,
		Difficulty:  string(r.opts.Difficulty),
		Status:      "waiting",
		Players:     r.playerListLocked(),
		CreatedAt:   r.created,
	}
	r.mu.Unlock()

	if sim != nil {
		info.Status = sim.Status().String()
	}
	return info
}

func (r *Room) freeSeatLocked() arena.Seat {
	taken := make(map[arena.Seat]bool, len(r.players))
	for _, p := range r.players {
		taken[p.Seat] = true
	}
	for _, seat := range arena.Seats(r.opts.PlayerCount) {
		if !taken[seat] {
			return seat
		}
	}
	return arena.SeatNone
}

func (r *Room) fillAISeatsLocked() {
	taken := make(map[arena.Seat]bool, len(r.players))
	for _, p := range r.players {
		taken[p.Seat] = true
	}
	for _, seat := range arena.Seats(r.opts.PlayerCount) {
		if taken[seat] {
			continue
		}
		p := newAIPlayer(seat)
		r.players[p.ID] = p
	}
}

func (r *Room) allReadyLocked() bool {
	for _, p := range r.players {
		if !p.AI && !p.Ready {
			return false
		}
	}
	return true
}

func (r *Room) infoLocked(p *Player) PlayerInfo {
	return PlayerInfo{
		ID:     p.ID,
		Name:   p.Name,
		Seat:   p.Seat.String(),
		Ready:  p.Ready,
		IsAI:   p.AI,
		IsHost: p.ID == r.hostID,
	}
}

// playerListLocked returns players in fixed seat order so rosters render
// identically everywhere.
func (r *Room) playerListLocked() []PlayerInfo {
	out := make([]PlayerInfo, 0, len(r.players))
	for _, seat := range arena.Seats(r.opts.PlayerCount) {
		for _, p := range r.players {
			if p.Seat == seat {
				out = append(out, r.infoLocked(p))
				break
			}
		}
	}
	return out
}

func (r *Room) handlesLocked() []SessionHandle {
	out := make([]SessionHandle, 0, len(r.players)+len(r.spectators))
	for _, p := range r.players {
		if p.Session != nil {
			out = append(out, p.Session)
		}
	}
	for _, s := range r.spectators {
		out = append(out, s)
	}
	return out
}

func (r *Room) emptyLocked() bool {
	for _, p := range r.players {
		if !p.AI {
			return false
		}
	}
	return len(r.spectators) == 0
}

func (r *Room) sendAll(handles []SessionHandle, evt Event) {
	for _, h := range handles {
		h.Send(evt)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
