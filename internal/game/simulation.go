// Package game implements the server-authoritative fixed-tick simulation:
// ball physics, paddle collision and scoring, buffered player input, and the
// AI controllers that fill unoccupied seats. A Simulation owns the physics
// state of exactly one match; all mutation happens inside the tick step.
package game

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/vovakirdan/pong-arena/internal/arena"
	"github.com/vovakirdan/pong-arena/internal/config"
)

// Status is the lifecycle state of a simulation.
type Status int

const (
	StatusWaiting Status = iota
	StatusPlaying
	StatusPaused
	StatusEnded
)

// String returns the wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	case StatusEnded:
		return "ended"
	default:
		return "waiting"
	}
}

// Ball is the ball's position and per-tick velocity in arena units.
type Ball struct {
	X, Y   float64
	VX, VY float64
}

// Paddle is a paddle's top-left position and fixed dimensions.
type Paddle struct {
	X, Y float64
	W, H float64
}

// Occupant describes who controls a seat for the duration of a match.
type Occupant struct {
	PlayerID string
	AI       bool
}

// Hooks are the simulation's outbound edges. Broadcast receives one snapshot
// per tick; GameOver fires once, after the tick loop has exited, when a seat
// reaches the win score. Both may be nil.
type Hooks struct {
	Broadcast func(Snapshot)
	GameOver  func(winner arena.Seat)
}

type ctrlCmd int

const (
	cmdPause ctrlCmd = iota
	cmdResume
)

// Simulation runs one match at a fixed tick rate. Inbound input handlers only
// write the latest direction per player into a single-slot mailbox; the tick
// step is the sole mutator of physics state.
type Simulation struct {
	cfg     config.GameConfig
	profile config.AIProfile
	seats   []arena.Seat

	mu        sync.Mutex
	status    Status
	started   bool
	ball      Ball
	paddles   map[arena.Seat]*Paddle
	scores    map[arena.Seat]int
	lastTouch arena.Seat
	tick      uint64
	occupants map[arena.Seat]Occupant
	inputs    map[string]arena.Direction
	bots      map[arena.Seat]*AIController
	rng       *rand.Rand

	hooks    Hooks
	interval time.Duration

	ctrl     chan ctrlCmd
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	exitOnce sync.Once
}

// NewSimulation builds a simulation for the given seat roster. occupants must
// contain exactly the active seats for the match's player count; AI occupants
// get a controller using the supplied difficulty profile. The seed makes
// serves and AI noise reproducible.
func NewSimulation(cfg config.GameConfig, profile config.AIProfile, occupants map[arena.Seat]Occupant, seed int64, hooks Hooks) *Simulation {
	s := &Simulation{
		cfg:       cfg,
		profile:   profile,
		seats:     arena.Seats(len(occupants)),
		status:    StatusWaiting,
		paddles:   make(map[arena.Seat]*Paddle, len(occupants)),
		scores:    make(map[arena.Seat]int, len(occupants)),
		occupants: make(map[arena.Seat]Occupant, len(occupants)),
		inputs:    make(map[string]arena.Direction),
		bots:      make(map[arena.Seat]*AIController),
		rng:       rand.New(rand.NewSource(seed)),
		hooks:     hooks,
		interval:  time.Second / time.Duration(cfg.TickRate),
		ctrl:      make(chan ctrlCmd, 4),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	s.ball = Ball{X: arena.Center, Y: arena.Center}
	for _, seat := range s.seats {
		w, h := seat.PaddleSize()
		x, y := seat.StartPosition()
		s.paddles[seat] = &Paddle{X: x, Y: y, W: w, H: h}
		s.scores[seat] = 0
		occ := occupants[seat]
		s.occupants[seat] = occ
		if occ.AI {
			s.bots[seat] = NewAIController(seat, profile, s.rng)
		}
	}
	return s
}

// Start serves the ball and launches the tick loop. It is a no-op on a
// simulation that is already running or has ended.
func (s *Simulation) Start() {
	s.mu.Lock()
	if s.started || s.status == StatusEnded {
		s.mu.Unlock()
		return
	}
	s.beginLocked()
	s.started = true
	s.mu.Unlock()
	go s.run()
}

func (s *Simulation) beginLocked() {
	s.status = StatusPlaying
	s.resetBallLocked()
}

func (s *Simulation) run() {
	winner, won := s.loop()
	s.exitOnce.Do(func() { close(s.stopped) })
	if won && s.hooks.GameOver != nil {
		s.hooks.GameOver(winner)
	}
}

// loop drives ticks until the match is won or stopped. The ticker is released
// on every exit path; a leaked timer would keep mutating a dead room.
func (s *Simulation) loop() (arena.Seat, bool) {
	ticker := time.NewTicker(s.interval)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-ticker.C:
			if winner, won := s.Step(); won {
				return winner, true
			}
		case cmd := <-s.ctrl:
			switch cmd {
			case cmdPause:
				ticker.Stop()
			case cmdResume:
				ticker.Stop()
				ticker = time.NewTicker(s.interval)
			}
		case <-s.done:
			return arena.SeatNone, false
		}
	}
}

// Pause freezes the tick timer without touching physics or buffered input.
func (s *Simulation) Pause() {
	s.mu.Lock()
	if s.status != StatusPlaying {
		s.mu.Unlock()
		return
	}
	s.status = StatusPaused
	s.mu.Unlock()
	s.post(cmdPause)
}

// Resume restarts the tick timer from the frozen state.
func (s *Simulation) Resume() {
	s.mu.Lock()
	if s.status != StatusPaused {
		s.mu.Unlock()
		return
	}
	s.status = StatusPlaying
	s.mu.Unlock()
	s.post(cmdResume)
}

func (s *Simulation) post(cmd ctrlCmd) {
	select {
	case s.ctrl <- cmd:
	case <-s.stopped:
	}
}

// Stop permanently ends the simulation and blocks until the tick loop has
// exited. A stopped simulation is never resumed; the room constructs a new
// one to restart. Safe to call more than once.
func (s *Simulation) Stop() {
	s.mu.Lock()
	s.status = StatusEnded
	wasStarted := s.started
	s.mu.Unlock()

	s.stopOnce.Do(func() { close(s.done) })
	if !wasStarted {
		s.exitOnce.Do(func() { close(s.stopped) })
	}
	<-s.stopped
}

// SetInput records a player's current movement direction. New input
// overwrites old; the next tick reads whatever value is current.
func (s *Simulation) SetInput(playerID string, dir arena.Direction) {
	s.mu.Lock()
	s.inputs[playerID] = dir
	s.mu.Unlock()
}

// AttachAI hands a seat over to an AI controller mid-match, used when a human
// player's seat is back-filled after a disconnect.
func (s *Simulation) AttachAI(seat arena.Seat, playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	occ, ok := s.occupants[seat]
	if !ok || occ.AI {
		return
	}
	delete(s.inputs, occ.PlayerID)
	s.occupants[seat] = Occupant{PlayerID: playerID, AI: true}
	s.bots[seat] = NewAIController(seat, s.profile, s.rng)
}

// Status returns the current lifecycle state.
func (s *Simulation) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Scores returns a copy of the current scores keyed by seat name.
func (s *Simulation) Scores() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.scores))
	for seat, score := range s.scores {
		out[seat.String()] = score
	}
	return out
}

// SnapshotNow returns an immutable copy of the current state, independent of
// the tick cadence. Used for the initial state carried by gameStarted.
func (s *Simulation) SnapshotNow() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Step advances the simulation by exactly one tick and broadcasts the
// resulting snapshot. It returns the winning seat once a score reaches the
// win threshold. The run loop calls Step on every ticker fire; tests may
// drive it directly for deterministic time.
func (s *Simulation) Step() (arena.Seat, bool) {
	s.mu.Lock()
	if s.status != StatusPlaying {
		s.mu.Unlock()
		return arena.SeatNone, false
	}

	s.applyInputsLocked()
	s.advanceAILocked()
	s.ball.X += s.ball.VX
	s.ball.Y += s.ball.VY
	s.collidePaddlesLocked()
	s.collideWallsLocked()
	winner := s.checkScoringLocked()
	s.tick++

	won := winner != arena.SeatNone
	if won {
		s.status = StatusEnded
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.hooks.Broadcast != nil {
		s.hooks.Broadcast(snap)
	}
	return winner, won
}

// applyInputsLocked moves every human paddle by one fixed step along its
// seat's axis according to the player's last known direction.
func (s *Simulation) applyInputsLocked() {
	for _, seat := range s.seats {
		occ := s.occupants[seat]
		if occ.AI {
			continue
		}
		dir := s.inputs[occ.PlayerID]
		p := s.paddles[seat]
		if seat.Horizontal() {
			switch dir {
			case arena.DirLeft:
				p.X -= s.cfg.PaddleStep
			case arena.DirRight:
				p.X += s.cfg.PaddleStep
			}
			p.X = arena.ClampF(p.X, arena.SeatMargin, arena.Size-arena.SeatMargin-p.W)
		} else {
			switch dir {
			case arena.DirUp:
				p.Y -= s.cfg.PaddleStep
			case arena.DirDown:
				p.Y += s.cfg.PaddleStep
			}
			p.Y = arena.ClampF(p.Y, arena.SeatMargin, arena.Size-arena.SeatMargin-p.H)
		}
	}
}

func (s *Simulation) advanceAILocked() {
	for _, seat := range s.seats {
		bot := s.bots[seat]
		if bot == nil {
			continue
		}
		bot.Update(s.paddles[seat], s.ball)
	}
}

// collidePaddlesLocked tests the ball against every active seat's paddle in
// fixed seat order (left, right, top, bottom). Each test is gated by the
// ball's velocity direction: a paddle can only be hit by a ball moving toward
// it, which prevents repeated bounces while the ball departs. A corner ball
// that satisfies two adjacent tests in one tick takes both reflections, in
// seat order; that ordering is the defined tie-break.
func (s *Simulation) collidePaddlesLocked() {
	b := &s.ball
	const r = arena.BallRadius

	for _, seat := range s.seats {
		p := s.paddles[seat]
		hit := false

		switch seat {
		case arena.SeatBottom:
			if b.Y+r >= p.Y && b.Y-r <= p.Y+p.H &&
				b.X >= p.X && b.X <= p.X+p.W && b.VY > 0 {
				b.VY = -math.Abs(b.VY)
				s.addSpinLocked(p, true)
				hit = true
			}
		case arena.SeatTop:
			if b.Y-r <= p.Y+p.H && b.Y+r >= p.Y &&
				b.X >= p.X && b.X <= p.X+p.W && b.VY < 0 {
				b.VY = math.Abs(b.VY)
				s.addSpinLocked(p, true)
				hit = true
			}
		case arena.SeatLeft:
			if b.X-r <= p.X+p.W && b.X+r >= p.X &&
				b.Y >= p.Y && b.Y <= p.Y+p.H && b.VX < 0 {
				b.VX = math.Abs(b.VX)
				s.addSpinLocked(p, false)
				hit = true
			}
		case arena.SeatRight:
			if b.X+r >= p.X && b.X-r <= p.X+p.W &&
				b.Y >= p.Y && b.Y <= p.Y+p.H && b.VX > 0 {
				b.VX = -math.Abs(b.VX)
				s.addSpinLocked(p, false)
				hit = true
			}
		}

		if hit {
			s.lastTouch = seat
			b.VX *= s.cfg.SpeedUpFactor
			b.VY *= s.cfg.SpeedUpFactor
			s.capSpeedLocked()
		}
	}
}

// addSpinLocked deflects the ball according to where on the paddle it struck,
// normalized to [-1, 1] from the paddle center and scaled by the spin factor.
func (s *Simulation) addSpinLocked(p *Paddle, horizontal bool) {
	if horizontal {
		offset := (s.ball.X - (p.X + p.W/2)) / (p.W / 2)
		s.ball.VX += offset * s.cfg.SpinFactor
	} else {
		offset := (s.ball.Y - (p.Y + p.H/2)) / (p.H / 2)
		s.ball.VY += offset * s.cfg.SpinFactor
	}
}

// capSpeedLocked clamps the velocity magnitude to the configured maximum,
// preserving direction.
func (s *Simulation) capSpeedLocked() {
	speed := math.Hypot(s.ball.VX, s.ball.VY)
	if speed > s.cfg.MaxBallSpeed {
		scale := s.cfg.MaxBallSpeed / speed
		s.ball.VX *= scale
		s.ball.VY *= scale
	}
}

// collideWallsLocked reflects the ball off any boundary whose seat is not in
// the active configuration. Boundaries with a seat have no wall; a miss there
// falls through to scoring.
func (s *Simulation) collideWallsLocked() {
	b := &s.ball
	const r = arena.BallRadius
	const far = arena.Size - arena.WallOffset

	if !s.seatActive(arena.SeatTop) && b.Y-r <= arena.WallOffset {
		b.VY = math.Abs(b.VY)
		b.Y = arena.WallOffset + r
	}
	if !s.seatActive(arena.SeatBottom) && b.Y+r >= far {
		b.VY = -math.Abs(b.VY)
		b.Y = far - r
	}
	if !s.seatActive(arena.SeatLeft) && b.X-r <= arena.WallOffset {
		b.VX = math.Abs(b.VX)
		b.X = arena.WallOffset + r
	}
	if !s.seatActive(arena.SeatRight) && b.X+r >= far {
		b.VX = -math.Abs(b.VX)
		b.X = far - r
	}
}

func (s *Simulation) seatActive(seat arena.Seat) bool {
	_, ok := s.scores[seat]
	return ok
}

// checkScoringLocked awards a point when the ball has crossed far enough past
// an active seat's goal line. The point goes to the last distinct seat that
// touched the ball; an own-miss or an untouched serve awards nothing. Returns
// the winning seat if the awarded point reaches the win score; otherwise the
// ball is reset for the next rally.
func (s *Simulation) checkScoringLocked() arena.Seat {
	var missed arena.Seat
	switch {
	case s.ball.Y > arena.Size+arena.MissMargin:
		missed = arena.SeatBottom
	case s.ball.Y < -arena.MissMargin:
		missed = arena.SeatTop
	case s.ball.X < -arena.MissMargin:
		missed = arena.SeatLeft
	case s.ball.X > arena.Size+arena.MissMargin:
		missed = arena.SeatRight
	default:
		return arena.SeatNone
	}
	if !s.seatActive(missed) {
		return arena.SeatNone
	}

	if s.lastTouch != arena.SeatNone && s.lastTouch != missed && s.seatActive(s.lastTouch) {
		s.scores[s.lastTouch]++
		if s.scores[s.lastTouch] >= s.cfg.WinScore {
			return s.lastTouch
		}
	}
	s.resetBallLocked()
	return arena.SeatNone
}

// resetBallLocked recenters the ball and serves it at the base speed with a
// launch angle uniform in [-45°, +45°] and a random serving direction.
func (s *Simulation) resetBallLocked() {
	s.ball.X = arena.Center
	s.ball.Y = arena.Center

	angle := s.rng.Float64()*math.Pi/2 - math.Pi/4
	dir := 1.0
	if s.rng.Float64() > 0.5 {
		dir = -1.0
	}
	s.ball.VX = s.cfg.ServeSpeed * dir * math.Cos(angle)
	s.ball.VY = s.cfg.ServeSpeed * math.Sin(angle)
	s.lastTouch = arena.SeatNone
}
