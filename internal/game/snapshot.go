package game

import "time"

// BallState is the ball's position and velocity as serialized to clients.
type BallState struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// PaddleState is one paddle's position and dimensions as serialized to
// clients.
type PaddleState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Snapshot is a complete, self-describing copy of the simulation state at one
// tick. It contains only primitives and maps keyed by seat name, so any
// serializer can encode it without knowing simulation internals.
type Snapshot struct {
	Tick      uint64                 `json:"tick"`
	Ball      BallState              `json:"ball"`
	Paddles   map[string]PaddleState `json:"paddles"`
	Scores    map[string]int         `json:"scores"`
	Status    string                 `json:"status"`
	Timestamp int64                  `json:"timestamp"`
}

func (s *Simulation) snapshotLocked() Snapshot {
	paddles := make(map[string]PaddleState, len(s.paddles))
	for seat, p := range s.paddles {
		paddles[seat.String()] = PaddleState{X: p.X, Y: p.Y, Width: p.W, Height: p.H}
	}
	scores := make(map[string]int, len(s.scores))
	for seat, score := range s.scores {
		scores[seat.String()] = score
	}
	return Snapshot{
		Tick: s.tick,
		Ball: BallState{
			X: s.ball.X, Y: s.ball.Y,
			VX: s.ball.VX, VY: s.ball.VY,
		},
		Paddles:   paddles,
		Scores:    scores,
		Status:    s.status.String(),
		Timestamp: time.Now().UnixMilli(),
	}
}
