package game

import (
	"math/rand"

	"github.com/vovakirdan/pong-arena/internal/arena"
	"github.com/vovakirdan/pong-arena/internal/config"
)

// AIController drives one paddle with a delayed, imprecise heuristic. It
// re-reads the ball only every ReactionDelay ticks, aims at the predicted
// crossing point plus noise drawn from ErrorMargin, and moves at most Speed
// units per tick, so it behaves like a player rather than a perfect wall.
type AIController struct {
	seat    arena.Seat
	profile config.AIProfile
	rng     *rand.Rand

	frame   int
	targetX float64
	targetY float64
}

// NewAIController returns a controller for the given seat. The shared rng is
// only touched from the tick step, never concurrently.
func NewAIController(seat arena.Seat, profile config.AIProfile, rng *rand.Rand) *AIController {
	return &AIController{
		seat:    seat,
		profile: profile,
		rng:     rng,
		targetX: arena.Center,
		targetY: arena.Center,
	}
}

// Update advances the controller by one tick: it retargets when the reaction
// window elapses and moves the paddle toward the current target.
func (c *AIController) Update(p *Paddle, ball Ball) {
	c.frame++
	if c.frame >= c.profile.ReactionDelay {
		c.frame = 0
		c.retarget(ball)
	}
	c.moveToward(p)
}

// retarget picks a new aim point. While the ball is approaching this seat the
// target is the ball's cross-axis position offset by uniform noise in
// [-ErrorMargin/2, +ErrorMargin/2]; while it departs the paddle drifts back
// to center.
func (c *AIController) retarget(ball Ball) {
	noise := (c.rng.Float64() - 0.5) * c.profile.ErrorMargin
	if c.seat.Horizontal() {
		approaching := (c.seat == arena.SeatBottom && ball.VY > 0) ||
			(c.seat == arena.SeatTop && ball.VY < 0)
		if approaching {
			c.targetX = ball.X + noise
		} else {
			c.targetX = arena.Center
		}
	} else {
		approaching := (c.seat == arena.SeatRight && ball.VX > 0) ||
			(c.seat == arena.SeatLeft && ball.VX < 0)
		if approaching {
			c.targetY = ball.Y + noise
		} else {
			c.targetY = arena.Center
		}
	}
}

// moveToward steps the paddle center at most one Speed unit toward the
// target, snapping exactly onto it when closer than a full step, then clamps
// to the paddle's travel range.
func (c *AIController) moveToward(p *Paddle) {
	speed := c.profile.Speed
	if c.seat.Horizontal() {
		diff := c.targetX - (p.X + p.W/2)
		switch {
		case diff > speed:
			p.X += speed
		case diff < -speed:
			p.X -= speed
		default:
			p.X = c.targetX - p.W/2
		}
		p.X = arena.ClampF(p.X, arena.SeatMargin, arena.Size-arena.SeatMargin-p.W)
	} else {
		diff := c.targetY - (p.Y + p.H/2)
		switch {
		case diff > speed:
			p.Y += speed
		case diff < -speed:
			p.Y -= speed
		default:
			p.Y = c.targetY - p.H/2
		}
		p.Y = arena.ClampF(p.Y, arena.SeatMargin, arena.Size-arena.SeatMargin-p.H)
	}
}
