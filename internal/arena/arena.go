// Package arena provides the fundamental types and constants for the game
// simulation: seat positions, movement directions, and the logical coordinate
// space. It contains no external dependencies so the physics core stays pure
// and testable.
package arena

// The arena is a fixed square of logical units. All constants below form the
// compatibility contract shared with clients; changing any of them changes
// the wire-visible gameplay.
const (
	// Size is the side length of the square arena in logical units.
	Size = 800.0

	// WallOffset is the distance from the arena edge to a solid wall surface.
	WallOffset = 15.0

	// BallRadius is the collision radius of the ball.
	BallRadius = 10.0

	// SeatMargin is the closest a paddle may travel to either wall along its
	// movement axis.
	SeatMargin = 30.0

	// MissMargin is how far past a boundary the ball must travel before the
	// seat guarding that boundary is considered to have missed.
	MissMargin = 30.0

	// Center is the coordinate of the arena midpoint on either axis.
	Center = Size / 2
)

// Gameplay defaults. These seed the configuration layer; the simulation reads
// its tunables from config so they can be overridden per deployment.
const (
	DefaultTickRate      = 60
	DefaultWinScore      = 10
	DefaultPaddleStep    = 8.0
	DefaultServeSpeed    = 9.0
	DefaultMaxBallSpeed  = 18.0
	DefaultSpeedUpFactor = 1.05
	DefaultSpinFactor    = 1.5
)

// Paddle dimensions by orientation.
const (
	PaddleLong  = 100.0
	PaddleShort = 15.0
)

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
