package arena

// Direction is a player's current movement intent. It is state, not an event:
// the simulation applies the last known direction every tick until a new one
// arrives, which keeps paddle motion smooth under network jitter.
type Direction int

const (
	DirStop Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// String returns the wire name of the direction.
func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	default:
		return "stop"
	}
}

// ParseDirection maps a wire name to a Direction. Anything unrecognized is
// treated as stop so the simulation never sees an invalid movement command.
func ParseDirection(s string) Direction {
	switch s {
	case "up":
		return DirUp
	case "down":
		return DirDown
	case "left":
		return DirLeft
	case "right":
		return DirRight
	default:
		return DirStop
	}
}
