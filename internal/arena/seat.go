package arena

// Seat is one of the four cardinal positions a paddle can occupy.
type Seat int

const (
	SeatNone Seat = iota
	SeatLeft
	SeatRight
	SeatTop
	SeatBottom
)

// String returns the wire name of the seat.
func (s Seat) String() string {
	switch s {
	case SeatLeft:
		return "left"
	case SeatRight:
		return "right"
	case SeatTop:
		return "top"
	case SeatBottom:
		return "bottom"
	default:
		return "none"
	}
}

// ParseSeat maps a wire name back to a Seat. Unknown names yield SeatNone.
func ParseSeat(s string) Seat {
	switch s {
	case "left":
		return SeatLeft
	case "right":
		return SeatRight
	case "top":
		return SeatTop
	case "bottom":
		return SeatBottom
	default:
		return SeatNone
	}
}

// Horizontal reports whether the seat's paddle moves along the x axis.
// Top and bottom paddles slide horizontally; left and right slide vertically.
func (s Seat) Horizontal() bool {
	return s == SeatTop || s == SeatBottom
}

// PaddleSize returns the paddle dimensions for this seat's orientation.
func (s Seat) PaddleSize() (w, h float64) {
	if s.Horizontal() {
		return PaddleLong, PaddleShort
	}
	return PaddleShort, PaddleLong
}

// StartPosition returns the paddle's initial top-left coordinate: centered
// along the movement axis, resting against the seat's wall on the other.
func (s Seat) StartPosition() (x, y float64) {
	switch s {
	case SeatLeft:
		return WallOffset, Center - PaddleLong/2
	case SeatRight:
		return Size - WallOffset - PaddleShort, Center - PaddleLong/2
	case SeatTop:
		return Center - PaddleLong/2, WallOffset
	case SeatBottom:
		return Center - PaddleLong/2, Size - WallOffset - PaddleShort
	default:
		return 0, 0
	}
}

// Seats returns the active seat positions for a player count, in declaration
// order. Counts outside {2, 3, 4} fall back to the two-player layout.
func Seats(playerCount int) []Seat {
	switch playerCount {
	case 3:
		return []Seat{SeatLeft, SeatRight, SeatTop}
	case 4:
		return []Seat{SeatLeft, SeatRight, SeatTop, SeatBottom}
	default:
		return []Seat{SeatLeft, SeatRight}
	}
}
