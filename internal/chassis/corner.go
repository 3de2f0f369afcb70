package chassis

// Corner names a fixed wheel slot. The order is the slot order inside the
// drivetrain and never changes.
type Corner int

const (
	FrontLeft Corner = iota
	BackLeft
	FrontRight
	BackRight

	NumCorners
)

func (c Corner) String() string {
	switch c {
	case FrontLeft:
		return "LF"
	case BackLeft:
		return "LB"
	case FrontRight:
		return "RF"
	case BackRight:
		return "RB"
	default:
		return "unknown"
	}
}

// IsLeft reports whether the corner is on the left side of the chassis.
func (c Corner) IsLeft() bool { return c == FrontLeft || c == BackLeft }

// Corners returns every slot in slot order.
func Corners() [NumCorners]Corner {
	return [NumCorners]Corner{FrontLeft, BackLeft, FrontRight, BackRight}
}
