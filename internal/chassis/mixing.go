package chassis

import (
	"fmt"

	"github.com/pkg/errors"
)

// WheelMix is the contribution of each body velocity to one wheel.
type WheelMix struct {
	Forward float64 `yaml:"forward"`
	Strafe  float64 `yaml:"strafe"`
	Rotate  float64 `yaml:"rotate"`
}

// MixingTable maps body velocities to wheel rim speeds, one row per corner
// in slot order.
type MixingTable [NumCorners]WheelMix

// DefaultMecanumTable is the X-configured mecanum layout. Positive strafe
// moves right and positive rotate turns clockwise seen from above.
var DefaultMecanumTable = MixingTable{
	FrontLeft:  {Forward: 1, Strafe: 1, Rotate: 1},
	BackLeft:   {Forward: 1, Strafe: -1, Rotate: 1},
	FrontRight: {Forward: 1, Strafe: -1, Rotate: -1},
	BackRight:  {Forward: 1, Strafe: 1, Rotate: -1},
}

// ErrMixingTable is wrapped by every table validation failure.
var ErrMixingTable = errors.New("chassis: invalid mixing table")

// Validate checks that every coefficient is a unit sign, that forward and
// rotate reach every wheel, that forward drives every wheel the same way,
// that rotate opposes the two sides and that strafe cancels on each side.
func (t MixingTable) Validate() error {
	for _, c := range Corners() {
		row := t[c]
		for name, v := range map[string]float64{"forward": row.Forward, "strafe": row.Strafe, "rotate": row.Rotate} {
			if v != -1 && v != 0 && v != 1 {
				return errors.Wrapf(ErrMixingTable, "%s %s coefficient %v is not -1, 0 or 1", c, name, v)
			}
		}
		if row.Forward == 0 {
			return errors.Wrapf(ErrMixingTable, "%s has no forward coefficient", c)
		}
		if row.Rotate == 0 {
			return errors.Wrapf(ErrMixingTable, "%s has no rotate coefficient", c)
		}
		if row.Forward != t[FrontLeft].Forward {
			return errors.Wrapf(ErrMixingTable, "%s forward sign differs from %s", c, FrontLeft)
		}
	}
	if t[FrontLeft].Rotate != t[BackLeft].Rotate || t[FrontRight].Rotate != t[BackRight].Rotate {
		return errors.Wrap(ErrMixingTable, "rotate must match along each side")
	}
	if t[FrontLeft].Rotate != -t[FrontRight].Rotate {
		return errors.Wrap(ErrMixingTable, "rotate must oppose left and right sides")
	}
	if t[FrontLeft].Strafe+t[BackLeft].Strafe != 0 || t[FrontRight].Strafe+t[BackRight].Strafe != 0 {
		return errors.Wrap(ErrMixingTable, "strafe must cancel along each side")
	}
	return nil
}

func (t MixingTable) mix(forward, strafe, rotate float64) [NumCorners]float64 {
	var out [NumCorners]float64
	for _, c := range Corners() {
		row := t[c]
		out[c] = row.Forward*forward + row.Strafe*strafe + row.Rotate*rotate
	}
	return out
}

func (t MixingTable) String() string {
	s := ""
	for _, c := range Corners() {
		s += fmt.Sprintf("%s: f%+.0f s%+.0f r%+.0f\n", c, t[c].Forward, t[c].Strafe, t[c].Rotate)
	}
	return s
}
