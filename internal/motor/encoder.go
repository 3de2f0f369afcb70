package motor

// EncoderResolution is the tick count of one shaft revolution on the
// 13-bit rotor encoder.
const EncoderResolution = 8192

// Unwrapper turns a wrapping raw encoder reading into a continuous tick
// count. It assumes the shaft moves less than half a revolution between
// updates.
type Unwrapper struct {
	resolution int64
	last       int64
	revs       int64
	primed     bool
}

func NewUnwrapper(resolution int64) *Unwrapper {
	return &Unwrapper{resolution: resolution}
}

// Update consumes a raw reading in [0, resolution) and returns the unwrapped
// position.
func (u *Unwrapper) Update(raw int64) int64 {
	if !u.primed {
		u.last = raw
		u.primed = true
		return raw
	}

	delta := raw - u.last
	switch {
	case delta < -u.resolution/2:
		u.revs++
	case delta > u.resolution/2:
		u.revs--
	}
	u.last = raw
	return u.Value()
}

func (u *Unwrapper) Value() int64 {
	return u.revs*u.resolution + u.last
}
