package operator

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultHoldWindow is how long a key counts as held after its last press.
// Terminals report key repeats but never releases.
const DefaultHoldWindow = 150 * time.Millisecond

// Keyboard maps keys to axes:
//
//	w/s  forward/back (both tank sides)
//	a/d  strafe left/right
//	q/e  rotate counterclockwise/clockwise
//	space trigger
//
// Key events may arrive from a UI goroutine while the tick goroutine reads,
// so access is locked.
type Keyboard struct {
	mu      sync.Mutex
	clock   clock.Clock
	hold    time.Duration
	pressed map[string]time.Time
	// Scale is the magnitude of a held key, in (0, 1].
	Scale float64
}

func NewKeyboard(clk clock.Clock, hold time.Duration) *Keyboard {
	if clk == nil {
		clk = clock.New()
	}
	if hold <= 0 {
		hold = DefaultHoldWindow
	}
	return &Keyboard{
		clock:   clk,
		hold:    hold,
		pressed: make(map[string]time.Time),
		Scale:   1,
	}
}

// Press records a key event.
func (k *Keyboard) Press(key string) {
	if key == " " {
		key = "space"
	}
	k.mu.Lock()
	k.pressed[key] = k.clock.Now()
	k.mu.Unlock()
}

// Release forgets every key, as if nothing were held.
func (k *Keyboard) Release() {
	k.mu.Lock()
	k.pressed = make(map[string]time.Time)
	k.mu.Unlock()
}

func (k *Keyboard) held(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	at, ok := k.pressed[key]
	if !ok {
		return false
	}
	return k.clock.Since(at) < k.hold
}

func (k *Keyboard) axis(pos, neg string) float64 {
	v := 0.0
	if k.held(pos) {
		v += k.Scale
	}
	if k.held(neg) {
		v -= k.Scale
	}
	return clampUnit(v)
}

// TankLeft mixes forward and rotate the way a two-stick tank operator would.
func (k *Keyboard) TankLeft() float64  { return clampUnit(k.Forward() + k.Rotate()) }
func (k *Keyboard) TankRight() float64 { return clampUnit(k.Forward() - k.Rotate()) }
func (k *Keyboard) Forward() float64   { return k.axis("w", "s") }
func (k *Keyboard) Strafe() float64    { return k.axis("d", "a") }
func (k *Keyboard) Rotate() float64    { return k.axis("e", "q") }
func (k *Keyboard) Trigger() bool      { return k.held("space") }
