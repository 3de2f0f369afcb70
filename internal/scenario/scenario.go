package scenario

import (
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/actuate/internal/operator"
)

// Scenario is a scripted sequence of operator input and link faults.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Duration    time.Duration `yaml:"duration,omitempty"`
	Events      []Event       `yaml:"events"`
}

// Event fires once the run clock reaches At. Nil fields leave the previous
// value in place.
type Event struct {
	At         time.Duration  `yaml:"at"`
	Input      *operator.Axes `yaml:"input,omitempty"`
	Trigger    *bool          `yaml:"trigger,omitempty"`
	Disconnect []string       `yaml:"disconnect,omitempty"`
	Reconnect  []string       `yaml:"reconnect,omitempty"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario")
	}

	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, errors.Wrapf(err, "parse scenario %s", path)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func Save(path string, sc *Scenario) error {
	data, err := yaml.Marshal(sc)
	if err != nil {
		return errors.Wrap(err, "marshal scenario")
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks event times are non-negative and in order.
func (s *Scenario) Validate() error {
	var last time.Duration
	for i, ev := range s.Events {
		if ev.At < 0 {
			return errors.Errorf("scenario %s: event %d at negative time %s", s.Name, i, ev.At)
		}
		if ev.At < last {
			return errors.Errorf("scenario %s: event %d at %s is before %s", s.Name, i, ev.At, last)
		}
		if s.Duration > 0 && ev.At > s.Duration {
			return errors.Errorf("scenario %s: event %d at %s is past the end %s", s.Name, i, ev.At, s.Duration)
		}
		last = ev.At
	}
	return nil
}

// Motors returns every motor name the scenario disconnects or reconnects.
func (s *Scenario) Motors() []string {
	set := map[string]bool{}
	for _, ev := range s.Events {
		for _, n := range ev.Disconnect {
			set[n] = true
		}
		for _, n := range ev.Reconnect {
			set[n] = true
		}
	}
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone copies the scenario so events can be appended without touching the
// original. Event payloads are shared.
func (s *Scenario) Clone() *Scenario {
	c := *s
	c.Events = append([]Event(nil), s.Events...)
	return &c
}

// Truncate shortens the scenario to d, dropping events after it. Callers
// holding a shared scenario should Clone first.
func (s *Scenario) Truncate(d time.Duration) {
	kept := s.Events[:0]
	for _, ev := range s.Events {
		if ev.At <= d {
			kept = append(kept, ev)
		}
	}
	s.Events = kept
	s.Duration = d
}

// Script walks a scenario's events in time order.
type Script struct {
	events []Event
	next   int
}

func NewScript(s *Scenario) *Script {
	if s == nil {
		return &Script{}
	}
	return &Script{events: s.Events}
}

// Due returns the events with At <= t that have not been returned yet.
func (sc *Script) Due(t time.Duration) []Event {
	start := sc.next
	for sc.next < len(sc.events) && sc.events[sc.next].At <= t {
		sc.next++
	}
	return sc.events[start:sc.next]
}

func (sc *Script) Done() bool { return sc.next >= len(sc.events) }

// Dropouts appends count random disconnect/reconnect pairs for the named
// motors. Each outage lasts between minOutage and maxOutage and ends before
// the scenario does. A zero seed draws from the wall clock.
func (s *Scenario) Dropouts(seed int64, count int, motors []string, minOutage, maxOutage time.Duration) error {
	if s.Duration <= 0 {
		return errors.New("scenario: dropouts need a duration")
	}
	if len(motors) == 0 || count <= 0 {
		return nil
	}
	if maxOutage < minOutage || s.Duration <= maxOutage {
		return errors.Errorf("scenario: outage range %s-%s does not fit in %s", minOutage, maxOutage, s.Duration)
	}

	rng := rand.New(rand.NewSource(seed))
	if seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for i := 0; i < count; i++ {
		name := motors[rng.Intn(len(motors))]
		outage := minOutage + time.Duration(rng.Int63n(int64(maxOutage-minOutage)+1))
		start := time.Duration(rng.Int63n(int64(s.Duration - outage)))
		s.Events = append(s.Events,
			Event{At: start, Disconnect: []string{name}},
			Event{At: start + outage, Reconnect: []string{name}},
		)
	}
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].At < s.Events[j].At })
	return nil
}
