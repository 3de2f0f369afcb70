package command

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type binding struct {
	pressed func() bool
	cmd     Command
	last    bool
}

// Scheduler runs commands and refreshes subsystems. It is single-threaded:
// every method must be called from the tick goroutine.
type Scheduler struct {
	subsystems []Subsystem
	defaults   map[Subsystem]Command
	owners     map[Subsystem]Command
	active     []Command
	bindings   []*binding

	initialized bool
	logger      *zap.SugaredLogger
}

func NewScheduler(logger *zap.SugaredLogger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Scheduler{
		defaults: make(map[Subsystem]Command),
		owners:   make(map[Subsystem]Command),
		logger:   logger,
	}
}

// Register adds a subsystem. Subsystems refresh in registration order.
func (s *Scheduler) Register(sub Subsystem) {
	for _, existing := range s.subsystems {
		if existing == sub {
			return
		}
	}
	s.subsystems = append(s.subsystems, sub)
}

// SetDefault sets the command that runs whenever nothing else owns sub.
func (s *Scheduler) SetDefault(sub Subsystem, cmd Command) error {
	if !requires(cmd, sub) {
		return errors.Errorf("command: default %s for %s must require it", cmd.Name(), sub.Name())
	}
	s.defaults[sub] = cmd
	return nil
}

// OnPress schedules cmd on every rising edge of pressed.
func (s *Scheduler) OnPress(pressed func() bool, cmd Command) {
	s.bindings = append(s.bindings, &binding{pressed: pressed, cmd: cmd})
}

// Initialize brings up every registered subsystem once. All subsystems are
// attempted even if some fail.
func (s *Scheduler) Initialize() error {
	if s.initialized {
		return nil
	}
	var err error
	for _, sub := range s.subsystems {
		if e := sub.Initialize(); e != nil {
			err = multierr.Append(err, errors.Wrapf(e, "initialize %s", sub.Name()))
		}
	}
	s.initialized = true
	s.logger.Debugw("subsystems initialized", "count", len(s.subsystems), "errors", len(multierr.Errors(err)))
	return err
}

// Schedule starts cmd, interrupting any command that shares a requirement.
// It returns false when cmd reports it is not ready.
func (s *Scheduler) Schedule(cmd Command) bool {
	if s.IsScheduled(cmd) {
		return true
	}
	if r, ok := cmd.(Readier); ok && !r.Ready() {
		return false
	}
	for _, sub := range cmd.Requirements() {
		if owner, ok := s.owners[sub]; ok {
			s.end(owner, true)
		}
	}
	for _, sub := range cmd.Requirements() {
		s.owners[sub] = cmd
	}
	s.active = append(s.active, cmd)
	cmd.Initialize()
	s.logger.Debugw("command scheduled", "command", cmd.Name())
	return true
}

// Cancel interrupts cmd if it is running.
func (s *Scheduler) Cancel(cmd Command) {
	if s.IsScheduled(cmd) {
		s.end(cmd, true)
	}
}

func (s *Scheduler) IsScheduled(cmd Command) bool {
	for _, c := range s.active {
		if c == cmd {
			return true
		}
	}
	return false
}

// Owner returns the command currently holding sub.
func (s *Scheduler) Owner(sub Subsystem) (Command, bool) {
	c, ok := s.owners[sub]
	return c, ok
}

// Run performs one tick: poll bindings, execute commands, retire finished
// ones, start defaults on idle subsystems, then refresh every subsystem.
func (s *Scheduler) Run() {
	for _, b := range s.bindings {
		now := b.pressed()
		if now && !b.last {
			s.Schedule(b.cmd)
		}
		b.last = now
	}

	running := append([]Command(nil), s.active...)
	for _, cmd := range running {
		if !s.IsScheduled(cmd) {
			continue
		}
		cmd.Execute()
		if cmd.IsFinished() {
			s.end(cmd, false)
		}
	}

	for _, sub := range s.subsystems {
		if _, busy := s.owners[sub]; busy {
			continue
		}
		if def, ok := s.defaults[sub]; ok {
			s.Schedule(def)
		}
	}

	for _, sub := range s.subsystems {
		sub.Refresh()
	}
}

func (s *Scheduler) end(cmd Command, interrupted bool) {
	for i, c := range s.active {
		if c == cmd {
			s.active = append(s.active[:i], s.active[i+1:]...)
			break
		}
	}
	for _, sub := range cmd.Requirements() {
		if s.owners[sub] == cmd {
			delete(s.owners, sub)
		}
	}
	cmd.End(interrupted)
	s.logger.Debugw("command ended", "command", cmd.Name(), "interrupted", interrupted)
}

func requires(cmd Command, sub Subsystem) bool {
	for _, r := range cmd.Requirements() {
		if r == sub {
			return true
		}
	}
	return false
}
