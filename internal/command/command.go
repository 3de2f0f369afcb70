// Package command drives subsystems on a fixed tick and arbitrates which
// command owns each subsystem.
package command

// Subsystem is anything the scheduler refreshes once per tick.
type Subsystem interface {
	Name() string
	Initialize() error
	Refresh()
}

// Command is a unit of behavior that owns its required subsystems while
// scheduled. A command must not block in any of its methods.
type Command interface {
	Name() string
	Requirements() []Subsystem
	Initialize()
	Execute()
	End(interrupted bool)
	IsFinished() bool
}

// Readier is implemented by commands that can refuse to start.
type Readier interface {
	Ready() bool
}
