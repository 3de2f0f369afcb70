package command_test

import (
	"github.com/san-kum/actuate/internal/command"
)

type fakeSubsystem struct {
	name      string
	initErr   error
	inits     int
	refreshes int
	log       *[]string
}

func (f *fakeSubsystem) Name() string { return f.name }
func (f *fakeSubsystem) Initialize() error {
	f.inits++
	return f.initErr
}
func (f *fakeSubsystem) Refresh() {
	f.refreshes++
	if f.log != nil {
		*f.log = append(*f.log, "refresh "+f.name)
	}
}

type fakeCommand struct {
	name     string
	reqs     []command.Subsystem
	finished bool
	notReady bool
	inits    int
	executes int
	ends     []bool
	log      *[]string
}

func (f *fakeCommand) Name() string                      { return f.name }
func (f *fakeCommand) Requirements() []command.Subsystem { return f.reqs }
func (f *fakeCommand) Initialize()                       { f.inits++ }
func (f *fakeCommand) Execute() {
	f.executes++
	if f.log != nil {
		*f.log = append(*f.log, "execute "+f.name)
	}
}
func (f *fakeCommand) End(interrupted bool) { f.ends = append(f.ends, interrupted) }
func (f *fakeCommand) IsFinished() bool     { return f.finished }
func (f *fakeCommand) Ready() bool          { return !f.notReady }

type fakeChassis struct {
	fakeSubsystem
	left, right             float64
	forward, strafe, rotate float64
}

func (f *fakeChassis) SetVelocityTank(left, right float64) { f.left, f.right = left, right }
func (f *fakeChassis) SetVelocityOmni(forward, strafe, rotate float64) {
	f.forward, f.strafe, f.rotate = forward, strafe, rotate
}

type fakeIntegral struct {
	fakeSubsystem
	setpoint   float64
	integral   float64
	calibrated bool
}

func (f *fakeIntegral) SetSetpoint(v float64)         { f.setpoint = v }
func (f *fakeIntegral) CurrentValueIntegral() float64 { return f.integral }
func (f *fakeIntegral) IsCalibrated() bool            { return f.calibrated }
