package command_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/actuate/internal/command"
	"github.com/san-kum/actuate/internal/operator"
)

var _ = Describe("TankDrive", func() {
	var (
		chassis *fakeChassis
		input   *operator.Static
		cmd     *command.TankDrive
	)

	BeforeEach(func() {
		chassis = &fakeChassis{fakeSubsystem: fakeSubsystem{name: "chassis"}}
		input = &operator.Static{}
		cmd = command.NewTankDrive(chassis, input, command.DefaultMaxChassisSpeedMPS)
	})

	It("requires the chassis", func() {
		Expect(cmd.Requirements()).To(ConsistOf(chassis))
	})

	DescribeTable("scales stick input to rim speed",
		func(left, right, wantLeft, wantRight float64) {
			input.Axes.TankLeft = left
			input.Axes.TankRight = right
			cmd.Execute()
			Expect(chassis.left).To(BeNumerically("~", wantLeft, 1e-12))
			Expect(chassis.right).To(BeNumerically("~", wantRight, 1e-12))
		},
		Entry("full forward", 1.0, 1.0, 3.0, 3.0),
		Entry("spin in place", 1.0, -1.0, 3.0, -3.0),
		Entry("half speed", 0.5, 0.25, 1.5, 0.75),
		Entry("out of range input", 4.0, -7.0, 3.0, -3.0),
	)

	It("stops the chassis when it ends", func() {
		input.Axes.TankLeft = 1
		cmd.Execute()
		cmd.End(true)
		Expect(chassis.left).To(BeZero())
		Expect(chassis.right).To(BeZero())
	})

	It("never finishes on its own", func() {
		Expect(cmd.IsFinished()).To(BeFalse())
	})
})

var _ = Describe("OmniDrive", func() {
	It("passes scaled forward, strafe and rotate", func() {
		chassis := &fakeChassis{fakeSubsystem: fakeSubsystem{name: "chassis"}}
		input := &operator.Static{Axes: operator.Axes{Forward: 1, Strafe: -0.5, Rotate: 2}}
		cmd := command.NewOmniDrive(chassis, input, 2)

		cmd.Execute()
		Expect(chassis.forward).To(Equal(2.0))
		Expect(chassis.strafe).To(Equal(-1.0))
		Expect(chassis.rotate).To(Equal(2.0))

		cmd.End(false)
		Expect([]float64{chassis.forward, chassis.strafe, chassis.rotate}).To(Equal([]float64{0, 0, 0}))
	})
})

var _ = Describe("MoveIntegral", func() {
	var (
		sub *fakeIntegral
		cmd *command.MoveIntegral
	)

	BeforeEach(func() {
		sub = &fakeIntegral{fakeSubsystem: fakeSubsystem{name: "agitator"}, calibrated: true, integral: 1}
		cmd = command.NewMoveIntegral(sub, command.DefaultMoveIntegralConfig())
	})

	It("is not ready while uncalibrated", func() {
		sub.calibrated = false
		Expect(cmd.Ready()).To(BeFalse())
		sched := command.NewScheduler(nil)
		Expect(sched.Schedule(cmd)).To(BeFalse())
	})

	It("heads for the target at the desired speed", func() {
		cmd.Initialize()
		Expect(cmd.Target()).To(BeNumerically("~", 1+2*math.Pi/10, 1e-12))
		Expect(sub.setpoint).To(Equal(2 * math.Pi))
		Expect(cmd.IsFinished()).To(BeFalse())
	})

	It("finishes once the integral passes the target", func() {
		cmd.Initialize()
		sub.integral = cmd.Target() - 0.01
		Expect(cmd.IsFinished()).To(BeFalse())
		sub.integral = cmd.Target() + 0.01
		Expect(cmd.IsFinished()).To(BeTrue())
		cmd.End(false)
		Expect(sub.setpoint).To(BeZero())
	})

	It("moves backward for a negative change", func() {
		cmd = command.NewMoveIntegral(sub, command.MoveIntegralConfig{
			TargetIntegralChange: -1,
			DesiredSetpoint:      3,
			Tolerance:            0.1,
		})
		cmd.Initialize()
		Expect(sub.setpoint).To(Equal(-3.0))
		Expect(cmd.Target()).To(BeNumerically("~", 0, 1e-12))

		sub.integral = 0.5
		Expect(cmd.IsFinished()).To(BeFalse())
		sub.integral = 0.05
		Expect(cmd.IsFinished()).To(BeTrue())
	})

	It("gives up when calibration is lost", func() {
		cmd.Initialize()
		sub.calibrated = false
		Expect(cmd.IsFinished()).To(BeTrue())
	})
})
