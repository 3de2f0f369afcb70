package agitator_test

import (
	"errors"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/agitator"
	"github.com/san-kum/actuate/internal/control"
)

type fakeMotor struct {
	online   bool
	rpm      float64
	ticks    int64
	output   float64
	commands int
	initErr  error
}

func (f *fakeMotor) Initialize() error             { return f.initErr }
func (f *fakeMotor) IsOnline() bool                { return f.online }
func (f *fakeMotor) MeasuredSpeed() float64        { return f.rpm }
func (f *fakeMotor) UnwrappedPositionTicks() int64 { return f.ticks }
func (f *fakeMotor) SetCommandedOutput(out float64) {
	f.output = out
	f.commands++
}

var _ = Describe("VelocitySubsystem", func() {
	var (
		motor *fakeMotor
		clk   *clock.Mock
		sub   *agitator.VelocitySubsystem
	)

	BeforeEach(func() {
		motor = &fakeMotor{}
		clk = clock.NewMock()
		cfg := agitator.DefaultConfig()
		cfg.PID = control.Params{Kp: 1, MaxOutput: 1}
		sub = agitator.New(cfg, motor, clk, zap.NewNop().Sugar())
	})

	It("wraps initialization errors", func() {
		motor.initErr = errors.New("bus timeout")
		Expect(sub.Initialize()).To(MatchError(ContainSubstring("bus timeout")))
	})

	It("converts shaft rpm to output rad/s", func() {
		motor.rpm = 36 * 60
		Expect(sub.CurrentValue()).To(BeNumerically("~", 2*math.Pi, 1e-9))
	})

	Context("while offline", func() {
		It("stays uncalibrated across ticks", func() {
			for i := 0; i < 5; i++ {
				sub.Refresh()
				clk.Add(2 * time.Millisecond)
				Expect(sub.IsCalibrated()).To(BeFalse())
			}
			Expect(motor.commands).To(BeZero())
		})

		It("refuses to calibrate without changing state", func() {
			sub.SetSetpoint(3)
			Expect(sub.CalibrateHere()).To(BeFalse())
			Expect(sub.IsCalibrated()).To(BeFalse())
			Expect(sub.Setpoint()).To(Equal(3.0))
		})

		It("reports a zero integral", func() {
			motor.ticks = 123456
			Expect(sub.CurrentValueIntegral()).To(BeZero())
		})
	})

	Context("when the motor comes online", func() {
		BeforeEach(func() {
			sub.Refresh()
			motor.online = true
			motor.ticks = 8192 * 36
			sub.SetSetpoint(5)
		})

		It("calibrates on the next tick", func() {
			sub.Refresh()
			Expect(sub.IsCalibrated()).To(BeTrue())
			Expect(sub.Setpoint()).To(BeZero())
			Expect(sub.ZeroReference()).To(BeNumerically("~", 2*math.Pi, 1e-9))
			Expect(sub.CurrentValueIntegral()).To(BeZero())
		})

		It("does not command the motor on the calibrating tick", func() {
			sub.Refresh()
			Expect(motor.commands).To(BeZero())
		})

		It("measures the integral from the zero reference", func() {
			sub.Refresh()
			motor.ticks += 8192 * 9
			Expect(sub.CurrentValueIntegral()).To(BeNumerically("~", math.Pi/2, 1e-9))
			motor.ticks -= 8192 * 18
			Expect(sub.CurrentValueIntegral()).To(BeNumerically("~", -math.Pi/2, 1e-9))
		})
	})

	Context("when calibrated and online", func() {
		BeforeEach(func() {
			motor.online = true
			sub.Refresh()
			Expect(sub.IsCalibrated()).To(BeTrue())
		})

		It("drives the motor toward the setpoint", func() {
			sub.SetSetpoint(0.5)
			clk.Add(2 * time.Millisecond)
			sub.Refresh()
			Expect(motor.output).To(BeNumerically("~", 0.5, 1e-9))
			Expect(sub.Output()).To(Equal(motor.output))
		})

		It("saturates the command", func() {
			sub.SetSetpoint(100)
			clk.Add(2 * time.Millisecond)
			sub.Refresh()
			Expect(motor.output).To(Equal(1.0))
		})

		It("opposes measured motion at a zero setpoint", func() {
			motor.rpm = 36 * 60 / (2 * math.Pi) * 0.25
			clk.Add(2 * time.Millisecond)
			sub.Refresh()
			Expect(motor.output).To(BeNumerically("~", -0.25, 1e-9))
		})

		It("observes setpoints only on the next tick", func() {
			clk.Add(2 * time.Millisecond)
			sub.Refresh()
			sub.SetSetpoint(0.5)
			Expect(motor.output).To(BeZero())
		})

		It("uses elapsed clock time as dt in milliseconds", func() {
			cfg := agitator.DefaultConfig()
			cfg.PID = control.Params{Ki: 1, MaxIntegral: 1000, MaxOutput: 1000}
			sub = agitator.New(cfg, motor, clk, zap.NewNop().Sugar())
			sub.Refresh()
			sub.SetSetpoint(1)

			clk.Add(5 * time.Millisecond)
			sub.Refresh()
			Expect(motor.output).To(BeNumerically("~", 5, 1e-9))
		})

		It("skips the step when no time has passed", func() {
			sub.SetSetpoint(0.5)
			sub.Refresh()
			Expect(motor.output).To(BeZero())
		})

		It("drops calibration as soon as the motor goes offline", func() {
			motor.online = false
			sub.Refresh()
			Expect(sub.IsCalibrated()).To(BeFalse())
			Expect(sub.CurrentValueIntegral()).To(BeZero())
		})

		It("recalibrates at a fresh zero after reconnecting", func() {
			sub.SetSetpoint(2)
			motor.online = false
			sub.Refresh()

			motor.ticks = 8192 * 72
			motor.online = true
			sub.Refresh()
			Expect(sub.IsCalibrated()).To(BeTrue())
			Expect(sub.Setpoint()).To(BeZero())
			Expect(sub.ZeroReference()).To(BeNumerically("~", 4*math.Pi, 1e-9))
		})
	})
})
