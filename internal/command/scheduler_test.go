package command_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/san-kum/actuate/internal/command"
)

var _ = Describe("Scheduler", func() {
	var (
		sched    *command.Scheduler
		chassis  *fakeSubsystem
		agitator *fakeSubsystem
		log      []string
	)

	BeforeEach(func() {
		log = nil
		sched = command.NewScheduler(zap.NewNop().Sugar())
		chassis = &fakeSubsystem{name: "chassis", log: &log}
		agitator = &fakeSubsystem{name: "agitator", log: &log}
		sched.Register(chassis)
		sched.Register(agitator)
	})

	Describe("Initialize", func() {
		It("initializes every subsystem once", func() {
			Expect(sched.Initialize()).To(Succeed())
			Expect(sched.Initialize()).To(Succeed())
			Expect(chassis.inits).To(Equal(1))
			Expect(agitator.inits).To(Equal(1))
		})

		It("keeps going past failures and reports all of them", func() {
			chassis.initErr = errors.New("wheel 3 missing")
			agitator.initErr = errors.New("no reply")
			err := sched.Initialize()
			Expect(err).To(HaveOccurred())
			Expect(multierr.Errors(err)).To(HaveLen(2))
			Expect(err.Error()).To(ContainSubstring("initialize chassis"))
			Expect(agitator.inits).To(Equal(1))
		})

		It("registers a subsystem only once", func() {
			sched.Register(chassis)
			sched.Run()
			Expect(chassis.refreshes).To(Equal(1))
		})
	})

	Describe("Run", func() {
		It("executes commands before refreshing subsystems in registration order", func() {
			cmd := &fakeCommand{name: "drive", reqs: []command.Subsystem{chassis}, log: &log}
			Expect(sched.Schedule(cmd)).To(BeTrue())
			sched.Run()
			Expect(log).To(Equal([]string{"execute drive", "refresh chassis", "refresh agitator"}))
		})

		It("ends finished commands without interruption", func() {
			cmd := &fakeCommand{name: "once", reqs: []command.Subsystem{agitator}, finished: true}
			sched.Schedule(cmd)
			sched.Run()
			Expect(cmd.executes).To(Equal(1))
			Expect(cmd.ends).To(Equal([]bool{false}))
			Expect(sched.IsScheduled(cmd)).To(BeFalse())
		})

		It("starts the default command on an idle subsystem", func() {
			def := &fakeCommand{name: "default", reqs: []command.Subsystem{chassis}}
			Expect(sched.SetDefault(chassis, def)).To(Succeed())
			sched.Run()
			Expect(sched.IsScheduled(def)).To(BeTrue())
			Expect(def.inits).To(Equal(1))
		})

		It("rejects a default that does not require its subsystem", func() {
			def := &fakeCommand{name: "default", reqs: []command.Subsystem{agitator}}
			Expect(sched.SetDefault(chassis, def)).NotTo(Succeed())
		})

		It("resumes the default after a command finishes", func() {
			def := &fakeCommand{name: "default", reqs: []command.Subsystem{chassis}}
			Expect(sched.SetDefault(chassis, def)).To(Succeed())
			sched.Run()

			burst := &fakeCommand{name: "burst", reqs: []command.Subsystem{chassis}}
			sched.Schedule(burst)
			Expect(def.ends).To(Equal([]bool{true}))

			burst.finished = true
			sched.Run()
			sched.Run()
			Expect(sched.IsScheduled(def)).To(BeTrue())
			Expect(def.inits).To(Equal(2))
		})
	})

	Describe("Schedule", func() {
		It("interrupts commands that share a requirement", func() {
			a := &fakeCommand{name: "a", reqs: []command.Subsystem{chassis, agitator}}
			b := &fakeCommand{name: "b", reqs: []command.Subsystem{agitator}}
			sched.Schedule(a)
			sched.Schedule(b)
			Expect(a.ends).To(Equal([]bool{true}))
			Expect(sched.IsScheduled(b)).To(BeTrue())

			owner, ok := sched.Owner(agitator)
			Expect(ok).To(BeTrue())
			Expect(owner).To(BeIdenticalTo(b))
			_, ok = sched.Owner(chassis)
			Expect(ok).To(BeFalse())
		})

		It("leaves commands on other subsystems alone", func() {
			a := &fakeCommand{name: "a", reqs: []command.Subsystem{chassis}}
			b := &fakeCommand{name: "b", reqs: []command.Subsystem{agitator}}
			sched.Schedule(a)
			sched.Schedule(b)
			Expect(sched.IsScheduled(a)).To(BeTrue())
			Expect(a.ends).To(BeEmpty())
		})

		It("does not restart a running command", func() {
			a := &fakeCommand{name: "a", reqs: []command.Subsystem{chassis}}
			sched.Schedule(a)
			sched.Schedule(a)
			Expect(a.inits).To(Equal(1))
		})

		It("refuses commands that are not ready", func() {
			a := &fakeCommand{name: "a", reqs: []command.Subsystem{chassis}, notReady: true}
			Expect(sched.Schedule(a)).To(BeFalse())
			Expect(a.inits).To(BeZero())
		})

		It("cancels with interruption", func() {
			a := &fakeCommand{name: "a", reqs: []command.Subsystem{chassis}}
			sched.Schedule(a)
			sched.Cancel(a)
			Expect(a.ends).To(Equal([]bool{true}))
			sched.Cancel(a)
			Expect(a.ends).To(HaveLen(1))
		})
	})

	Describe("OnPress", func() {
		It("schedules only on the rising edge", func() {
			pressed := false
			a := &fakeCommand{name: "fire", reqs: []command.Subsystem{agitator}, finished: true}
			sched.OnPress(func() bool { return pressed }, a)

			sched.Run()
			Expect(a.inits).To(BeZero())

			pressed = true
			sched.Run()
			sched.Run()
			sched.Run()
			Expect(a.inits).To(Equal(1))

			pressed = false
			sched.Run()
			pressed = true
			sched.Run()
			Expect(a.inits).To(Equal(2))
		})
	})
})
