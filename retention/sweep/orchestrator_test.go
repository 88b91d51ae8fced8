package sweep

import (
	"bytes"
	"errors"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/sim/hooking"
)

type fakeInit struct {
	ticks  int
	need   int
	resets int
}

func (f *fakeInit) Tick(uint64) bool {
	if f.ticks >= f.need {
		return false
	}

	f.ticks++

	return true
}

func (f *fakeInit) Done() bool { return f.ticks >= f.need }

func (f *fakeInit) Reset() {
	f.ticks = 0
	f.resets++
}

func (f *fakeInit) NextWake() (uint64, bool) { return 0, false }

// fakeEngine finishes every operation after opTicks ticks and stores what
// it is given.
type fakeEngine struct {
	opTicks   int
	remaining int

	memory   map[signal.Location]signal.Burst
	corrupt  func(signal.Burst) signal.Burst
	timedOut bool

	decays []uint64
	writes []signal.Location
	last   signal.Burst
	resets int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		opTicks: 3,
		memory:  make(map[signal.Location]signal.Burst),
		corrupt: func(b signal.Burst) signal.Burst { return b },
	}
}

func (f *fakeEngine) StartWrite(loc signal.Location, data signal.Burst) {
	f.memory[loc] = data
	f.writes = append(f.writes, loc)
	f.remaining = f.opTicks
}

func (f *fakeEngine) StartRead(loc signal.Location) {
	f.last = f.corrupt(f.memory[loc])
	f.remaining = f.opTicks
}

func (f *fakeEngine) StartDecay(cycles uint64) {
	f.decays = append(f.decays, cycles)
	f.remaining = f.opTicks
}

func (f *fakeEngine) Tick(uint64) bool {
	if f.remaining == 0 {
		return false
	}

	f.remaining--

	return true
}

func (f *fakeEngine) Done() bool { return f.remaining == 0 }

func (f *fakeEngine) ReadResult() (signal.Burst, bool) {
	return f.last, f.timedOut
}

func (f *fakeEngine) Reset() {
	f.remaining = 0
	f.resets++
}

func (f *fakeEngine) NextWake() (uint64, bool) { return 0, false }

type fakeReporter struct {
	ticksPerRecord int
	remaining      int
	points         []TestPoint
	results        []TestResult
}

func (f *fakeReporter) Load(p TestPoint, r TestResult) {
	f.points = append(f.points, p)
	f.results = append(f.results, r)
	f.remaining = f.ticksPerRecord
}

func (f *fakeReporter) Tick() bool {
	if f.remaining == 0 {
		return false
	}

	f.remaining--

	return true
}

func (f *fakeReporter) Done() bool { return f.remaining == 0 }

func (f *fakeReporter) Reset() { f.remaining = 0 }

type outcomeRecorder struct {
	readies  int
	starts   []int
	outcomes []Outcome
	ends     []int
}

func (r *outcomeRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosReady:
		r.readies++
	case HookPosSweepStart:
		r.starts = append(r.starts, ctx.Item.(int))
	case HookPosPointDone:
		r.outcomes = append(r.outcomes, ctx.Item.(Outcome))
	case HookPosSweepEnd:
		r.ends = append(r.ends, ctx.Item.(int))
	}
}

var _ = Describe("Orchestrator", func() {
	var (
		initer   *fakeInit
		engine   *fakeEngine
		reporter *fakeReporter
		recorder *outcomeRecorder
		plan     Plan
		addrA    signal.Location
		addrB    signal.Location
		o        *Orchestrator
		now      uint64
	)

	build := func() {
		o = MakeBuilder().
			WithPlan(plan).
			WithInitializer(initer).
			WithEngine(engine).
			WithReporter(reporter).
			WithPattern(AddressHashPattern{Seed: 9}).
			WithAdditionalHooks(recorder).
			Build("Orchestrator")
	}

	tickUntil := func(cond func() bool) {
		for i := 0; i < 100000; i++ {
			if cond() {
				return
			}

			o.Tick(now)
			now++
		}

		Fail("condition never met")
	}

	press := func() {
		tickUntil(func() bool {
			return o.State() == StateReady || o.State() == StateAllDone
		})

		o.SetStart(false)
		o.Tick(now)
		now++
		o.SetStart(true)
	}

	BeforeEach(func() {
		initer = &fakeInit{need: 5}
		engine = newFakeEngine()
		reporter = &fakeReporter{ticksPerRecord: 4}
		recorder = &outcomeRecorder{}
		addrA = signal.Location{Bank: 1, Row: 2, Column: 3}
		addrB = signal.Location{Bank: 4, Row: 5, Column: 6}
		plan = Plan{
			Durations: []uint64{10, 20},
			Addresses: []signal.Location{addrA, addrB},
			Repeats:   3,
		}
		now = 0

		build()
	})

	It("should initialize and wait for a start edge", func() {
		tickUntil(func() bool { return o.State() == StateReady })

		Expect(initer.Done()).To(BeTrue())
		Expect(recorder.readies).To(Equal(1))

		for i := 0; i < 10; i++ {
			Expect(o.Tick(now)).To(BeFalse())
			now++
		}

		Expect(o.State()).To(Equal(StateReady))
		Expect(engine.writes).To(BeEmpty())
	})

	It("should visit every point once with repeats varying fastest", func() {
		press()
		tickUntil(func() bool { return o.State() == StateAllDone })

		type key struct {
			d, a, r int
		}

		var got []key
		for _, out := range recorder.outcomes {
			got = append(got, key{
				out.Point.DurationIndex,
				out.Point.AddressIndex,
				out.Point.RepeatIndex,
			})
		}

		var want []key
		for d := 0; d < 2; d++ {
			for a := 0; a < 2; a++ {
				for r := 0; r < 3; r++ {
					want = append(want, key{d, a, r})
				}
			}
		}

		Expect(got).To(Equal(want))
		Expect(engine.decays).To(Equal(
			[]uint64{10, 10, 10, 10, 10, 10, 20, 20, 20, 20, 20, 20}))
		Expect(recorder.starts).To(Equal([]int{12}))
		Expect(recorder.ends).To(Equal([]int{12}))
		Expect(reporter.points).To(HaveLen(12))
		Expect(reporter.points[3].Location).To(Equal(addrB))
	})

	It("should write the same pattern for every repeat of a point", func() {
		press()
		tickUntil(func() bool { return o.State() == StateAllDone })

		for _, out := range recorder.outcomes {
			want := AddressHashPattern{Seed: 9}.Pattern(out.Point)
			Expect(out.Result.Written).To(Equal(want))
		}

		Expect(recorder.outcomes[0].Result.Written).
			To(Equal(recorder.outcomes[2].Result.Written))
		Expect(recorder.outcomes[0].Result.Written).
			NotTo(Equal(recorder.outcomes[3].Result.Written))
	})

	It("should count the bits that survived", func() {
		engine.corrupt = func(b signal.Burst) signal.Burst {
			b[5] ^= 0x11
			return b
		}
		engine.timedOut = true

		press()
		tickUntil(func() bool { return o.State() == StateAllDone })

		for _, r := range reporter.results {
			Expect(r.MatchingBits).To(Equal(126))
			Expect(r.TotalBits).To(Equal(128))
			Expect(r.BitErrors()).To(Equal(2))
			Expect(r.Passed()).To(BeFalse())
			Expect(r.TimedOut).To(BeTrue())
		}
	})

	It("should not leave AllDone without a fresh start edge", func() {
		press()
		tickUntil(func() bool { return o.State() == StateAllDone })

		for i := 0; i < 100; i++ {
			o.Tick(now)
			now++
		}

		Expect(o.State()).To(Equal(StateAllDone))
		Expect(recorder.starts).To(HaveLen(1))

		press()
		o.Tick(now)

		Expect(o.State()).To(Equal(StateWrite))
		Expect(recorder.starts).To(HaveLen(2))
		done, total := o.Progress()
		Expect(done).To(Equal(0))
		Expect(total).To(Equal(12))
	})

	It("should rewind on reset", func() {
		press()
		tickUntil(func() bool { return len(recorder.outcomes) == 5 })

		o.Reset()

		Expect(o.State()).To(Equal(StateInit))
		Expect(initer.resets).To(Equal(1))
		Expect(engine.resets).To(Equal(1))

		tickUntil(func() bool { return o.State() == StateReady })
		press()
		tickUntil(func() bool { return o.State() == StateAllDone })

		Expect(recorder.readies).To(Equal(2))
		Expect(recorder.outcomes).To(HaveLen(5 + 12))
		Expect(recorder.outcomes[5].Point).To(Equal(recorder.outcomes[0].Point))
	})

	It("should sweep a log curve", func() {
		plan = Plan{
			Curve:     &DurationCurve{Base: 100, Decades: 2, Count: 3},
			Addresses: []signal.Location{addrA},
			Repeats:   1,
		}
		build()

		press()
		tickUntil(func() bool { return o.State() == StateAllDone })

		Expect(engine.decays).To(Equal([]uint64{100, 1000, 10000}))
	})

	It("should hand every outcome to the reporter", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		mock := NewMockRecordSink(mockCtrl)
		plan.Durations = []uint64{10}
		plan.Addresses = []signal.Location{addrA}
		plan.Repeats = 2
		reporter = nil

		o = MakeBuilder().
			WithPlan(plan).
			WithInitializer(initer).
			WithEngine(engine).
			WithReporter(mock).
			Build("Orchestrator")

		mock.EXPECT().Load(
			gomock.Cond(func(x any) bool { return x.(TestPoint).RepeatIndex == 0 }),
			gomock.Any())
		mock.EXPECT().Load(
			gomock.Cond(func(x any) bool { return x.(TestPoint).RepeatIndex == 1 }),
			gomock.Any())
		mock.EXPECT().Tick().Return(true).AnyTimes()
		mock.EXPECT().Done().Return(true).AnyTimes()

		press()
		tickUntil(func() bool { return o.State() == StateAllDone })

		mockCtrl.Finish()
	})

	It("should log progress", func() {
		buf := new(bytes.Buffer)
		o.AcceptHook(NewProgressLogger(log.New(buf, "", 0)))

		press()
		tickUntil(func() bool { return o.State() == StateAllDone })

		Expect(buf.String()).To(ContainSubstring("sweep started, 12 points"))
		Expect(buf.String()).To(ContainSubstring("point 12/12, decay 20, addr 10001406"))
		Expect(buf.String()).To(ContainSubstring("sweep finished, 12 points"))
	})
})

var _ = Describe("Plan", func() {
	It("should expand a single-setting curve to its base", func() {
		c := DurationCurve{Base: 42, Decades: 3, Count: 1}

		Expect(c.Durations()).To(Equal([]uint64{42}))
	})

	It("should count points", func() {
		p := Plan{
			Durations: []uint64{1, 2, 3},
			Addresses: make([]signal.Location, 4),
			Repeats:   5,
		}

		Expect(p.NumPoints()).To(Equal(60))
		Expect(p.Validate()).To(Succeed())
	})

	DescribeTable("should reject empty loops",
		func(p Plan) {
			Expect(errors.Is(p.Validate(), ErrInvalidPlan)).To(BeTrue())
		},
		Entry("no durations", Plan{
			Addresses: []signal.Location{{}},
			Repeats:   1,
		}),
		Entry("no addresses", Plan{
			Durations: []uint64{1},
			Repeats:   1,
		}),
		Entry("no repeats", Plan{
			Durations: []uint64{1},
			Addresses: []signal.Location{{}},
		}),
		Entry("empty curve", Plan{
			Curve:     &DurationCurve{Base: 1},
			Addresses: []signal.Location{{}},
			Repeats:   1,
		}),
		Entry("address outside the device", Plan{
			Durations: []uint64{1},
			Addresses: []signal.Location{{Bank: 8}},
			Repeats:   1,
		}),
	)
})
