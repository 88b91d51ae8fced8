package modeling

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/retention/sim/timing"
)

type sleepyTicker struct {
	ticks    []uint64
	tc       *TickingComponent
	deadline uint64
}

func (t *sleepyTicker) Tick() bool {
	now := t.tc.CurrentCycle()
	t.ticks = append(t.ticks, now)

	return false
}

func (t *sleepyTicker) NextWake() (uint64, bool) {
	if t.tc.CurrentCycle() >= t.deadline {
		return 0, false
	}

	return t.deadline, true
}

var _ = Describe("TickingComponent", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *timing.SerialEngine
		domain   *timing.FreqDomain
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = timing.NewSerialEngine()

		registry := timing.NewFrequencyRegistry()
		domain, _ = registry.RegisterFrequency(100 * timing.MHz)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should keep ticking while the ticker makes progress", func() {
		ticker := NewMockTicker(mockCtrl)
		tc := NewTickingComponent("TC", engine, domain, ticker)

		gomock.InOrder(
			ticker.EXPECT().Tick().Return(true),
			ticker.EXPECT().Tick().Return(true),
			ticker.EXPECT().Tick().Return(false),
		)

		tc.TickNow()
		Expect(engine.Run()).To(Succeed())
		Expect(tc.CurrentCycle()).To(Equal(uint64(2)))
	})

	It("should tick only once per time even if woken twice", func() {
		ticker := NewMockTicker(mockCtrl)
		tc := NewTickingComponent("TC", engine, domain, ticker)

		ticker.EXPECT().Tick().Return(false).Times(1)

		tc.TickNow()
		Expect(tc.Handle(timing.TickEvent{})).To(Succeed())
		Expect(engine.Run()).To(Succeed())
	})

	It("should sleep until the deadline of a sleeper", func() {
		ticker := &sleepyTicker{deadline: 50}
		tc := NewTickingComponent("TC", engine, domain, ticker)
		ticker.tc = tc

		tc.TickNow()
		Expect(engine.Run()).To(Succeed())
		Expect(ticker.ticks).To(Equal([]uint64{0, 50}))
	})

	It("should ignore events that are not ticks", func() {
		ticker := NewMockTicker(mockCtrl)
		tc := NewTickingComponent("TC", engine, domain, ticker)

		Expect(tc.Handle("not a tick")).To(Succeed())
	})
})
