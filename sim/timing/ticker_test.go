package timing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("TickScheduler", func() {
	var (
		mockCtrl  *gomock.Controller
		engine    *MockEventScheduler
		handler   *MockHandler
		domain    *FreqDomain
		scheduler *TickScheduler
		now       VTimeInCycle
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEventScheduler(mockCtrl)
		handler = NewMockHandler(mockCtrl)

		registry := NewFrequencyRegistry()
		domain, _ = registry.RegisterFrequency(1 * GHz)
		_, _ = registry.RegisterFrequency(4 * GHz)

		now = 10
		engine.EXPECT().CurrentTime().DoAndReturn(func() VTimeInCycle {
			return now
		}).AnyTimes()

		scheduler = NewTickScheduler(handler, engine, domain)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should schedule the next tick of the domain", func() {
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e ScheduledEvent) {
			Expect(e.Time).To(Equal(VTimeInCycle(12)))
			Expect(e.Handler).To(BeIdenticalTo(handler))
			Expect(e.Event).To(BeAssignableToTypeOf(TickEvent{}))
		})

		scheduler.TickLater()
	})

	It("should align TickNow to the current tick", func() {
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e ScheduledEvent) {
			Expect(e.Time).To(Equal(VTimeInCycle(12)))
		})

		now = 9
		scheduler.TickNow()
	})

	It("should not schedule twice for the same tick", func() {
		engine.EXPECT().Schedule(gomock.Any()).Times(1)

		scheduler.TickLater()
		scheduler.TickLater()
	})

	It("should schedule a wake up at a local cycle", func() {
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e ScheduledEvent) {
			Expect(e.Time).To(Equal(VTimeInCycle(400)))
		})

		scheduler.TickAtCycle(100)
	})

	It("should not push a wake up behind an earlier pending tick", func() {
		engine.EXPECT().Schedule(gomock.Any()).Times(1)

		scheduler.TickLater()
		scheduler.TickAtCycle(100)
	})

	It("should pull a pending wake up earlier", func() {
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e ScheduledEvent) {
			Expect(e.Time).To(Equal(VTimeInCycle(400)))
		})
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e ScheduledEvent) {
			Expect(e.Time).To(Equal(VTimeInCycle(12)))
		})

		scheduler.TickAtCycle(100)
		scheduler.TickLater()
	})

	It("should treat a cycle in the past as the next tick", func() {
		engine.EXPECT().Schedule(gomock.Any()).Do(func(e ScheduledEvent) {
			Expect(e.Time).To(Equal(VTimeInCycle(12)))
		})

		scheduler.TickAtCycle(1)
	})

	It("should schedule again once the pending tick is handled", func() {
		engine.EXPECT().Schedule(gomock.Any()).Times(2)

		scheduler.TickLater()

		now = 12
		scheduler.TickHandled(now)
		scheduler.TickLater()
	})

	It("should report the local cycle", func() {
		now = 41
		Expect(scheduler.CurrentCycle()).To(Equal(uint64(10)))
	})
})
