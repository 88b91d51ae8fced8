package retention

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/retention/mem/dram/protocol"
	"github.com/sarchlab/retention/mem/dram/signal"
	"github.com/sarchlab/retention/retention/report"
	"github.com/sarchlab/retention/retention/sweep"
	"github.com/sarchlab/retention/retention/uart"
	"github.com/sarchlab/retention/sim/hooking"
	"github.com/sarchlab/retention/sim/timing"
)

type outcomeCollector struct {
	outcomes []sweep.Outcome
	ends     int
}

func (c *outcomeCollector) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case sweep.HookPosPointDone:
		c.outcomes = append(c.outcomes, ctx.Item.(sweep.Outcome))
	case sweep.HookPosSweepEnd:
		c.ends++
	}
}

func splitRecords(out string) []report.Record {
	var records []report.Record

	for _, line := range strings.SplitAfter(out, "\r\n") {
		if line == "" {
			continue
		}

		rec, err := report.Parse(line)
		Expect(err).NotTo(HaveOccurred(), line)

		records = append(records, rec)
	}

	return records
}

var _ = Describe("Rig", func() {
	var (
		out       *bytes.Buffer
		collector *outcomeCollector
		builder   Builder
		short     uint64
		long      uint64
	)

	BeforeEach(func() {
		out = new(bytes.Buffer)
		collector = &outcomeCollector{}

		// 1 us and 100 s at 800 MHz.
		short = 800
		long = 80_000_000_000

		builder = MakeBuilder().
			WithTiming(protocol.MakeRelaxedTimingBuilder().Build()).
			WithOutput(out).
			WithAdditionalHooks(collector)
	})

	It("should report an intact burst after a short wait", func() {
		rig, err := builder.
			WithPlan(sweep.Plan{
				Durations: []uint64{short},
				Addresses: []signal.Location{{Bank: 1, Row: 2, Column: 8}},
				Repeats:   2,
			}).
			Build("Rig")
		Expect(err).NotTo(HaveOccurred())

		rig.Start()
		Expect(rig.Run()).To(Succeed())

		records := splitRecords(out.String())
		Expect(records).To(HaveLen(2))
		Expect(out.Len()).To(Equal(2 * report.CompactLen))

		for i, rec := range records {
			Expect(rec.DecayCycles).To(Equal(short))
			Expect(rec.Location()).To(Equal(signal.Location{Bank: 1, Row: 2, Column: 8}))
			Expect(rec.RepeatIndex).To(Equal(i))
			Expect(rec.BitErrors).To(Equal(0))
			Expect(rec.Read).To(Equal(signal.FilledBurst(0xFF)))
		}

		Expect(out.String()).To(HavePrefix(
			"T0000000320,A04000808,M000,E00,DFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF\r\n"))
		Expect(rig.Device().Violations()).To(BeEmpty())
		Expect(rig.Orchestrator().State()).To(Equal(sweep.StateAllDone))
		Expect(collector.ends).To(Equal(1))
	})

	It("should lose every charged bit after a long wait", func() {
		rig, err := builder.
			WithPlan(sweep.Plan{
				Durations: []uint64{short, long},
				Addresses: []signal.Location{{Row: 4}, {Row: 5}},
				Repeats:   1,
			}).
			Build("Rig")
		Expect(err).NotTo(HaveOccurred())

		rig.Start()
		Expect(rig.Run()).To(Succeed())

		records := splitRecords(out.String())
		Expect(records).To(HaveLen(4))

		Expect(records[0].BitErrors).To(Equal(0))
		Expect(records[1].BitErrors).To(Equal(0))

		Expect(records[2].DecayCycles).To(Equal(long))
		Expect(records[2].BitErrors).To(Equal(signal.BurstBits))
		Expect(records[2].Read).To(Equal(signal.Burst{}))

		By("anti cells hold ones without charge")
		Expect(records[3].Location().Row).To(Equal(uint32(5)))
		Expect(records[3].BitErrors).To(Equal(0))

		Expect(rig.Device().Violations()).To(BeEmpty())
	})

	It("should report a timed out read instead of hanging", func() {
		rig, err := builder.
			WithUnresponsiveReads().
			WithLayout(report.LayoutVerbose).
			WithPlan(sweep.Plan{
				Durations: []uint64{short},
				Addresses: []signal.Location{{}},
				Repeats:   1,
			}).
			Build("Rig")
		Expect(err).NotTo(HaveOccurred())

		rig.Start()
		Expect(rig.Run()).To(Succeed())

		records := splitRecords(out.String())
		Expect(records).To(HaveLen(1))
		Expect(records[0].BitErrors).To(Equal(signal.BurstBits))
		Expect(records[0].Passed).To(BeFalse())
		Expect(records[0].Written).To(Equal(signal.FilledBurst(0xFF)))

		Expect(collector.outcomes).To(HaveLen(1))
		Expect(collector.outcomes[0].Result.TimedOut).To(BeTrue())
	})

	It("should refresh during decay when asked", func() {
		rig, err := builder.
			WithRefreshDuringDecay().
			WithPlan(sweep.Plan{
				Durations: []uint64{7800},
				Addresses: []signal.Location{{}},
				Repeats:   1,
			}).
			Build("Rig")
		Expect(err).NotTo(HaveOccurred())

		rig.Start()
		Expect(rig.Run()).To(Succeed())

		Expect(rig.Device().CommandCount(signal.CmdKindRefresh)).
			To(BeNumerically(">=", 9))
		Expect(rig.Device().Violations()).To(BeEmpty())
		Expect(splitRecords(out.String())).To(HaveLen(1))
	})

	It("should stop when nobody presses start", func() {
		rig, err := builder.Build("Rig")
		Expect(err).NotTo(HaveOccurred())

		Expect(rig.Run()).To(Succeed())

		Expect(rig.Device().Initialized()).To(BeTrue())
		Expect(rig.Orchestrator().State()).To(Equal(sweep.StateReady))
		Expect(out.Len()).To(BeZero())
	})

	It("should repeat the sweep after a reset", func() {
		rig, err := builder.
			WithPlan(sweep.Plan{
				Durations: []uint64{short},
				Addresses: []signal.Location{{Row: 8}, {Row: 9}},
				Repeats:   1,
			}).
			Build("Rig")
		Expect(err).NotTo(HaveOccurred())

		rig.Start()
		Expect(rig.Run()).To(Succeed())
		first := out.String()

		rig.Reset()
		rig.Start()
		Expect(rig.Run()).To(Succeed())

		Expect(out.String()).To(Equal(first + first))
		Expect(collector.ends).To(Equal(2))
		Expect(rig.Device().CommandCount(signal.CmdKindZQCalibrate)).To(Equal(2))
	})

	It("should keep the line idle high between bytes", func() {
		rig, err := builder.Build("Rig")
		Expect(err).NotTo(HaveOccurred())

		rig.Start()
		Expect(rig.Run()).To(Succeed())

		Expect(rig.Line().Level()).To(BeTrue())
		Expect(rig.Line().BytesSent()).To(Equal(uint64(report.CompactLen)))
		Expect(rig.Serializer().RecordsLoaded()).To(Equal(uint64(1)))
		Expect(rig.Now()).To(BeNumerically(">", timing.VTimeInSec(0.064)))
	})

	It("should reject a baud rate above the serial clock", func() {
		_, err := builder.
			WithSerialClock(9600 * timing.Hz).
			WithBaud(115200).
			Build("Rig")

		Expect(errors.Is(err, ErrInvalidRig)).To(BeTrue())
		Expect(errors.Is(err, uart.ErrBaudTooHigh)).To(BeTrue())
	})

	It("should reject an empty plan", func() {
		_, err := builder.WithPlan(sweep.Plan{Repeats: 1}).Build("Rig")

		Expect(errors.Is(err, ErrInvalidRig)).To(BeTrue())
		Expect(errors.Is(err, sweep.ErrInvalidPlan)).To(BeTrue())
	})

	It("should reject a decay too long for the record", func() {
		_, err := builder.WithPlan(sweep.Plan{
			Durations: []uint64{report.MaxDecayCycles, report.MaxDecayCycles + 5},
			Addresses: []signal.Location{{}},
			Repeats:   1,
		}).Build("Rig")

		Expect(errors.Is(err, ErrInvalidRig)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("decay"))
	})

	It("should reject a curve ending beyond the record", func() {
		_, err := builder.WithPlan(sweep.Plan{
			Curve:     &sweep.DurationCurve{Base: 1 << 30, Decades: 4, Count: 3},
			Addresses: []signal.Location{{}},
			Repeats:   1,
		}).Build("Rig")

		Expect(errors.Is(err, ErrInvalidRig)).To(BeTrue())
	})

	It("should reject more repeats than the record can number", func() {
		plan := sweep.Plan{
			Durations: []uint64{1000},
			Addresses: []signal.Location{{}},
			Repeats:   report.MaxRepeatIndex + 2,
		}

		_, err := builder.WithPlan(plan).Build("Rig")
		Expect(errors.Is(err, ErrInvalidRig)).To(BeTrue())

		plan.Repeats = report.MaxRepeatIndex + 1
		_, err = builder.WithPlan(plan).Build("Rig")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject an invalid timing table", func() {
		t := protocol.MakeRelaxedTimingBuilder().WithBurstLength(3).Build()
		_, err := builder.WithTiming(t).Build("Rig")

		Expect(errors.Is(err, protocol.ErrInvalidTiming)).To(BeTrue())
	})
})
