package protocol

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TimingTable", func() {
	It("should accept the presets", func() {
		Expect(MakeTimingBuilder().Build().Validate()).To(Succeed())
		Expect(MakeRelaxedTimingBuilder().Build().Validate()).To(Succeed())
	})

	It("should reject a zero wait", func() {
		err := MakeTimingBuilder().WithTRCD(0).Build().Validate()

		Expect(errors.Is(err, ErrInvalidTiming)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("tRCD"))
	})

	It("should reject a burst length that does not divide the burst", func() {
		err := MakeTimingBuilder().WithBurstLength(3).Build().Validate()

		Expect(errors.Is(err, ErrInvalidTiming)).To(BeTrue())
	})

	It("should reject a refresh longer than its interval", func() {
		err := MakeTimingBuilder().WithTRFC(10).WithTREFI(10).Build().Validate()

		Expect(errors.Is(err, ErrInvalidTiming)).To(BeTrue())
	})

	It("should reject a mode register that does not exist", func() {
		err := MakeTimingBuilder().
			WithModeRegisters([]ModeRegisterSetting{{Register: 9}}).
			Build().
			Validate()

		Expect(errors.Is(err, ErrInvalidTiming)).To(BeTrue())
	})

	It("should not share mode registers between tables", func() {
		b := MakeTimingBuilder()
		t1 := b.Build()
		t1.ModeRegisters[0].Value = 0xFFFF

		Expect(b.Build().ModeRegisters[0].Value).To(Equal(uint32(0x0018)))
	})

	It("should compute the read timeout", func() {
		t := MakeTimingBuilder().WithTCL(11).WithTReadGrace(10).Build()

		Expect(t.ReadTimeout()).To(Equal(21))
	})

	It("should look up presets", func() {
		b, err := LookupPreset(PresetRelaxed)
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Build().TResetHold).To(Equal(20))

		_, err = LookupPreset("lpddr5")
		Expect(errors.Is(err, ErrUnknownPreset)).To(BeTrue())
	})
})
