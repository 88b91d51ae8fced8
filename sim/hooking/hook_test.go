package hooking

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("HookableBase", func() {
	var (
		mockCtrl *gomock.Controller
		hookable *HookableBase
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		hookable = NewHookableBase()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should invoke hooks in registration order", func() {
		first := NewMockHook(mockCtrl)
		second := NewMockHook(mockCtrl)
		pos := &HookPos{Name: "Test"}
		ctx := HookCtx{Domain: hookable, Pos: pos, Item: 42}

		gomock.InOrder(
			first.EXPECT().Func(ctx),
			second.EXPECT().Func(ctx),
		)

		hookable.AcceptHook(first)
		hookable.AcceptHook(second)
		hookable.InvokeHook(ctx)

		Expect(hookable.NumHooks()).To(Equal(2))
	})

	It("should panic when the same hook is registered twice", func() {
		hook := NewMockHook(mockCtrl)
		hookable.AcceptHook(hook)

		Expect(func() { hookable.AcceptHook(hook) }).To(Panic())
	})
})

var _ = Describe("LogHookBase", func() {
	It("should write to the given logger", func() {
		buf := new(bytes.Buffer)
		base := NewLogHookBase(log.New(buf, "", 0))

		base.Printf("hello %d", 1)

		Expect(buf.String()).To(Equal("hello 1\n"))
	})

	It("should discard output without a logger", func() {
		base := NewLogHookBase(nil)

		Expect(func() { base.Printf("dropped") }).NotTo(Panic())
	})
})

var _ = Describe("HookPos", func() {
	It("should print its name", func() {
		Expect((&HookPos{Name: "PointDone"}).String()).To(Equal("PointDone"))

		var pos *HookPos
		Expect(pos.String()).To(Equal("<nil>"))
	})

	It("should fire nothing from a zero HookableBase", func() {
		var base HookableBase

		Expect(func() { base.InvokeHook(HookCtx{}) }).NotTo(Panic())
		Expect(base.NumHooks()).To(Equal(0))
	})
})
