package intent_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/intent"
)

var _ = Describe("Intent", func() {
	Describe("New", func() {
		It("defaults the name of a QnA intent to qnas", func() {
			i, err := intent.New(intent.Data{Type: intent.TypeQnA})
			Expect(err).NotTo(HaveOccurred())
			Expect(i.Name).To(Equal("qnas"))
			Expect(i.IsQnA()).To(BeTrue())
		})

		It("defaults the name of a classifier intent to its label", func() {
			i, err := intent.New(intent.Data{Type: intent.TypeIntent, Label: "greet"})
			Expect(err).NotTo(HaveOccurred())
			Expect(i.Name).To(Equal("greet"))
			Expect(i.Label).To(Equal("greet"))
			Expect(i.IsQnA()).To(BeFalse())
		})

		It("keeps an explicit name over the label", func() {
			i, err := intent.New(intent.Data{Type: intent.TypeIntent, Name: "hello", Label: "greet"})
			Expect(err).NotTo(HaveOccurred())
			Expect(i.Name).To(Equal("hello"))
		})

		It("fails without a type", func() {
			_, err := intent.New(intent.Data{})
			Expect(err).To(HaveOccurred())

			var sdkErr *intent.SdkError
			Expect(err).To(BeAssignableToTypeOf(sdkErr))
		})

		It("fails for a classifier intent without name or label", func() {
			_, err := intent.New(intent.Data{Type: intent.TypeIntent})
			Expect(err).To(MatchError(ContainSubstring("label or name")))
		})

		It("attaches answers only to QnA intents", func() {
			answers := [][]intent.Answer{{{Value: "42"}}}

			qna, err := intent.New(intent.Data{Type: intent.TypeQnA, Answers: answers})
			Expect(err).NotTo(HaveOccurred())
			Expect(qna.Answers).To(Equal(answers))

			cls, err := intent.New(intent.Data{Type: intent.TypeIntent, Name: "greet", Answers: answers})
			Expect(err).NotTo(HaveOccurred())
			Expect(cls.Answers).To(BeNil())
		})

		It("keeps the resolve prompt", func() {
			i, err := intent.New(intent.Data{Type: intent.TypeIntent, Name: "buy", ResolvePrompt: "Do you want to buy?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(i.ResolvePrompt).To(Equal("Do you want to buy?"))
		})
	})

	Describe("Names", func() {
		It("returns names in order", func() {
			a, _ := intent.New(intent.Data{Type: intent.TypeIntent, Name: "a"})
			b, _ := intent.New(intent.Data{Type: intent.TypeIntent, Name: "b"})
			Expect(intent.Names([]*intent.Intent{a, b})).To(Equal([]string{"a", "b"}))
		})
	})
})
