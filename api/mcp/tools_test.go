package mcp

import (
	"context"
	"encoding/json"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/bot"
	"github.com/papercomputeco/parley/pkg/brain"
	"github.com/papercomputeco/parley/pkg/classifier"
	"github.com/papercomputeco/parley/pkg/intent"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/nlu"
	"github.com/papercomputeco/parley/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/parley/pkg/utils/test"
)

var _ = Describe("Tools", func() {
	var (
		ctx    context.Context
		cls    *testutils.MockClassifier
		server *Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		b := brain.New(inmemory.NewDriver(), brain.Config{})
		cls = testutils.NewMockClassifier(classifier.Prediction{Name: "greetings", Value: 0.9})
		n, err := nlu.New(nlu.Config{IntentThreshold: nlu.Threshold(0.5)}, nlu.Deps{Classifier: cls})
		Expect(err).NotTo(HaveOccurred())
		bt, err := bot.New(bot.Config{Brain: b, Nlu: n})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{Bot: bt, Brain: b, Logger: logger.Nop()})
		Expect(err).NotTo(HaveOccurred())
	})

	textOf := func(res *sdk.CallToolResult) string {
		Expect(res.Content).To(HaveLen(1))
		text, ok := res.Content[0].(*sdk.TextContent)
		Expect(ok).To(BeTrue())
		return text.Text
	}

	Describe("understand", func() {
		It("computes the understanding and mirrors it as JSON text", func() {
			res, out, err := server.handleUnderstand(ctx, nil, UnderstandInput{User: "u1", Sentence: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.User).To(Equal("u1"))
			Expect(out.Conversation).NotTo(BeEmpty())
			Expect(intent.Names(out.Intents)).To(Equal([]string{"greetings"}))

			var decoded UnderstandOutput
			Expect(json.Unmarshal([]byte(textOf(res)), &decoded)).To(Succeed())
			Expect(decoded.Conversation).To(Equal(out.Conversation))
		})

		It("requires a user", func() {
			res, _, err := server.handleUnderstand(ctx, nil, UnderstandInput{Sentence: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})

		It("reports classifier failures as tool errors", func() {
			cls.Fail = true
			res, _, err := server.handleUnderstand(ctx, nil, UnderstandInput{User: "u1", Sentence: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("mock classifier failure"))
		})
	})

	Describe("conversation", func() {
		It("reports an unknown user as a tool error", func() {
			res, _, err := server.handleConversation(ctx, nil, ConversationInput{User: "ghost"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
			Expect(textOf(res)).To(ContainSubstring("user not found"))
		})

		It("describes the valid conversation and its last understanding", func() {
			_, first, err := server.handleUnderstand(ctx, nil, UnderstandInput{User: "u1", Sentence: "hello"})
			Expect(err).NotTo(HaveOccurred())

			res, out, err := server.handleConversation(ctx, nil, ConversationInput{User: "u1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Conversation).To(Equal(first.Conversation))
			Expect(out.Valid).To(BeTrue())
			Expect(out.ConversationCount).To(Equal(1))
			Expect(intent.Names(out.LastIntents)).To(Equal([]string{"greetings"}))
		})
	})
})
