package bot_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/parley/pkg/bot"
	"github.com/papercomputeco/parley/pkg/brain"
	"github.com/papercomputeco/parley/pkg/classifier"
	"github.com/papercomputeco/parley/pkg/entity"
	"github.com/papercomputeco/parley/pkg/intent"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/nlu"
	"github.com/papercomputeco/parley/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/parley/pkg/utils/test"
	"github.com/papercomputeco/parley/pkg/worker"
)

var _ = Describe("Bot", func() {
	var (
		ctx       context.Context
		b         *brain.Brain
		cls       *testutils.MockClassifier
		publisher *testutils.MockPublisher
		pool      *worker.Pool
		collector *metrics.Collector
		subject   *bot.Bot
	)

	BeforeEach(func() {
		ctx = context.Background()
		collector = metrics.NewCollector("parley")
		b = brain.New(inmemory.NewDriver(), brain.Config{}, brain.WithMetrics(collector))

		cls = testutils.NewMockClassifier(classifier.Prediction{Name: "greetings", Value: 0.9})
		n, err := nlu.New(nlu.Config{IntentThreshold: nlu.Threshold(0.5)}, nlu.Deps{
			Extractor:  testutils.NewMockExtractor(entity.New("city", "paris", entity.TypeString)),
			Classifier: cls,
		})
		Expect(err).NotTo(HaveOccurred())

		publisher = testutils.NewMockPublisher()
		pool, err = worker.NewPool(&worker.Config{Publisher: publisher, Metrics: collector})
		Expect(err).NotTo(HaveOccurred())

		subject, err = bot.New(bot.Config{Brain: b, Nlu: n, Events: pool, Metrics: collector, Locale: "en"})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		pool.Close()
	})

	It("requires a brain and an nlu", func() {
		_, err := bot.New(bot.Config{})
		Expect(err).To(HaveOccurred())
	})

	Describe("Respond", func() {
		It("initializes the user and answers with the understanding", func() {
			resp, err := subject.Respond(ctx, bot.UserMessage{UserID: "u1", Sentence: "hello"})
			Expect(err).NotTo(HaveOccurred())
			Expect(intent.Names(resp.Result.Intents)).To(Equal([]string{"greetings"}))
			Expect(resp.ConversationID).NotTo(BeEmpty())

			user, err := b.GetUser(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Conversations).To(HaveLen(1))
			Expect(user.Conversations[0].ID).To(Equal(resp.ConversationID))
			Expect(testutil.ToFloat64(collector.UsersCreated)).To(Equal(1.0))
		})

		It("stores the understanding in the conversation", func() {
			_, err := subject.Respond(ctx, bot.UserMessage{UserID: "u1", Sentence: "hello"})
			Expect(err).NotTo(HaveOccurred())

			last, err := subject.LastUnderstanding(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(intent.Names(last.Intents)).To(Equal([]string{"greetings"}))
			Expect(last.Entities).To(HaveLen(1))
			Expect(last.Entities[0].Dim).To(Equal("city"))
		})

		It("publishes an understanding event", func() {
			resp, err := subject.Respond(ctx, bot.UserMessage{UserID: "u1", Sentence: "hello"})
			Expect(err).NotTo(HaveOccurred())
			pool.Close()

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].UserID).To(Equal("u1"))
			Expect(events[0].ConversationID).To(Equal(resp.ConversationID))
			Expect(events[0].Meta.Locale).To(Equal("en"))
			Expect(testutil.ToFloat64(collector.Understandings.WithLabelValues(metrics.OutcomeIntent))).To(Equal(1.0))
		})

		It("aborts on nlu errors without storing or publishing", func() {
			cls.Fail = true

			_, err := subject.Respond(ctx, bot.UserMessage{UserID: "u1", Sentence: "hello"})
			Expect(err).To(MatchError(testutils.ErrMockClassifier))
			pool.Close()

			Expect(publisher.Events()).To(BeEmpty())
			last, err := subject.LastUnderstanding(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(BeNil())
			Expect(testutil.ToFloat64(collector.Understandings.WithLabelValues(metrics.OutcomeError))).To(Equal(1.0))
		})

		It("requires a user id", func() {
			_, err := subject.Respond(ctx, bot.UserMessage{Sentence: "hello"})
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Play", func() {
		It("replays a script in one conversation", func() {
			responses, err := subject.Play(ctx, "u1", []string{"hello", "hi", "hey"})
			Expect(err).NotTo(HaveOccurred())
			Expect(responses).To(HaveLen(3))
			Expect(responses[1].ConversationID).To(Equal(responses[0].ConversationID))
			Expect(responses[2].Sentence).To(Equal("hey"))
		})

		It("stops at the first failing turn", func() {
			cls.Fail = true
			responses, err := subject.Play(ctx, "u1", []string{"hello", "hi"})
			Expect(err).To(MatchError(ContainSubstring("turn 1")))
			Expect(responses).To(BeEmpty())
		})
	})

	Describe("Outcome", func() {
		It("classifies results", func() {
			qnaIntent, err := intent.New(intent.Data{Type: intent.TypeQnA})
			Expect(err).NotTo(HaveOccurred())

			Expect(bot.Outcome(nil)).To(Equal(metrics.OutcomeNone))
			Expect(bot.Outcome(&nlu.Result{})).To(Equal(metrics.OutcomeNone))
			Expect(bot.Outcome(&nlu.Result{Intents: []*intent.Intent{qnaIntent}})).To(Equal(metrics.OutcomeQnA))
		})
	})

	It("opens a new conversation once the previous one expired", func() {
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		shortBrain := brain.New(inmemory.NewDriver(), brain.Config{ConversationDuration: time.Minute}, brain.WithClock(clock))
		n, err := nlu.New(nlu.Config{IntentThreshold: nlu.Threshold(0.5)}, nlu.Deps{Classifier: cls})
		Expect(err).NotTo(HaveOccurred())
		short, err := bot.New(bot.Config{Brain: shortBrain, Nlu: n})
		Expect(err).NotTo(HaveOccurred())

		first, err := short.Respond(ctx, bot.UserMessage{UserID: "u1", Sentence: "hello"})
		Expect(err).NotTo(HaveOccurred())

		now = now.Add(time.Minute)
		second, err := short.Respond(ctx, bot.UserMessage{UserID: "u1", Sentence: "hello"})
		Expect(err).NotTo(HaveOccurred())
		Expect(second.ConversationID).NotTo(Equal(first.ConversationID))
	})

	It("reports the conversation holding the result when it expires mid-turn", func() {
		now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		shortBrain := brain.New(inmemory.NewDriver(), brain.Config{ConversationDuration: time.Minute}, brain.WithClock(clock))
		n, err := nlu.New(nlu.Config{IntentThreshold: nlu.Threshold(0.5)}, nlu.Deps{Classifier: cls})
		Expect(err).NotTo(HaveOccurred())
		slow := &expiringUnderstander{inner: n, expire: func() { now = now.Add(time.Minute) }}
		short, err := bot.New(bot.Config{Brain: shortBrain, Nlu: slow, Events: pool})
		Expect(err).NotTo(HaveOccurred())

		resp, err := short.Respond(ctx, bot.UserMessage{UserID: "u1", Sentence: "hello"})
		Expect(err).NotTo(HaveOccurred())

		user, err := shortBrain.GetUser(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(user.Conversations).To(HaveLen(2))

		holder := user.Conversations[1]
		Expect(holder.Values).To(HaveKey(bot.LastUnderstandingKey))
		Expect(resp.ConversationID).To(Equal(holder.ID))

		pool.Close()
		events := publisher.Events()
		Expect(events).To(HaveLen(1))
		Expect(events[0].ConversationID).To(Equal(holder.ID))
	})
})

// expiringUnderstander lets the conversation expire while computing.
type expiringUnderstander struct {
	inner  bot.Understander
	expire func()
}

func (u *expiringUnderstander) Compute(ctx context.Context, sentence string, nctx *nlu.Context) (*nlu.Result, error) {
	u.expire()
	return u.inner.Compute(ctx, sentence, nctx)
}
