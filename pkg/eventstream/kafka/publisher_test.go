package kafka_test

import (
	"context"
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/eventstream/kafka"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		writer *fakeWriter
		p      *kafka.Publisher
	)

	BeforeEach(func() {
		writer = &fakeWriter{}
		p = kafka.NewPublisherWithWriter(writer)
	})

	It("requires brokers and a topic", func() {
		_, err := kafka.NewPublisher(kafka.Config{Topic: "t"})
		Expect(err).To(HaveOccurred())

		_, err = kafka.NewPublisher(kafka.Config{Brokers: []string{"localhost:9092"}})
		Expect(err).To(HaveOccurred())
	})

	It("rejects nil events", func() {
		Expect(p.PublishUnderstanding(context.Background(), nil)).To(MatchError(eventstream.ErrNilEvent))
	})

	It("writes the event as JSON keyed by user id", func() {
		event := eventstream.NewUnderstandingEvent("u1", "c1", "hello", nil, nil, eventstream.UnderstandingMeta{})
		Expect(p.PublishUnderstanding(context.Background(), event)).To(Succeed())

		Expect(writer.messages).To(HaveLen(1))
		msg := writer.messages[0]
		Expect(string(msg.Key)).To(Equal("u1"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeUnderstandingComputed)}))

		var decoded eventstream.UnderstandingEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.Sentence).To(Equal("hello"))
	})

	It("wraps write failures", func() {
		writer.err = errors.New("broker down")
		event := eventstream.NewUnderstandingEvent("u1", "c1", "hello", nil, nil, eventstream.UnderstandingMeta{})

		err := p.PublishUnderstanding(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})
})
