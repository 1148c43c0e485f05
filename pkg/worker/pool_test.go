package worker_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/metrics"
	"github.com/papercomputeco/parley/pkg/worker"
)

// recordingPublisher stores every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.UnderstandingEvent
	err    error

	// block, when set, holds every publication until closed.
	block chan struct{}
}

func (r *recordingPublisher) PublishUnderstanding(_ context.Context, event *eventstream.UnderstandingEvent) error {
	if r.block != nil {
		<-r.block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newEvent(userID string) *eventstream.UnderstandingEvent {
	return eventstream.NewUnderstandingEvent(userID, "c1", "hello", nil, nil, eventstream.UnderstandingMeta{})
}

var _ = Describe("Worker Pool", func() {
	var (
		publisher *recordingPublisher
		collector *metrics.Collector
	)

	BeforeEach(func() {
		publisher = &recordingPublisher{}
		collector = metrics.NewCollector("parley")
	})

	It("requires a publisher", func() {
		_, err := worker.NewPool(&worker.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("publishes every enqueued event before Close returns", func() {
		wp, err := worker.NewPool(&worker.Config{Publisher: publisher, Metrics: collector})
		Expect(err).NotTo(HaveOccurred())

		for range 10 {
			Expect(wp.Enqueue(worker.Job{Event: newEvent("u1")})).To(BeTrue())
		}
		wp.Close()

		Expect(publisher.count()).To(Equal(10))
		Expect(testutil.ToFloat64(collector.Events.WithLabelValues(metrics.EventPublished))).To(Equal(10.0))
	})

	It("drops jobs when the queue is full", func() {
		publisher.block = make(chan struct{})
		wp, err := worker.NewPool(&worker.Config{Publisher: publisher, NumWorkers: 1, QueueSize: 1, Metrics: collector})
		Expect(err).NotTo(HaveOccurred())

		// The first job is picked up by the worker and blocks, the second
		// fills the queue.
		Expect(wp.Enqueue(worker.Job{Event: newEvent("u1")})).To(BeTrue())
		Eventually(func() bool {
			return wp.Enqueue(worker.Job{Event: newEvent("u2")})
		}).Should(BeTrue())
		Expect(wp.Enqueue(worker.Job{Event: newEvent("u3")})).To(BeFalse())

		close(publisher.block)
		wp.Close()
		Expect(testutil.ToFloat64(collector.Events.WithLabelValues(metrics.EventDropped))).To(BeNumerically(">=", 1))
	})

	It("counts failed publications", func() {
		publisher.err = errors.New("broker down")
		wp, err := worker.NewPool(&worker.Config{Publisher: publisher, Metrics: collector})
		Expect(err).NotTo(HaveOccurred())

		Expect(wp.Enqueue(worker.Job{Event: newEvent("u1")})).To(BeTrue())
		wp.Close()

		Expect(testutil.ToFloat64(collector.Events.WithLabelValues(metrics.EventFailed))).To(Equal(1.0))
	})

	It("refuses jobs after Close", func() {
		wp, err := worker.NewPool(&worker.Config{Publisher: publisher})
		Expect(err).NotTo(HaveOccurred())
		wp.Close()
		wp.Close()

		Expect(wp.Enqueue(worker.Job{Event: newEvent("u1")})).To(BeFalse())
	})
})
