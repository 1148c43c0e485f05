package remote_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/classifier/remote"
	"github.com/papercomputeco/parley/pkg/entity"
)

var _ = Describe("Remote classifier", func() {
	var (
		ctx     context.Context
		server  *httptest.Server
		calls   atomic.Int32
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		ctx = context.Background()
		calls.Store(0)
		handler = nil
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				w.WriteHeader(http.StatusOK)
				return
			}
			calls.Add(1)
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	newClassifier := func() *remote.Classifier {
		c, err := remote.New(remote.Config{
			Target:         server.URL,
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
		})
		Expect(err).NotTo(HaveOccurred())
		return c
	}

	It("requires a target", func() {
		_, err := remote.New(remote.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("checks the health endpoint on Init", func() {
		Expect(newClassifier().Init(ctx)).To(Succeed())
	})

	It("sends the sentence and entities and ranks the answer", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/classify"))

			var body struct {
				Sentence string          `json:"sentence"`
				Entities []entity.Entity `json:"entities"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body.Sentence).To(Equal("fly to paris"))
			Expect(body.Entities).To(HaveLen(1))
			Expect(body.Entities[0].Dim).To(Equal("city"))

			_, _ = w.Write([]byte(`[{"name":"weather","value":0.2},{"name":"travel","value":0.9}]`))
		}

		predictions, err := newClassifier().Compute(ctx, "fly to paris", []entity.Entity{entity.New("city", "paris", entity.TypeString)})
		Expect(err).NotTo(HaveOccurred())
		Expect(predictions).To(HaveLen(2))
		Expect(predictions[0].Name).To(Equal("travel"))
		Expect(predictions[1].Name).To(Equal("weather"))
	})

	It("retries server errors", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			if calls.Load() < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`[{"name":"travel","value":0.9}]`))
		}

		predictions, err := newClassifier().Compute(ctx, "fly", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(predictions).To(HaveLen(1))
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("gives up after the maximum number of attempts", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}

		_, err := newClassifier().Compute(ctx, "fly", nil)
		var statusErr *remote.StatusError
		Expect(err).To(BeAssignableToTypeOf(statusErr))
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("does not retry client errors", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte("bad sentence"))
		}

		_, err := newClassifier().Compute(ctx, "fly", nil)
		Expect(err).To(MatchError(ContainSubstring("status 400")))
		Expect(calls.Load()).To(Equal(int32(1)))
	})
})
