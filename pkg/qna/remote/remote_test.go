package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/qna"
	"github.com/papercomputeco/parley/pkg/qna/remote"
)

var _ = Describe("Remote QnA matcher", func() {
	var (
		ctx     context.Context
		server  *httptest.Server
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		DeferCleanup(server.Close)
	})

	newMatcher := func() *remote.Matcher {
		m, err := remote.New(remote.Config{Endpoint: server.URL, AppID: "app", AppKey: "key"})
		Expect(err).NotTo(HaveOccurred())
		return m
	}

	Describe("New", func() {
		It("rejects missing credentials", func() {
			_, err := remote.New(remote.Config{Endpoint: "http://localhost:9000"})

			var configErr *remote.ConfigError
			Expect(errors.As(err, &configErr)).To(BeTrue())
			Expect(configErr.Fields).To(ConsistOf("AppID", "AppKey"))
		})

		It("rejects an invalid endpoint", func() {
			_, err := remote.New(remote.Config{Endpoint: "not a url", AppID: "a", AppKey: "k"})
			Expect(err).To(MatchError(ContainSubstring("Endpoint")))
		})
	})

	It("sends credentials and the sentence", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/classify"))
			Expect(r.Header.Get("App-Id")).To(Equal("app"))
			Expect(r.Header.Get("App-Key")).To(Equal("key"))

			var body map[string]string
			Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
			Expect(body["sentence"]).To(Equal("what are your hours?"))

			_, _ = w.Write([]byte(`[{"answer":"9 to 5","questions":["opening hours"]}]`))
		}

		qnas, err := newMatcher().GetMatchingQnas(ctx, "what are your hours?")
		Expect(err).NotTo(HaveOccurred())
		Expect(qnas).To(Equal([]qna.QnA{{Answer: "9 to 5", Questions: []string{"opening hours"}}}))
	})

	It("reports non-2xx answers as a StatusError", func() {
		handler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}

		_, err := newMatcher().GetMatchingQnas(ctx, "hello")

		var statusErr *qna.StatusError
		Expect(errors.As(err, &statusErr)).To(BeTrue())
		Expect(statusErr.StatusCode).To(Equal(http.StatusForbidden))
	})
})
