package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/logger"
)

func decodeJSON(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal(buf.Bytes(), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("New", func() {
	DescribeTable("writes records in every style",
		func(opts ...logger.Option) {
			var buf bytes.Buffer
			l := logger.New(append(opts, logger.WithWriter(&buf))...)
			l.Info("understanding computed", "user", "u1")

			Expect(buf.String()).To(ContainSubstring("understanding computed"))
			Expect(buf.String()).To(ContainSubstring("u1"))
		},
		Entry("text"),
		Entry("json", logger.WithJSON(true)),
		Entry("pretty", logger.WithPretty(true)),
	)

	DescribeTable("filters debug records unless enabled",
		func(debug bool, opts ...logger.Option) {
			var buf bytes.Buffer
			l := logger.New(append(opts, logger.WithWriter(&buf), logger.WithDebug(debug))...)
			l.Debug("classifier scores")

			if debug {
				Expect(buf.String()).To(ContainSubstring("classifier scores"))
			} else {
				Expect(buf.String()).To(BeEmpty())
			}
		},
		Entry("text, debug", true),
		Entry("text, info", false),
		Entry("pretty, debug", true, logger.WithPretty(true)),
		Entry("pretty, info", false, logger.WithPretty(true)),
	)

	It("encodes attributes as JSON fields", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
		l.Info("intents kept", "count", 2)

		parsed := decodeJSON(&buf)
		Expect(parsed).To(HaveKeyWithValue("msg", "intents kept"))
		Expect(parsed["count"]).To(BeNumerically("==", 2))
	})

	It("prefers JSON over pretty output", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithPretty(true))
		l.Info("both")

		Expect(decodeJSON(&buf)).To(HaveKeyWithValue("msg", "both"))
	})

	It("reports the source location when asked", func() {
		var buf bytes.Buffer
		l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true))
		l.Info("located")

		Expect(decodeJSON(&buf)).To(HaveKey(slog.SourceKey))
	})

	It("copies every record to each writer", func() {
		var buf1, buf2 bytes.Buffer
		l := logger.New(logger.WithWriters(&buf1, &buf2))
		l.Info("fan out")

		Expect(buf1.String()).To(ContainSubstring("fan out"))
		Expect(buf2.String()).To(ContainSubstring("fan out"))
	})
})

var _ = Describe("Nop and OrNop", func() {
	It("discards every level", func() {
		l := logger.Nop()
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
			Expect(l.Handler().Enabled(context.Background(), level)).To(BeFalse())
		}
		Expect(func() { l.With("user", "u1").WithGroup("nlu").Warn("ignored") }).NotTo(Panic())
	})

	It("keeps a given logger", func() {
		l := logger.New()
		Expect(logger.OrNop(l)).To(BeIdenticalTo(l))
	})

	It("falls back to a discarding logger", func() {
		l := logger.OrNop(nil)
		Expect(l.Handler().Enabled(context.Background(), slog.LevelError)).To(BeFalse())
	})
})

var _ = Describe("Multi", func() {
	var terminal, file bytes.Buffer

	BeforeEach(func() {
		terminal.Reset()
		file.Reset()
	})

	newMulti := func() *slog.Logger {
		return logger.Multi(
			logger.New(logger.WithWriter(&terminal), logger.WithPretty(true)),
			logger.New(logger.WithWriter(&file), logger.WithJSON(true), logger.WithDebug(true)),
		)
	}

	It("dispatches to every logger", func() {
		newMulti().Info("serving", "listen", ":8081")

		Expect(terminal.String()).To(ContainSubstring("serving"))
		Expect(decodeJSON(&file)).To(HaveKeyWithValue("listen", ":8081"))
	})

	It("honors the level of each logger", func() {
		newMulti().Debug("extractor entities")

		Expect(terminal.String()).To(BeEmpty())
		Expect(decodeJSON(&file)).To(HaveKeyWithValue("msg", "extractor entities"))
	})

	It("binds attributes with With", func() {
		newMulti().With("component", "brain").Info("user added")

		Expect(decodeJSON(&file)).To(HaveKeyWithValue("component", "brain"))
	})

	It("nests attributes with WithGroup", func() {
		newMulti().WithGroup("request").Info("understand", "status", 200)

		group, ok := decodeJSON(&file)["request"].(map[string]any)
		Expect(ok).To(BeTrue(), "expected 'request' group in JSON output")
		Expect(group["status"]).To(BeNumerically("==", 200))
	})
})
