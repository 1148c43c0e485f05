package computecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	computecmder "github.com/papercomputeco/parley/cmd/parley/compute"
)

var _ = Describe("ParseScript", func() {
	It("keeps one sentence per line", func() {
		Expect(computecmder.ParseScript("hello\nbook a flight\n")).To(Equal([]string{"hello", "book a flight"}))
	})

	It("skips blank lines and comments", func() {
		script := "# warm up\nhello\n\n   \n  # indented comment\n  bye  \n"
		Expect(computecmder.ParseScript(script)).To(Equal([]string{"hello", "bye"}))
	})

	It("returns nil for an empty script", func() {
		Expect(computecmder.ParseScript("")).To(BeNil())
	})
})

var _ = Describe("NewComputeCmd", func() {
	It("registers its flags", func() {
		cmd := computecmder.NewComputeCmd()
		for _, name := range []string{"user", "script", "reset", "json", "locale", "multi-intent", "brain", "sqlite", "threshold", "intents"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})
})
