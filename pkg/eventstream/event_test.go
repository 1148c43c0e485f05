package eventstream_test

import (
	"encoding/json"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/entity"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/intent"
)

var _ = Describe("Event", func() {
	It("marshals UnderstandingEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		greet, err := intent.New(intent.Data{Type: intent.TypeIntent, Name: "greetings"})
		Expect(err).NotTo(HaveOccurred())

		event := eventstream.NewUnderstandingEvent("u1", "c1", "hello paris",
			[]*intent.Intent{greet},
			[]entity.Entity{entity.New("city", "paris", entity.TypeString)},
			eventstream.UnderstandingMeta{
				StartedAt:   now.Add(-20 * time.Millisecond),
				CompletedAt: now,
				DurationMs:  20,
				Locale:      "en",
			},
		)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKeyWithValue("event_type", eventstream.EventTypeUnderstandingComputed))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKeyWithValue("user_id", "u1"))
		Expect(got).To(HaveKeyWithValue("conversation_id", "c1"))
		Expect(got).To(HaveKey("intents"))
		Expect(got).To(HaveKey("entities"))
		Expect(got).To(HaveKey("meta"))
	})

	It("generates unique event ids", func() {
		a := eventstream.NewUnderstandingEvent("u1", "c1", "", nil, nil, eventstream.UnderstandingMeta{})
		b := eventstream.NewUnderstandingEvent("u1", "c1", "", nil, nil, eventstream.UnderstandingMeta{})
		Expect(strings.HasPrefix(a.EventID, "evt_")).To(BeTrue())
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeUnderstandingComputed).To(Equal("parley.understanding.computed"))
	})

	It("provides ErrNilEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilEvent).To(MatchError("nil understanding event"))
	})
})
