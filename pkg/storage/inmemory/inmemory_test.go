package inmemory_test

import (
	"context"
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/storage"
	"github.com/papercomputeco/parley/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/parley/pkg/utils/test"
)

var _ = Describe("Driver", func() {
	testutils.ItBehavesLikeADriver(func() storage.Driver {
		return inmemory.NewDriver()
	})

	It("returns copies that callers cannot mutate", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()
		_, err := d.AddUser(ctx, testutils.NewTestUser("u1", time.Now()))
		Expect(err).NotTo(HaveOccurred())

		user, err := d.GetUser(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())
		user.Conversations[0].Values["_dialogs"] = json.RawMessage(`null`)
		user.Conversations = nil

		again, err := d.GetUser(ctx, "u1")
		Expect(err).NotTo(HaveOccurred())
		Expect(again.Conversations).To(HaveLen(1))
		Expect(again.Conversations[0].Values["_dialogs"]).To(MatchJSON(`{"stack":[],"previous":[]}`))
	})
})
