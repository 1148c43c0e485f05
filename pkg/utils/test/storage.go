package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/storage"
)

// NewTestUser builds a user with one conversation created at createdAt.
func NewTestUser(userID string, createdAt time.Time) *storage.User {
	return &storage.User{
		UserID:    userID,
		CreatedAt: createdAt,
		Conversations: []*storage.Conversation{{
			ID:        userID + "-c1",
			CreatedAt: createdAt,
			Values:    map[string]json.RawMessage{"_dialogs": json.RawMessage(`{"stack":[],"previous":[]}`)},
		}},
	}
}

// ItBehavesLikeADriver registers the specs every storage.Driver must pass.
// newDriver is called before each spec and must return an empty driver.
func ItBehavesLikeADriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		now    time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		driver = newDriver()
		Expect(driver.Init(ctx)).To(Succeed())
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("AddUser", func() {
		It("inserts a new user with its conversations", func() {
			created, err := driver.AddUser(ctx, NewTestUser("u1", now))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeTrue())

			user, err := driver.GetUser(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.UserID).To(Equal("u1"))
			Expect(user.CreatedAt).To(BeTemporally("==", now))
			Expect(user.Conversations).To(HaveLen(1))
			Expect(user.Conversations[0].ID).To(Equal("u1-c1"))
			Expect(user.Conversations[0].Values).To(HaveKeyWithValue("_dialogs", MatchJSON(`{"stack":[],"previous":[]}`)))
		})

		It("is a no-op for an existing user", func() {
			_, err := driver.AddUser(ctx, NewTestUser("u1", now))
			Expect(err).NotTo(HaveOccurred())

			other := NewTestUser("u1", now.Add(time.Hour))
			other.Conversations[0].ID = "other"
			created, err := driver.AddUser(ctx, other)
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(BeFalse())

			user, err := driver.GetUser(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Conversations).To(HaveLen(1))
			Expect(user.Conversations[0].ID).To(Equal("u1-c1"))
		})

		It("creates exactly one user under concurrent inserts", func() {
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				created int
			)
			for i := range 8 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()

					user := NewTestUser("u1", now)
					user.Conversations[0].ID = fmt.Sprintf("c%d", i)
					ok, err := driver.AddUser(ctx, user)
					Expect(err).NotTo(HaveOccurred())
					if ok {
						mu.Lock()
						created++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Expect(created).To(Equal(1))
			users, err := driver.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
			Expect(users[0].Conversations).To(HaveLen(1))
		})
	})

	Describe("HasUser and GetUser", func() {
		It("reports unknown users", func() {
			ok, err := driver.HasUser(ctx, "ghost")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())

			_, err = driver.GetUser(ctx, "ghost")
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal("ghost"))
		})

		It("finds known users", func() {
			_, err := driver.AddUser(ctx, NewTestUser("u1", now))
			Expect(err).NotTo(HaveOccurred())

			ok, err := driver.HasUser(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("ListUsers", func() {
		It("returns users oldest first", func() {
			_, err := driver.AddUser(ctx, NewTestUser("late", now.Add(time.Minute)))
			Expect(err).NotTo(HaveOccurred())
			_, err = driver.AddUser(ctx, NewTestUser("early", now))
			Expect(err).NotTo(HaveOccurred())

			users, err := driver.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(2))
			Expect(users[0].UserID).To(Equal("early"))
			Expect(users[1].UserID).To(Equal("late"))
		})
	})

	Describe("conversations", func() {
		BeforeEach(func() {
			_, err := driver.AddUser(ctx, NewTestUser("u1", now))
			Expect(err).NotTo(HaveOccurred())
		})

		It("appends conversations and returns the last one", func() {
			Expect(driver.AddConversation(ctx, "u1", &storage.Conversation{ID: "c2", CreatedAt: now.Add(time.Hour)})).To(Succeed())

			last, err := driver.LastConversation(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(last.ID).To(Equal("c2"))
			Expect(last.CreatedAt).To(BeTemporally("==", now.Add(time.Hour)))

			user, err := driver.GetUser(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Conversations).To(HaveLen(2))
			Expect(user.LastConversation().ID).To(Equal("c2"))
		})

		It("fails for unknown users", func() {
			err := driver.AddConversation(ctx, "ghost", &storage.Conversation{ID: "c2", CreatedAt: now})
			Expect(errors.As(err, new(storage.NotFoundError))).To(BeTrue())

			_, err = driver.LastConversation(ctx, "ghost")
			Expect(errors.As(err, new(storage.NotFoundError))).To(BeTrue())
		})

		It("sets values on the targeted conversation only", func() {
			Expect(driver.AddConversation(ctx, "u1", &storage.Conversation{ID: "c2", CreatedAt: now})).To(Succeed())
			Expect(driver.SetConversationValue(ctx, "u1", "u1-c1", "color", json.RawMessage(`"red"`))).To(Succeed())
			Expect(driver.SetConversationValue(ctx, "u1", "c2", "color", json.RawMessage(`"blue"`))).To(Succeed())
			Expect(driver.SetConversationValue(ctx, "u1", "c2", "color", json.RawMessage(`"green"`))).To(Succeed())

			user, err := driver.GetUser(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Conversations[0].Values["color"]).To(MatchJSON(`"red"`))
			Expect(user.Conversations[1].Values["color"]).To(MatchJSON(`"green"`))
		})

		It("rejects values for a conversation of another user", func() {
			_, err := driver.AddUser(ctx, NewTestUser("u2", now))
			Expect(err).NotTo(HaveOccurred())

			err = driver.SetConversationValue(ctx, "u2", "u1-c1", "color", json.RawMessage(`"red"`))
			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.Kind).To(Equal("conversation"))
		})
	})

	Describe("values", func() {
		It("sets user values", func() {
			_, err := driver.AddUser(ctx, NewTestUser("u1", now))
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.SetUserValue(ctx, "u1", "name", json.RawMessage(`"Ada"`))).To(Succeed())

			user, err := driver.GetUser(ctx, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Values["name"]).To(MatchJSON(`"Ada"`))
		})

		It("fails to set a value on an unknown user", func() {
			err := driver.SetUserValue(ctx, "ghost", "name", json.RawMessage(`"Ada"`))
			Expect(errors.As(err, new(storage.NotFoundError))).To(BeTrue())
		})

		It("gets and sets bot values", func() {
			value, err := driver.BotGet(ctx, "missing")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(BeNil())

			Expect(driver.BotSet(ctx, "greeting", json.RawMessage(`{"text":"hi"}`))).To(Succeed())
			Expect(driver.BotSet(ctx, "greeting", json.RawMessage(`{"text":"hello"}`))).To(Succeed())

			value, err = driver.BotGet(ctx, "greeting")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(MatchJSON(`{"text":"hello"}`))
		})
	})

	Describe("Clean", func() {
		It("drops everything", func() {
			_, err := driver.AddUser(ctx, NewTestUser("u1", now))
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.BotSet(ctx, "k", json.RawMessage(`1`))).To(Succeed())

			Expect(driver.Clean(ctx)).To(Succeed())

			users, err := driver.ListUsers(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(BeEmpty())

			value, err := driver.BotGet(ctx, "k")
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(BeNil())
		})
	})
}
