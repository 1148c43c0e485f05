package sqldriver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/parley/pkg/storage/sqldriver"
)

var _ = Describe("Dialect", func() {
	It("keeps question marks for SQLite", func() {
		q := "SELECT 1 FROM users WHERE user_id = ? AND created_at > ?"
		Expect(sqldriver.SQLite.Rebind(q)).To(Equal(q))
	})

	It("numbers placeholders for PostgreSQL", func() {
		Expect(sqldriver.Postgres.Rebind("INSERT INTO t (a, b) VALUES (?, ?)")).
			To(Equal("INSERT INTO t (a, b) VALUES ($1, $2)"))
	})
})
