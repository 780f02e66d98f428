// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authflow Contributors

//go:build integration

package store_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/authflow/authflow/internal/store"
)

var _ = Describe("PostgreSQL store", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("authflow_test"),
			postgres.WithUsername("authflow"),
			postgres.WithPassword("authflow"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	Describe("Connect", func() {
		It("returns a pool that answers pings", func() {
			pool, err := store.Connect(ctx, connStr)
			Expect(err).NotTo(HaveOccurred())
			defer pool.Close()

			Expect(store.Ping(ctx, pool, time.Second)).To(Succeed())
		})

		It("rejects an empty URL", func() {
			_, err := store.Connect(ctx, "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Migrator", func() {
		var (
			migrator *store.Migrator
			pool     *pgxpool.Pool
		)

		BeforeEach(func() {
			var err error
			migrator, err = store.NewMigrator(connStr)
			Expect(err).NotTo(HaveOccurred())
			pool, err = store.Connect(ctx, connStr)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(migrator.Down()).To(Succeed())
			Expect(migrator.Close()).To(Succeed())
			pool.Close()
		})

		It("applies and rolls back the full schema", func() {
			Expect(migrator.Up()).To(Succeed())

			status, err := migrator.Status()
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Dirty).To(BeFalse())
			Expect(status.Pending).To(BeEmpty())

			var exists bool
			err = pool.QueryRow(ctx, `SELECT to_regclass('public.users') IS NOT NULL`).Scan(&exists)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			latest := status.Version
			Expect(migrator.Steps(-1)).To(Succeed())
			version, _, err := migrator.Version()
			Expect(err).NotTo(HaveOccurred())
			Expect(version).To(Equal(latest - 1))

			Expect(migrator.Steps(1)).To(Succeed())
			version, _, err = migrator.Version()
			Expect(err).NotTo(HaveOccurred())
			Expect(version).To(Equal(latest))
		})

		It("rejects mixed-case emails at the schema level", func() {
			Expect(migrator.Up()).To(Succeed())

			_, err := pool.Exec(ctx,
				`INSERT INTO users (id, email, password_hash, name) VALUES ($1, $2, $3, $4)`,
				"01JTEST000000000000000000A", "Mixed@Example.com", "hash", "n")
			Expect(err).To(HaveOccurred())
		})
	})
})
