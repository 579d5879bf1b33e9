// Package postgrestest starts a disposable postgres container holding the
// user list schema, for integration tests.
package postgrestest

import (
	"context"
	"testing"
	"time"

	"moviesearch/postgres"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

const (
	Image    = "docker.io/postgres:15.2-alpine"
	Database = "moviesearch"
	User     = "moviesearch"
	Password = "moviesearch"
)

// Start runs a container, connects to it and applies the migrations found in
// dir. The container is removed when the test ends.
func Start(t testing.TB, dir string) *gorm.DB {
	t.Helper()
	db := Connect(t)

	_, err := postgres.Migrate(db, dir, false)
	require.NoError(t, err, "failed to run migrations")
	return db
}

// Connect runs a container and connects without migrating.
func Connect(t testing.TB) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	cont, err := pgcontainer.RunContainer(ctx,
		testcontainers.WithImage(Image),
		pgcontainer.WithDatabase(Database),
		pgcontainer.WithUsername(User),
		pgcontainer.WithPassword(Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		require.NoError(t, cont.Terminate(ctx))
	})

	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "5432")
	require.NoError(t, err)

	db, err := postgres.NewConnection(postgres.Options{
		DBName:   Database,
		DBUser:   User,
		Password: Password,
		Host:     host,
		Port:     port.Port(),
		Silent:   true,
	})
	require.NoError(t, err, "failed to connect to postgres")
	return db
}
