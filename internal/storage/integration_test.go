//go:build integration

package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util/slogx"
)

func setupPostgres(t *testing.T) *Store {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("olympiads"),
		postgres.WithUsername("bot"),
		postgres.WithPassword("bot"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable", "TimeZone=UTC")
	require.NoError(t, err)

	s, err := OpenPostgres(slogx.Discard(), dsn, Options{})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestPostgresScenario(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))
	u := createUser(t, s, 1, models.RoleStudent)
	o := createOlympiad(t, s, "Summer Math", "2025-06-01", "2025-06-30")

	active, err := s.ListActiveOlympiads(ctx, mustDate(t, "2025-06-15"))
	require.NoError(t, err)
	require.Len(t, active, 1)
	active, err = s.ListActiveOlympiads(ctx, mustDate(t, "2025-07-01"))
	require.NoError(t, err)
	assert.Empty(t, active)

	// Concurrent confirms must leave exactly one application behind.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = s.CreateApplication(ctx, u.ID, o.ID, time.Now())
		}()
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, errors.Is(err, ErrDuplicate), err)
	}
	assert.Equal(t, 1, ok)

	require.NoError(t, s.DeleteOlympiad(ctx, o.ID))
	require.NoError(t, s.DeleteUser(ctx, 1))
	assert.Equal(t, int64(0), count(t, s, &models.Application{}, "1 = 1"))
}
