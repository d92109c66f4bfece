//go:build integration

package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwaspark/pwagen/internal/auth"
	"github.com/pwaspark/pwagen/internal/datastore"
	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/datastore/repository"
	"github.com/pwaspark/pwagen/internal/pwa"
	"github.com/pwaspark/pwagen/internal/records"
	"github.com/pwaspark/pwagen/internal/testutil/containers"
)

var mysqlContainer *containers.MySQLContainer

func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	mysqlContainer, err = containers.NewMySQLContainer(ctx, nil)
	if err != nil {
		panic("failed to create MySQL container: " + err.Error())
	}

	code := m.Run()

	if err := mysqlContainer.Terminate(context.Background()); err != nil {
		panic("failed to terminate MySQL container: " + err.Error())
	}
	os.Exit(code)
}

// setupMySQLManager opens a Manager on the shared container with a migrated,
// empty pwa_records table.
func setupMySQLManager(t *testing.T) *datastore.Manager {
	t.Helper()

	mgr, err := datastore.NewMySQLManager(datastore.MySQLConfig{DSN: mysqlContainer.DSN()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	require.NoError(t, mgr.Initialize())
	require.NoError(t, mysqlContainer.Reset(t.Context(), "pwa_records"))
	return mgr
}

func TestMySQL_RecordLifecycle(t *testing.T) {
	mgr := setupMySQLManager(t)
	repo := mgr.PWARepository()
	ctx := t.Context()

	require.NoError(t, mgr.Ping(ctx))
	assert.Equal(t, "mysql", mgr.Dialect())

	cfg := pwa.DefaultConfig()
	cfg.Name = "Field Notes"
	cfg.Icons = pwa.StandardIcons("/icon.png", "image/png")
	rec := entities.NewPWARecord("alice", cfg)
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Field Notes", got.Name)
	assert.Len(t, got.Icons, 10)
	assert.Equal(t, time.UTC, got.CreatedAt.Location())

	updated, err := repo.UpdateOwned(ctx, rec.ID, "alice", pwa.Config{ThemeColor: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, "#000000", updated.ThemeColor)
	assert.Equal(t, "Field Notes", updated.Name)

	_, err = repo.UpdateOwned(ctx, rec.ID, "bob", pwa.Config{Name: "Stolen"})
	require.ErrorIs(t, err, repository.ErrPWANotFound)

	n, err := repo.DeleteOwned(ctx, rec.ID, "bob")
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteOwned(ctx, rec.ID, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.Get(ctx, rec.ID)
	require.ErrorIs(t, err, repository.ErrPWANotFound)
}

func TestMySQL_ListNewestFirst(t *testing.T) {
	mgr := setupMySQLManager(t)
	repo := mgr.PWARepository()
	ctx := t.Context()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, name := range []string{"first", "second", "third"} {
		cfg := pwa.DefaultConfig()
		cfg.Name = name
		rec := entities.NewPWARecord("alice", cfg)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, rec))
	}
	require.NoError(t, repo.Create(ctx, entities.NewPWARecord("bob", pwa.DefaultConfig())))

	recs, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "third", recs[0].Name)
	assert.Equal(t, "first", recs[2].Name)

	count, err := repo.CountByOwner(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMySQL_ListKeepsSubMillisecondOrder(t *testing.T) {
	mgr := setupMySQLManager(t)
	repo := mgr.PWARepository()
	ctx := t.Context()

	// all rows share one millisecond and differ only in microseconds
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	names := []string{"a", "b", "c", "d", "e"}
	for i, name := range names {
		cfg := pwa.DefaultConfig()
		cfg.Name = name
		rec := entities.NewPWARecord("alice", cfg)
		rec.CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
		require.NoError(t, repo.Create(ctx, rec))
	}

	recs, err := repo.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, recs, len(names))
	for i, rec := range recs {
		assert.Equal(t, names[len(names)-1-i], rec.Name)
	}
	assert.Equal(t, base.Add(4*time.Microsecond), recs[0].CreatedAt.UTC())
}

func TestMySQL_ServiceScopesToCaller(t *testing.T) {
	mgr := setupMySQLManager(t)
	svc := records.NewService(mgr.PWARepository())

	alice := auth.WithUser(t.Context(), auth.User{ID: "alice"})
	bob := auth.WithUser(t.Context(), auth.User{ID: "bob"})

	rec, err := svc.Create(alice, pwa.DefaultConfig())
	require.NoError(t, err)

	shared, err := svc.GetByID(bob, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, shared)

	assert.False(t, svc.Delete(bob, rec.ID))
	assert.True(t, svc.Delete(alice, rec.ID))
}
