package records

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwaspark/pwagen/internal/auth"
	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/datastore/repository"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/events"
	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/pwa"
)

var errDiskOnFire = errors.NewStd("disk on fire")

// brokenRepository fails every call.
type brokenRepository struct{}

func (brokenRepository) Create(context.Context, *entities.PWARecord) error { return errDiskOnFire }
func (brokenRepository) Get(context.Context, string) (*entities.PWARecord, error) {
	return nil, errDiskOnFire
}
func (brokenRepository) ListByOwner(context.Context, string) ([]entities.PWARecord, error) {
	return nil, errDiskOnFire
}
func (brokenRepository) UpdateOwned(context.Context, string, string, pwa.Config) (*entities.PWARecord, error) {
	return nil, errDiskOnFire
}
func (brokenRepository) DeleteOwned(context.Context, string, string) (int64, error) {
	return 0, errDiskOnFire
}
func (brokenRepository) CountByOwner(context.Context, string) (int64, error) {
	return 0, errDiskOnFire
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(e *events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *e)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) RecordOperation(op, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = map[string]int{}
	}
	o.counts[op+"/"+result]++
}

func as(t *testing.T, userID string) context.Context {
	t.Helper()
	return auth.WithUser(t.Context(), auth.User{ID: userID})
}

func newTestService(repo repository.PWARepository, opts ...Option) *Service {
	opts = append(opts, WithLogger(logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)))
	return NewService(repo, opts...)
}

func TestService_CreateRequiresCaller(t *testing.T) {
	t.Parallel()

	repo := repository.NewMemoryRepository()
	pub := &recordingPublisher{}
	svc := newTestService(repo, WithPublisher(pub))

	rec, err := svc.Create(t.Context(), pwa.DefaultConfig())
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.True(t, IsAuthentication(err))
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	n, err := repo.CountByOwner(t.Context(), "")
	require.NoError(t, err)
	assert.Zero(t, n, "no record may be stored")
	assert.Empty(t, pub.names())
}

func TestService_RequireCaller(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	svc := newTestService(repository.NewMemoryRepository(), WithObserver(obs))

	require.NoError(t, svc.RequireCaller(as(t, "alice"), "create"))

	err := svc.RequireCaller(t.Context(), "update")
	require.Error(t, err)
	assert.True(t, IsAuthentication(err))
	assert.Equal(t, 1, obs.counts["update/unauthenticated"])
}

func TestService_CreateAndGet(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	obs := &countingObserver{}
	svc := newTestService(repository.NewMemoryRepository(), WithPublisher(pub), WithObserver(obs))

	cfg := pwa.DefaultConfig()
	cfg.Name = "Shopping List"
	rec, err := svc.Create(as(t, "alice"), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "alice", rec.UserID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.False(t, rec.UpdatedAt.IsZero())

	// reads are unscoped: anyone holding the id, even anonymously, can fetch
	for _, ctx := range []context.Context{t.Context(), as(t, "bob")} {
		got, err := svc.GetByID(ctx, rec.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Shopping List", got.Name)
	}

	assert.Equal(t, []string{events.PWACreated}, pub.names())
	assert.Equal(t, 1, obs.counts["create/ok"])
	assert.Equal(t, 2, obs.counts["get/ok"])
}

func TestService_CreateRespectsMaxPerUser(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	svc := newTestService(repository.NewMemoryRepository(), WithMaxPerUser(2), WithObserver(obs))

	for range 2 {
		_, err := svc.Create(as(t, "alice"), pwa.DefaultConfig())
		require.NoError(t, err)
	}

	rec, err := svc.Create(as(t, "alice"), pwa.DefaultConfig())
	require.Error(t, err)
	assert.Nil(t, rec)
	assert.True(t, IsQuota(err))
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, 1, obs.counts["create/quota_exceeded"])

	// the limit is per owner
	_, err = svc.Create(as(t, "bob"), pwa.DefaultConfig())
	require.NoError(t, err)

	// freeing a slot allows another create
	recs, err := svc.List(as(t, "alice"))
	require.NoError(t, err)
	require.True(t, svc.Delete(as(t, "alice"), recs[0].ID))
	_, err = svc.Create(as(t, "alice"), pwa.DefaultConfig())
	require.NoError(t, err)
}

func TestService_CreateQuotaCountFailure(t *testing.T) {
	t.Parallel()

	svc := newTestService(brokenRepository{}, WithMaxPerUser(1))
	_, err := svc.Create(as(t, "alice"), pwa.DefaultConfig())
	require.Error(t, err)
	assert.True(t, IsStorage(err))
}

func TestService_GetByIDMissing(t *testing.T) {
	t.Parallel()

	svc := newTestService(repository.NewMemoryRepository())
	got, err := svc.GetByID(t.Context(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestService_List(t *testing.T) {
	t.Parallel()

	svc := newTestService(repository.NewMemoryRepository())
	for _, name := range []string{"one", "two"} {
		cfg := pwa.DefaultConfig()
		cfg.Name = name
		_, err := svc.Create(as(t, "alice"), cfg)
		require.NoError(t, err)
	}
	_, err := svc.Create(as(t, "bob"), pwa.DefaultConfig())
	require.NoError(t, err)

	recs, err := svc.List(as(t, "alice"))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "two", recs[0].Name, "newest first")

	anon, err := svc.List(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, anon)
	assert.Empty(t, anon)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	svc := newTestService(repository.NewMemoryRepository(), WithPublisher(pub))
	rec, err := svc.Create(as(t, "alice"), pwa.DefaultConfig())
	require.NoError(t, err)

	assert.False(t, svc.Delete(as(t, "mallory"), rec.ID), "foreign delete fails")
	assert.False(t, svc.Delete(t.Context(), rec.ID), "anonymous delete fails")
	got, err := svc.GetByID(t.Context(), rec.ID)
	require.NoError(t, err)
	require.NotNil(t, got, "row must survive")

	assert.True(t, svc.Delete(as(t, "alice"), rec.ID))
	assert.False(t, svc.Delete(as(t, "alice"), rec.ID), "second delete finds nothing")

	got, err = svc.GetByID(t.Context(), rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{events.PWACreated, events.PWADeleted}, pub.names())
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	svc := newTestService(repository.NewMemoryRepository(), WithPublisher(pub))
	rec, err := svc.Create(as(t, "alice"), pwa.DefaultConfig())
	require.NoError(t, err)

	_, err = svc.Update(t.Context(), rec.ID, pwa.Config{Name: "x"})
	assert.True(t, IsAuthentication(err))

	got, err := svc.Update(as(t, "mallory"), rec.ID, pwa.Config{Name: "x"})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Update(as(t, "alice"), rec.ID, pwa.Config{ShortName: "Short"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Short", got.ShortName)
	assert.Equal(t, "My Awesome PWA", got.Name)
	assert.Equal(t, []string{events.PWACreated, events.PWAUpdated}, pub.names())
}

func TestService_StorageFailures(t *testing.T) {
	t.Parallel()

	obs := &countingObserver{}
	svc := newTestService(brokenRepository{}, WithObserver(obs))
	ctx := as(t, "alice")

	_, err := svc.Create(ctx, pwa.DefaultConfig())
	require.Error(t, err)
	assert.True(t, IsStorage(err))
	assert.ErrorIs(t, err, errDiskOnFire)
	assert.Equal(t, errors.CategoryDatabase, errors.CategoryOf(err))

	_, err = svc.List(ctx)
	assert.True(t, IsStorage(err))

	_, err = svc.GetByID(ctx, "id")
	assert.True(t, IsStorage(err))

	_, err = svc.Update(ctx, "id", pwa.Config{Name: "x"})
	assert.True(t, IsStorage(err))

	assert.False(t, svc.Delete(ctx, "id"))
	assert.Equal(t, 1, obs.counts["delete/storage_error"])
}
