// Package records is the persistence adapter for generated app
// configurations. Writes and listings are scoped to the caller found in the
// request context; reads by ID are not, so an ID works as a shareable link.
package records

import (
	"context"

	"github.com/pwaspark/pwagen/internal/auth"
	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/datastore/repository"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/events"
	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/pwa"
)

// Observer is told the outcome of every record operation.
type Observer interface {
	RecordOperation(op, result string)
}

// Operation results reported to an Observer.
const (
	ResultOK          = "ok"
	ResultUnauth      = "unauthenticated"
	ResultNotFound    = "not_found"
	ResultStorageFail = "storage_error"
	ResultQuota       = "quota_exceeded"
)

// Service implements create/list/get/update/delete over a repository.
type Service struct {
	repo     repository.PWARepository
	events   events.Publisher
	observer Observer
	log      logger.Logger

	maxPerUser int
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher emits lifecycle events to p.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithObserver reports operation outcomes to o.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = l.Module("records") }
}

// WithMaxPerUser caps how many records one user may own. Zero or a
// negative limit means unlimited.
func WithMaxPerUser(n int) Option {
	return func(s *Service) { s.maxPerUser = n }
}

// NewService creates a Service over repo.
func NewService(repo repository.PWARepository, opts ...Option) *Service {
	s := &Service{repo: repo, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequireCaller reports an AuthenticationError for op when ctx carries no
// caller. Handlers call it before decoding a write so that anonymous
// requests are rejected regardless of their body.
func (s *Service) RequireCaller(ctx context.Context, op string) error {
	if _, ok := auth.UserFromContext(ctx); ok {
		return nil
	}
	s.observe(op, ResultUnauth)
	return &AuthenticationError{Op: op}
}

// Create stores cfg owned by the caller and returns the stored record.
func (s *Service) Create(ctx context.Context, cfg pwa.Config) (*entities.PWARecord, error) {
	const op = "create"
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		s.observe(op, ResultUnauth)
		return nil, &AuthenticationError{Op: op}
	}

	if s.maxPerUser > 0 {
		owned, err := s.repo.CountByOwner(ctx, user.ID)
		if err != nil {
			s.observe(op, ResultStorageFail)
			return nil, storageError(op, err)
		}
		if owned >= int64(s.maxPerUser) {
			s.observe(op, ResultQuota)
			return nil, &QuotaError{Limit: s.maxPerUser}
		}
	}

	rec := entities.NewPWARecord(user.ID, cfg)
	if err := s.repo.Create(ctx, rec); err != nil {
		s.observe(op, ResultStorageFail)
		s.log.Error("failed to store pwa record",
			logger.String("user_id", user.ID),
			logger.Error(err))
		return nil, storageError(op, err)
	}

	s.observe(op, ResultOK)
	s.log.Info("pwa record created",
		logger.String("id", rec.ID),
		logger.String("user_id", user.ID))
	s.publish(events.PWACreated, rec.ID, user.ID, rec.Clone())
	return rec, nil
}

// List returns the caller's records newest first. Anonymous callers get an
// empty list.
func (s *Service) List(ctx context.Context) ([]entities.PWARecord, error) {
	const op = "list"
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		s.observe(op, ResultUnauth)
		return []entities.PWARecord{}, nil
	}

	recs, err := s.repo.ListByOwner(ctx, user.ID)
	if err != nil {
		s.observe(op, ResultStorageFail)
		return nil, storageError(op, err)
	}
	s.observe(op, ResultOK)
	return recs, nil
}

// GetByID returns any record by ID regardless of owner, or (nil, nil) if it
// does not exist.
func (s *Service) GetByID(ctx context.Context, id string) (*entities.PWARecord, error) {
	const op = "get"
	rec, err := s.repo.Get(ctx, id)
	switch {
	case errors.Is(err, repository.ErrPWANotFound):
		s.observe(op, ResultNotFound)
		return nil, nil
	case err != nil:
		s.observe(op, ResultStorageFail)
		return nil, storageError(op, err)
	}
	s.observe(op, ResultOK)
	return rec, nil
}

// Update applies the non-empty fields of patch to a record the caller owns.
// It returns (nil, nil) when the record does not exist or belongs to
// someone else.
func (s *Service) Update(ctx context.Context, id string, patch pwa.Config) (*entities.PWARecord, error) {
	const op = "update"
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		s.observe(op, ResultUnauth)
		return nil, &AuthenticationError{Op: op}
	}

	rec, err := s.repo.UpdateOwned(ctx, id, user.ID, patch)
	switch {
	case errors.Is(err, repository.ErrPWANotFound):
		s.observe(op, ResultNotFound)
		return nil, nil
	case err != nil:
		s.observe(op, ResultStorageFail)
		return nil, storageError(op, err)
	}

	s.observe(op, ResultOK)
	s.publish(events.PWAUpdated, rec.ID, user.ID, rec.Clone())
	return rec, nil
}

// Delete removes a record the caller owns. It reports false, never an
// error, when nothing was removed: not found, not owned, anonymous or a
// storage failure.
func (s *Service) Delete(ctx context.Context, id string) bool {
	const op = "delete"
	user, ok := auth.UserFromContext(ctx)
	if !ok {
		s.observe(op, ResultUnauth)
		return false
	}

	n, err := s.repo.DeleteOwned(ctx, id, user.ID)
	if err != nil {
		s.observe(op, ResultStorageFail)
		s.log.Error("failed to delete pwa record",
			logger.String("id", id),
			logger.String("user_id", user.ID),
			logger.Error(err))
		return false
	}
	if n == 0 {
		s.observe(op, ResultNotFound)
		return false
	}

	s.observe(op, ResultOK)
	s.publish(events.PWADeleted, id, user.ID, nil)
	return true
}

func (s *Service) observe(op, result string) {
	if s.observer != nil {
		s.observer.RecordOperation(op, result)
	}
}

func (s *Service) publish(name, id, userID string, payload any) {
	if s.events == nil {
		return
	}
	s.events.Publish(&events.Event{
		Name:     name,
		RecordID: id,
		UserID:   userID,
		Payload:  payload,
	})
}
