// Package repository provides storage for generated app records.
package repository

import (
	"context"

	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/pwa"
)

// ErrPWANotFound is returned when a record does not exist or, for
// owner-scoped operations, is not owned by the given user.
var ErrPWANotFound = errors.NewStd("pwa record not found")

// PWARepository stores generated app records.
type PWARepository interface {
	// Create inserts rec, assigning ID and timestamps when unset.
	Create(ctx context.Context, rec *entities.PWARecord) error
	// Get returns a record by ID regardless of owner.
	Get(ctx context.Context, id string) (*entities.PWARecord, error)
	// ListByOwner returns the user's records, newest first.
	ListByOwner(ctx context.Context, userID string) ([]entities.PWARecord, error)
	// UpdateOwned applies the non-empty fields of patch to a record owned by
	// userID and returns the updated record.
	UpdateOwned(ctx context.Context, id, userID string, patch pwa.Config) (*entities.PWARecord, error)
	// DeleteOwned removes a record owned by userID and reports rows removed.
	DeleteOwned(ctx context.Context, id, userID string) (int64, error)
	CountByOwner(ctx context.Context, userID string) (int64, error)
}
