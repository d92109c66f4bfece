package records

import (
	"fmt"

	"github.com/pwaspark/pwagen/internal/errors"
)

// ErrNotAuthenticated is wrapped by AuthenticationError.
var ErrNotAuthenticated = errors.NewStd("no authenticated caller")

// AuthenticationError reports an operation that requires a caller but was
// invoked anonymously.
type AuthenticationError struct {
	Op string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, ErrNotAuthenticated)
}

func (e *AuthenticationError) Unwrap() error { return ErrNotAuthenticated }

// ErrQuotaExceeded is wrapped by QuotaError.
var ErrQuotaExceeded = errors.NewStd("record limit reached")

// QuotaError reports a create rejected because the caller already owns
// Limit records.
type QuotaError struct {
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("create: %v (limit %d)", ErrQuotaExceeded, e.Limit)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// IsQuota reports whether err is a QuotaError.
func IsQuota(err error) bool {
	var qe *QuotaError
	return errors.As(err, &qe)
}

// StorageError reports a failed or rejected call to the record store. It is
// safe to retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage failure: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsAuthentication reports whether err is an AuthenticationError.
func IsAuthentication(err error) bool {
	var ae *AuthenticationError
	return errors.As(err, &ae)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func storageError(op string, err error) error {
	return &StorageError{
		Op: op,
		Err: errors.New(err).
			Component("records").
			Category(errors.CategoryDatabase).
			Context("operation", op).
			Build(),
	}
}
