package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pwaspark/pwagen/internal/datastore/entities"
	"github.com/pwaspark/pwagen/internal/errors"
	"github.com/pwaspark/pwagen/internal/pwa"
)

// pwaRepository implements PWARepository on GORM.
type pwaRepository struct {
	db *gorm.DB
}

// NewPWARepository creates a GORM-backed PWARepository.
func NewPWARepository(db *gorm.DB) PWARepository {
	return &pwaRepository{db: db}
}

func (r *pwaRepository) Create(ctx context.Context, rec *entities.PWARecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create pwa record: %w", err)
	}
	return nil
}

// Get returns ErrPWANotFound if the record does not exist.
func (r *pwaRepository) Get(ctx context.Context, id string) (*entities.PWARecord, error) {
	var rec entities.PWARecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPWANotFound
		}
		return nil, fmt.Errorf("failed to get pwa record %s: %w", id, err)
	}
	return &rec, nil
}

func (r *pwaRepository) ListByOwner(ctx context.Context, userID string) ([]entities.PWARecord, error) {
	recs := []entities.PWARecord{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pwa records: %w", err)
	}
	return recs, nil
}

// UpdateOwned returns ErrPWANotFound when no record matches both id and owner.
func (r *pwaRepository) UpdateOwned(ctx context.Context, id, userID string, patch pwa.Config) (*entities.PWARecord, error) {
	var rec entities.PWARecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPWANotFound
			}
			return fmt.Errorf("failed to load pwa record %s: %w", id, err)
		}
		rec.ApplyPatch(patch)
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to update pwa record %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *pwaRepository) DeleteOwned(ctx context.Context, id, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&entities.PWARecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete pwa record %s: %w", id, result.Error)
	}
	return result.RowsAffected, nil
}

func (r *pwaRepository) CountByOwner(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.PWARecord{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count pwa records: %w", err)
	}
	return count, nil
}
