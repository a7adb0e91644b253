package database

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chengdumed/internal/domain"
	"chengdumed/internal/metrics"
	apperrors "chengdumed/pkg/errors"
)

// InquiryStore persists inquiries and their export outbox entries
type InquiryStore struct {
	db *gorm.DB
}

// NewInquiryStore creates a new inquiry store
func NewInquiryStore(db *gorm.DB) *InquiryStore {
	return &InquiryStore{db: db}
}

// Initialize creates the inquiry and outbox tables if they are missing.
// Safe to call on every start.
func (s *InquiryStore) Initialize(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&domain.Inquiry{}, &domain.InquiryExport{}); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStorage, "failed to migrate database", err)
	}
	return nil
}

// Insert stores a new inquiry together with its pending export entry and
// returns it with the assigned ID and creation time.
func (s *InquiryStore) Insert(ctx context.Context, fields domain.InquiryFields) (*domain.Inquiry, error) {
	inquiry := domain.NewInquiry(fields)

	start := time.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(inquiry).Error; err != nil {
			return err
		}
		task := &domain.InquiryExport{InquiryID: inquiry.ID}
		return tx.Omit(clause.Associations).Create(task).Error
	})
	metrics.RecordDBQuery("insert_inquiry", time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, "failed to save inquiry", err)
	}

	return inquiry, nil
}

// ListAll returns every inquiry, newest first. IDs break ties between equal
// creation times.
func (s *InquiryStore) ListAll(ctx context.Context) ([]domain.InquiryListing, error) {
	var inquiries []domain.Inquiry

	start := time.Now()
	err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&inquiries).Error
	metrics.RecordDBQuery("list_inquiries", time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, "failed to fetch inquiries", err)
	}

	listings := make([]domain.InquiryListing, len(inquiries))
	for i := range inquiries {
		listings[i] = inquiries[i].Listing()
	}
	return listings, nil
}

// claimable matches outbox entries that are not exported and either
// unclaimed or held by a claim older than the lease cutoff.
const claimable = "exported_at IS NULL AND (claimed_at IS NULL OR claimed_at < ?)"

// ClaimExports marks up to limit claimable entries, oldest first, as held by
// owner and returns every unexported entry owner holds, inquiries loaded.
// The claim is a single UPDATE, so concurrent exporters in other processes
// never receive the same entry.
func (s *InquiryStore) ClaimExports(ctx context.Context, owner string, limit int, now time.Time, lease time.Duration) ([]domain.InquiryExport, error) {
	db := s.db.WithContext(ctx)
	staleBefore := now.Add(-lease).UTC()

	start := time.Now()
	ids := db.Model(&domain.InquiryExport{}).
		Select("id").
		Where(claimable, staleBefore).
		Order("id ASC").
		Limit(limit)
	err := db.Model(&domain.InquiryExport{}).
		Where("id IN (?)", ids).
		Where(claimable, staleBefore).
		Updates(map[string]interface{}{
			"claimed_by": owner,
			"claimed_at": now.UTC(),
		}).Error
	metrics.RecordDBQuery("claim_exports", time.Since(start), err)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, "failed to claim pending exports", err)
	}

	var tasks []domain.InquiryExport
	err = db.Preload("Inquiry").
		Where("claimed_by = ? AND exported_at IS NULL", owner).
		Order("id ASC").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeStorage, "failed to fetch claimed exports", err)
	}
	return tasks, nil
}

// ReleaseExports drops every claim owner holds on unexported entries so
// another exporter can take them.
func (s *InquiryStore) ReleaseExports(ctx context.Context, owner string) error {
	err := s.db.WithContext(ctx).
		Model(&domain.InquiryExport{}).
		Where("claimed_by = ? AND exported_at IS NULL", owner).
		Updates(map[string]interface{}{
			"claimed_by": nil,
			"claimed_at": nil,
		}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStorage, "failed to release export claims", err)
	}
	return nil
}

// MarkExported records that the outbox entry has been appended to the log
func (s *InquiryStore) MarkExported(ctx context.Context, taskID uint, at time.Time) error {
	err := s.db.WithContext(ctx).
		Model(&domain.InquiryExport{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"exported_at": at.UTC(),
			"attempts":    gorm.Expr("attempts + 1"),
			"last_error":  nil,
		}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStorage, "failed to mark export done", err)
	}
	return nil
}

// RecordExportFailure counts a failed append attempt and keeps its cause
func (s *InquiryStore) RecordExportFailure(ctx context.Context, taskID uint, cause error) error {
	err := s.db.WithContext(ctx).
		Model(&domain.InquiryExport{}).
		Where("id = ?", taskID).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause.Error(),
		}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeStorage, "failed to record export failure", err)
	}
	return nil
}

// CountPendingExports returns how many inquiries are stored but not exported
func (s *InquiryStore) CountPendingExports(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.InquiryExport{}).Where("exported_at IS NULL").Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrCodeStorage, "failed to count pending exports", err)
	}
	return count, nil
}
