package services

import (
	"context"

	"go.uber.org/zap"
	"gopkg.in/guregu/null.v4"

	"chengdumed/internal/domain"
	"chengdumed/internal/metrics"
)

// DefaultGreeting is used on the confirmation page when no name was given
const DefaultGreeting = "Friend"

// InquiryStore is the storage the inquiry service writes to and reads from
type InquiryStore interface {
	Insert(ctx context.Context, fields domain.InquiryFields) (*domain.Inquiry, error)
	ListAll(ctx context.Context) ([]domain.InquiryListing, error)
}

// ExportFlusher drains pending exports into the export log
type ExportFlusher interface {
	Flush(ctx context.Context) (int, error)
}

// SubmitResult is returned after an inquiry is stored and exported
type SubmitResult struct {
	ID   uint
	Name string
}

// ListResult holds every inquiry and their count
type ListResult struct {
	Inquiries []domain.InquiryListing
	Count     int
}

// InquiryService implements inquiry submission and listing
type InquiryService struct {
	store    InquiryStore
	exporter ExportFlusher
	log      *zap.SugaredLogger
}

// NewInquiryService creates a new inquiry service
func NewInquiryService(store InquiryStore, exporter ExportFlusher, log *zap.SugaredLogger) *InquiryService {
	return &InquiryService{
		store:    store,
		exporter: exporter,
		log:      log,
	}
}

// Submit stores the inquiry and then appends it to the export log.
// An export failure is returned to the caller even though the inquiry is
// already stored; its outbox entry stays pending and is retried later.
func (s *InquiryService) Submit(ctx context.Context, fields domain.InquiryFields) (*SubmitResult, error) {
	s.log.Info("Submit request received")

	inquiry, err := s.store.Insert(ctx, fields)
	if err != nil {
		metrics.RecordInquirySubmission(false)
		s.log.Errorf("Submit failed: database error: %v", err)
		return nil, err
	}
	metrics.RecordInquirySubmission(true)

	if _, err := s.exporter.Flush(ctx); err != nil {
		s.log.Errorf("Submit failed: inquiry id=%d stored but not exported: %v", inquiry.ID, err)
		return nil, err
	}

	s.log.Infof("Submit successful: id=%d", inquiry.ID)

	return &SubmitResult{
		ID:   inquiry.ID,
		Name: greeting(fields.Name),
	}, nil
}

// List returns all inquiries, newest first
func (s *InquiryService) List(ctx context.Context) (*ListResult, error) {
	inquiries, err := s.store.ListAll(ctx)
	if err != nil {
		s.log.Errorf("List failed: database error: %v", err)
		return nil, err
	}

	s.log.Infof("List successful: returned %d inquiries", len(inquiries))
	return &ListResult{
		Inquiries: inquiries,
		Count:     len(inquiries),
	}, nil
}

func greeting(name null.String) string {
	if name.ValueOrZero() == "" {
		return DefaultGreeting
	}
	return name.String
}
