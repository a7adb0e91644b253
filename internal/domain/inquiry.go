package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// Placeholder is shown for optional inquiry fields that were left empty.
const Placeholder = "N/A"

// Inquiry represents a lead-capture form submission
type Inquiry struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	Name           null.String `gorm:"type:text" json:"name"`
	Email          null.String `gorm:"type:text;not null" json:"email"`
	Country        null.String `gorm:"type:text" json:"country"`
	AgeRange       null.String `gorm:"type:text" json:"age_range"`
	AreaOfInterest null.String `gorm:"type:text" json:"area_of_interest"`
	Timeframe      null.String `gorm:"type:text" json:"timeframe"`
	Message        null.String `gorm:"type:text" json:"message"`
	CreatedAt      time.Time   `gorm:"not null;index" json:"created_at"`
}

// TableName specifies the table name for Inquiry
func (Inquiry) TableName() string {
	return "inquiries"
}

// InquiryFields are the caller-supplied values of a new inquiry.
// Email is required by the store; an invalid null.String is stored as NULL.
type InquiryFields struct {
	Name           null.String
	Email          null.String
	Country        null.String
	AgeRange       null.String
	AreaOfInterest null.String
	Timeframe      null.String
	Message        null.String
}

// NewInquiry builds an unsaved Inquiry from submitted fields
func NewInquiry(f InquiryFields) *Inquiry {
	return &Inquiry{
		Name:           f.Name,
		Email:          f.Email,
		Country:        f.Country,
		AgeRange:       f.AgeRange,
		AreaOfInterest: f.AreaOfInterest,
		Timeframe:      f.Timeframe,
		Message:        f.Message,
	}
}

// InquiryListing is the read-side view of an Inquiry with placeholders
// substituted for absent optional fields.
type InquiryListing struct {
	ID             uint
	Name           string
	Email          string
	Country        string
	AgeRange       string
	AreaOfInterest string
	Timeframe      string
	Message        string
	CreatedAt      time.Time
}

// Listing converts the stored inquiry to its display form
func (i *Inquiry) Listing() InquiryListing {
	return InquiryListing{
		ID:             i.ID,
		Name:           orPlaceholder(i.Name),
		Email:          i.Email.String,
		Country:        orPlaceholder(i.Country),
		AgeRange:       orPlaceholder(i.AgeRange),
		AreaOfInterest: orPlaceholder(i.AreaOfInterest),
		Timeframe:      orPlaceholder(i.Timeframe),
		Message:        orPlaceholder(i.Message),
		CreatedAt:      i.CreatedAt,
	}
}

func orPlaceholder(s null.String) string {
	if !s.Valid || s.String == "" {
		return Placeholder
	}
	return s.String
}
