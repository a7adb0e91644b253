package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// InquiryExport is an outbox entry tracking whether an inquiry has been
// written to the CSV export log. It is created in the same transaction as
// its inquiry, so a stored inquiry always has one.
//
// An exporter claims entries before appending them. ClaimedBy names the
// exporter holding the claim; a claim older than the exporter's lease may be
// taken over.
type InquiryExport struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	InquiryID  uint        `gorm:"not null;uniqueIndex" json:"inquiry_id"`
	Inquiry    Inquiry     `gorm:"foreignKey:InquiryID" json:"-"`
	Attempts   int         `gorm:"not null;default:0" json:"attempts"`
	LastError  null.String `gorm:"type:text" json:"last_error"`
	ClaimedBy  null.String `gorm:"type:text;index" json:"claimed_by"`
	ClaimedAt  *time.Time  `json:"claimed_at"`
	ExportedAt *time.Time  `gorm:"index" json:"exported_at"`
	CreatedAt  time.Time   `json:"created_at"`
}

// TableName specifies the table name for InquiryExport
func (InquiryExport) TableName() string {
	return "inquiry_exports"
}
