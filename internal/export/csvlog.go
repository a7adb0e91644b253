// Package export maintains the append-only CSV mirror of stored inquiries.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/guregu/null.v4"

	"chengdumed/internal/domain"
	apperrors "chengdumed/pkg/errors"
)

// TimestampLayout is the format of the Created At column
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the first row of every export file
var Header = []string{"ID", "Name", "Email", "Country", "Age Range", "Area of Interest", "Timeframe", "Message", "Created At"}

// Log appends inquiries to a CSV file. Appends are serialized.
type Log struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewLog creates a log writing to path
func NewLog(path string) *Log {
	return &Log{path: path, now: time.Now}
}

// Path returns the file the log writes to
func (l *Log) Path() string {
	return l.path
}

// Initialize creates the file with its header row if it does not exist.
// An existing file is left untouched.
func (l *Log) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeExport, "failed to create export file", err)
	}

	if err := writeRecord(file, Header); err != nil {
		file.Close()
		return apperrors.Wrap(apperrors.ErrCodeExport, "failed to write export header", err)
	}
	if err := file.Close(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeExport, "failed to close export file", err)
	}
	return nil
}

// Append writes one row for the inquiry, stamped with the current time
func (l *Log) Append(inquiry *domain.Inquiry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeExport, "failed to open export file", err)
	}

	if err := writeRecord(file, l.record(inquiry)); err != nil {
		file.Close()
		return apperrors.Wrap(apperrors.ErrCodeExport, fmt.Sprintf("failed to append inquiry %d", inquiry.ID), err)
	}
	if err := file.Close(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeExport, "failed to close export file", err)
	}
	return nil
}

func (l *Log) record(inquiry *domain.Inquiry) []string {
	return []string{
		strconv.FormatUint(uint64(inquiry.ID), 10),
		cell(inquiry.Name),
		cell(inquiry.Email),
		cell(inquiry.Country),
		cell(inquiry.AgeRange),
		cell(inquiry.AreaOfInterest),
		cell(inquiry.Timeframe),
		cell(inquiry.Message),
		l.now().Format(TimestampLayout),
	}
}

// cell writes absent values as empty cells
func cell(s null.String) string {
	return s.ValueOrZero()
}

func writeRecord(file *os.File, record []string) error {
	w := csv.NewWriter(file)
	w.UseCRLF = true
	if err := w.Write(record); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
