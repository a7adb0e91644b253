package services

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"
	"gorm.io/gorm"

	"chengdumed/internal/config"
	"chengdumed/internal/database"
	"chengdumed/internal/domain"
	"chengdumed/internal/export"
	"chengdumed/internal/logging"
)

type testEnv struct {
	db       *gorm.DB
	store    *database.InquiryStore
	log      *export.Log
	exporter *Exporter
	service  *InquiryService
	csvPath  string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Open(&config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(dir, "test.db")}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store := database.NewInquiryStore(db)
	require.NoError(t, store.Initialize(context.Background()))

	csvPath := filepath.Join(dir, "inquiries.csv")
	log := export.NewLog(csvPath)
	require.NoError(t, log.Initialize())

	exporter := NewExporter(store, log, logging.Nop())
	return &testEnv{
		db:       db,
		store:    store,
		log:      log,
		exporter: exporter,
		service:  NewInquiryService(store, exporter, logging.Nop()),
		csvPath:  csvPath,
	}
}

func (e *testEnv) csvRows(t *testing.T) [][]string {
	t.Helper()

	file, err := os.Open(e.csvPath)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return rows
}

func fields(email, name string) domain.InquiryFields {
	f := domain.InquiryFields{Email: null.NewString(email, email != "")}
	if name != "" {
		f.Name = null.StringFrom(name)
	}
	return f
}
