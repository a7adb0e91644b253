package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"

	"chengdumed/internal/config"
	"chengdumed/internal/database"
	"chengdumed/internal/domain"
	"chengdumed/internal/logging"
)

func testConfig(t *testing.T, exportPath string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		Database: config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(dir, "test.db")},
		Export:   config.ExportConfig{Path: exportPath},
	}

	db, err := database.Open(&cfg.Database, logging.Nop())
	require.NoError(t, err)
	store := database.NewInquiryStore(db)
	require.NoError(t, store.Initialize(context.Background()))
	_, err = store.Insert(context.Background(), domain.InquiryFields{Email: null.StringFrom("a@x.com")})
	require.NoError(t, err)
	require.NoError(t, database.Close(db))

	return cfg
}

func TestRunExportsPendingInquiries(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "inquiries.csv")
	cfg := testConfig(t, csvPath)

	require.NoError(t, run(cfg, logging.Nop()))
	require.NoError(t, run(cfg, logging.Nop()))

	file, err := os.Open(csvPath)
	require.NoError(t, err)
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a@x.com", rows[1][2])
}

func TestRunReturnsExportFailure(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing", "inquiries.csv"))

	err := run(cfg, logging.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create export file")
}
