package services

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chengdumed/internal/config"
	"chengdumed/internal/database"
	"chengdumed/internal/domain"
	"chengdumed/internal/export"
	"chengdumed/internal/logging"
)

// flakyWriter fails the first n appends
type flakyWriter struct {
	failures int
	appended []uint
}

func (w *flakyWriter) Append(inquiry *domain.Inquiry) error {
	if w.failures > 0 {
		w.failures--
		return errors.New("disk full")
	}
	w.appended = append(w.appended, inquiry.ID)
	return nil
}

func TestFlushRetriesFailedEntryOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err := env.store.Insert(ctx, fields(email, ""))
		require.NoError(t, err)
	}

	writer := &flakyWriter{failures: 1}
	exporter := NewExporter(env.store, writer, logging.Nop())

	n, err := exporter.Flush(ctx)
	require.Error(t, err)
	assert.Zero(t, n)

	var tasks []domain.InquiryExport
	require.NoError(t, env.db.Order("id ASC").Where("exported_at IS NULL").Find(&tasks).Error)
	require.Len(t, tasks, 3)
	assert.Equal(t, 1, tasks[0].Attempts)
	assert.Equal(t, "disk full", tasks[0].LastError.String)
	for _, task := range tasks {
		assert.False(t, task.ClaimedBy.Valid, "claim of entry %d kept after failure", task.ID)
	}

	n, err = exporter.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []uint{1, 2, 3}, writer.appended)

	n, err = exporter.Flush(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, writer.appended, 3)
}

func TestRunDrainsUntilCancelled(t *testing.T) {
	env := setupEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := env.store.Insert(ctx, fields("a@x.com", "Jo"))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		env.exporter.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		n, err := env.store.CountPendingExports(context.Background())
		return err == nil && n == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("export worker did not stop")
	}

	assert.Len(t, env.csvRows(t), 2)
}

func TestConcurrentExportersAppendEachInquiryOnce(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	const stored = 200
	for i := 0; i < stored; i++ {
		_, err := env.store.Insert(ctx, fields("lead"+strconv.Itoa(i)+"@x.com", ""))
		require.NoError(t, err)
	}

	// a second process: its own connection to the same database and CSV
	otherDB, err := database.Open(&config.DatabaseConfig{URL: "sqlite:///" + filepath.Join(filepath.Dir(env.csvPath), "test.db")}, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(otherDB) })
	other := NewExporter(database.NewInquiryStore(otherDB), export.NewLog(env.csvPath), logging.Nop())

	var wg sync.WaitGroup
	results := make([]int, 2)
	errs := make([]error, 2)
	for i, exporter := range []*Exporter{env.exporter, other} {
		wg.Add(1)
		go func(i int, exporter *Exporter) {
			defer wg.Done()
			results[i], errs[i] = exporter.Flush(ctx)
		}(i, exporter)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, stored, results[0]+results[1])

	rows := env.csvRows(t)[1:]
	require.Len(t, rows, stored)

	ids := make([]int, len(rows))
	for i, row := range rows {
		ids[i], err = strconv.Atoi(row[0])
		require.NoError(t, err)
	}
	sort.Ints(ids)
	for i, id := range ids {
		assert.Equal(t, i+1, id)
	}

	pending, err := env.store.CountPendingExports(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
}
