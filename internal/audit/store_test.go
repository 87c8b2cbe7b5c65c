package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestStore_AppendAndReadSessions(t *testing.T) {
	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	store.WithClock(fixedClock(day))

	created := day
	store.AppendSession(models.SessionRecord{
		SessionID: "sess_a_1",
		ClientID:  "agentA",
		Status:    models.StatusRunning,
		CreatedAt: &created,
	})
	store.AppendSession(models.SessionRecord{
		SessionID: "sess_a_1",
		Status:    models.StatusClosed,
	})

	records, err := store.ReadSessions(day)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "agentA", records[0].ClientID)
	assert.Equal(t, models.StatusClosed, records[1].Status)
}

func TestStore_PartitionsByDay(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	day1 := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC)

	store.WithClock(fixedClock(day1))
	store.AppendAction(models.ActionRecord{ID: "act1", SessionID: "s", Type: "navigate"})

	store.WithClock(fixedClock(day2))
	store.AppendAction(models.ActionRecord{ID: "act2", SessionID: "s", Type: "click"})

	first, err := store.ReadActions(day1)
	require.NoError(t, err)
	second, err := store.ReadActions(day2)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "act1", first[0].ID)
	assert.Equal(t, "act2", second[0].ID)

	_, err = os.Stat(filepath.Join(dir, "meta", "actions-2026-03-01.ndjson"))
	assert.NoError(t, err)
}

func TestStore_SkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	store.WithClock(fixedClock(day))
	store.AppendFile(models.FileRecord{FileID: "file_1", SessionID: "s", MimeType: "image/png"})

	// Simulate a torn write followed by a good record
	path := filepath.Join(dir, "meta", "files-2026-03-01.ndjson")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"fileId\":\"torn\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	store.AppendFile(models.FileRecord{FileID: "file_2", SessionID: "s", MimeType: "image/jpeg"})

	records, err := store.ReadFiles(day)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "file_1", records[0].FileID)
	assert.Equal(t, "file_2", records[1].FileID)
}

func TestStore_ReadMissingDayIsEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	records, err := store.ReadSnapshots(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_AppendNeverFails(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	// Remove the meta dir so the open fails; append must still be silent
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "meta")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "meta"), []byte("not a dir"), 0o644))

	assert.NotPanics(t, func() {
		store.AppendSession(models.SessionRecord{SessionID: "s", Status: models.StatusRunning})
	})
}
