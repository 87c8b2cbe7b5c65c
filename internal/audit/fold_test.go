package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

func TestFoldSessions_ClosedWinsEitherOrder(t *testing.T) {
	running := models.SessionRecord{SessionID: "sess_x", Status: models.StatusRunning}
	closed := models.SessionRecord{SessionID: "sess_x", Status: models.StatusClosed}

	for _, records := range [][]models.SessionRecord{
		{running, closed},
		{closed, running},
	} {
		folded := FoldSessions(records)
		require.Len(t, folded, 1)
		assert.Equal(t, models.StatusClosed, folded[0].Status)
	}
}

func TestFoldSessions_Timestamps(t *testing.T) {
	early := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	folded := FoldSessions([]models.SessionRecord{
		{SessionID: "sess_x", Status: models.StatusRunning, CreatedAt: &late},
		{SessionID: "sess_x", Status: models.StatusRunning, CreatedAt: &early},
		{SessionID: "sess_x", Status: models.StatusClosed, FinishedAt: &early},
		{SessionID: "sess_x", Status: models.StatusClosed, FinishedAt: &late},
	})

	require.Len(t, folded, 1)
	assert.Equal(t, early, *folded[0].CreatedAt)
	assert.Equal(t, late, *folded[0].FinishedAt)
}

func TestFoldSessions_LastErrorKeepsLatestNonEmpty(t *testing.T) {
	folded := FoldSessions([]models.SessionRecord{
		{SessionID: "sess_x", Status: models.StatusRunning, LastErrorCode: "TIMEOUT", LastErrorMessage: "first"},
		{SessionID: "sess_x", Status: models.StatusRunning},
		{SessionID: "sess_x", Status: models.StatusClosed, LastErrorCode: "CONNECTION_ERROR", LastErrorMessage: "second"},
	})

	require.Len(t, folded, 1)
	assert.Equal(t, "CONNECTION_ERROR", folded[0].LastErrorCode)
	assert.Equal(t, "second", folded[0].LastErrorMessage)
}

func TestFoldSessions_TimeoutIsTerminal(t *testing.T) {
	folded := FoldSessions([]models.SessionRecord{
		{SessionID: "sess_x", Status: models.StatusTimeout},
		{SessionID: "sess_x", Status: models.StatusRunning},
	})

	require.Len(t, folded, 1)
	assert.Equal(t, models.StatusTimeout, folded[0].Status)
}

func TestFoldSessions_MultipleSessionsKeepOrder(t *testing.T) {
	folded := FoldSessions([]models.SessionRecord{
		{SessionID: "sess_a", Status: models.StatusRunning},
		{SessionID: "sess_b", Status: models.StatusRunning},
		{SessionID: "sess_a", Status: models.StatusClosed},
	})

	require.Len(t, folded, 2)
	assert.Equal(t, "sess_a", folded[0].SessionID)
	assert.Equal(t, models.StatusClosed, folded[0].Status)
	assert.Equal(t, "sess_b", folded[1].SessionID)
}
