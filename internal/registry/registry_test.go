package registry

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/browser-agent/pkg/models"
)

func TestCreate_Defaults(t *testing.T) {
	r := New()

	s := r.Create(models.CreateSessionRequest{})

	assert.Equal(t, models.StatusRunning, s.Status)
	assert.Equal(t, "local", s.ClientID)
	assert.True(t, s.Visible)
	assert.Nil(t, s.WindowID)
	assert.Nil(t, s.ClosedAt)
	assert.Equal(t, s.CreatedAt, s.LastActiveAt)
	assert.Regexp(t, regexp.MustCompile(`^sess_[0-9a-z]+_[0-9a-z]+$`), s.ID)
}

func TestCreate_UniqueIDsInBurst(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := New(WithClock(func() time.Time { return fixed }))

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := r.Create(models.CreateSessionRequest{})
		require.False(t, seen[s.ID], "duplicate id %s", s.ID)
		seen[s.ID] = true
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := New()
	s := r.Create(models.CreateSessionRequest{ClientID: "agentA"})

	got := r.Get(s.ID)
	require.NotNil(t, got)
	got.ClientID = "mutated"

	assert.Equal(t, "agentA", r.Get(s.ID).ClientID)
}

func TestGet_Unknown(t *testing.T) {
	r := New()
	assert.Nil(t, r.Get("sess_nope_1"))
}

func TestList_Filters(t *testing.T) {
	r := New()
	a := r.Create(models.CreateSessionRequest{Profile: "work", ClientID: "agentA"})
	r.Create(models.CreateSessionRequest{Profile: "play", ClientID: "agentB"})

	tests := []struct {
		name   string
		filter models.SessionFilter
		want   int
	}{
		{"all", models.SessionFilter{}, 2},
		{"by profile", models.SessionFilter{Profile: "work"}, 1},
		{"by client", models.SessionFilter{ClientID: "agentB"}, 1},
		{"by status", models.SessionFilter{Status: models.StatusRunning}, 2},
		{"no match", models.SessionFilter{Profile: "other"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, r.List(tt.filter), tt.want)
		})
	}

	_ = a
}

func TestTouch_BumpsLastActive(t *testing.T) {
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := New(WithClock(func() time.Time { return current }))
	s := r.Create(models.CreateSessionRequest{})

	current = current.Add(42 * time.Second)
	r.Touch(s.ID)

	got := r.Get(s.ID)
	assert.Equal(t, current, got.LastActiveAt)
	assert.True(t, got.CreatedAt.Before(got.LastActiveAt))
}

func TestSetWindow_CoercesToPositive(t *testing.T) {
	r := New()
	s := r.Create(models.CreateSessionRequest{})

	r.SetWindow(s.ID, 7)
	require.NotNil(t, r.Get(s.ID).WindowID)
	assert.Equal(t, 7, *r.Get(s.ID).WindowID)

	r.SetWindow(s.ID, 0)
	assert.Nil(t, r.Get(s.ID).WindowID)

	r.SetWindow(s.ID, -3)
	assert.Nil(t, r.Get(s.ID).WindowID)
}

func TestShowHide(t *testing.T) {
	r := New()
	s := r.Create(models.CreateSessionRequest{})

	r.Hide(s.ID)
	assert.False(t, r.Get(s.ID).Visible)

	r.Show(s.ID)
	assert.True(t, r.Get(s.ID).Visible)
}

func TestClose_Idempotent(t *testing.T) {
	r := New()
	s := r.Create(models.CreateSessionRequest{})

	first := r.Close(s.ID)
	require.NotNil(t, first)
	assert.Equal(t, models.StatusClosed, first.Status)
	require.NotNil(t, first.ClosedAt)

	assert.Nil(t, r.Close(s.ID), "second close must return nil")
	assert.Nil(t, r.Get(s.ID))
	assert.Equal(t, 0, r.Len())
}
