package workout

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/giftem/giftem/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noon = time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

func newLog(now time.Time) *Log {
	l := New(nil, nil)
	l.now = func() time.Time { return now }
	l.workouts = sampleWorkouts(now)
	return l
}

func TestAdd(t *testing.T) {
	l := newLog(noon)
	w, ok := l.Add(" Cycling ", 40*time.Minute, 410, "")
	require.True(t, ok)
	assert.Equal(t, "Cycling", w.Kind)
	assert.Equal(t, w.ID, l.Workouts()[0].ID)

	tests := []struct {
		name     string
		kind     string
		d        time.Duration
		calories int
	}{
		{"blank kind", " ", time.Minute, 10},
		{"zero duration", "Run", 0, 10},
		{"negative calories", "Run", time.Minute, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := l.Add(tt.kind, tt.d, tt.calories, "")
			assert.False(t, ok)
		})
	}
}

func TestStatsTotals(t *testing.T) {
	l := newLog(noon)
	st := l.Stats()
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 137*time.Minute, st.TotalDuration)
	assert.Equal(t, 810, st.TotalCalories)
}

func TestStreak(t *testing.T) {
	l := newLog(noon)
	// Yesterday and the day before count while today is still open.
	assert.Equal(t, 2, l.Stats().StreakDays)

	l.Add("Swim", 20*time.Minute, 200, "")
	assert.Equal(t, 3, l.Stats().StreakDays)

	l.now = func() time.Time { return noon.AddDate(0, 0, 2) }
	assert.Equal(t, 0, l.Stats().StreakDays)
}

func TestDelete(t *testing.T) {
	l := newLog(noon)
	l.Delete("workout-yoga")
	l.Delete("missing")
	assert.Len(t, l.Workouts(), 2)
}

func TestStreakSurvivesReload(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "giftem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Migrate()
	require.NoError(t, err)

	// Late evening east of UTC, so the UTC date differs from the local one.
	now := time.Date(2025, 5, 10, 23, 30, 0, 0, time.FixedZone("KST", 9*3600))
	clock := func() time.Time { return now }

	first := New(db, nil)
	first.now = clock
	first.workouts = sampleWorkouts(now)
	first.save()
	require.Equal(t, 2, first.Stats().StreakDays)

	second := New(db, nil)
	second.now = clock
	require.Len(t, second.Workouts(), 3)
	assert.Equal(t, 2, second.Stats().StreakDays)

	second.now = func() time.Time { return now.In(time.UTC) }
	assert.Equal(t, 2, second.Stats().StreakDays)
}

func TestStreakAcrossMonthBoundary(t *testing.T) {
	l := newLog(time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC))
	// 1 March and 28 February are consecutive.
	assert.Equal(t, 2, l.Stats().StreakDays)
}
