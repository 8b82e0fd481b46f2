// Package workout keeps the user's workout log.
package workout

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/giftem/giftem/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const workoutsKey = "workouts"

// Workout is a logged training session.
type Workout struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	Duration    time.Duration `json:"duration"`
	Calories    int           `json:"calories"`
	Notes       string        `json:"notes,omitempty"`
	PerformedAt time.Time     `json:"performed_at"`
}

// Stats summarises the log.
type Stats struct {
	Count         int           `json:"count"`
	TotalDuration time.Duration `json:"total_duration"`
	TotalCalories int           `json:"total_calories"`
	// StreakDays counts consecutive days with a workout, ending today, or
	// yesterday when nothing is logged yet today.
	StreakDays int `json:"streak_days"`
}

// Log holds workouts newest first.
type Log struct {
	mu       sync.RWMutex
	workouts []Workout
	mirror   store.Mirror
	logger   *zap.Logger
	now      func() time.Time
}

// New restores the log from mirror, seeding sample sessions the first time.
func New(mirror store.Mirror, logger *zap.Logger) *Log {
	if mirror == nil {
		mirror = store.NopMirror{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Log{mirror: mirror, logger: logger, now: time.Now}
	found, err := mirror.Get(workoutsKey, &l.workouts)
	if err != nil {
		logger.Warn("failed to load workouts, reseeding", zap.Error(err))
	}
	if err != nil || !found {
		l.workouts = sampleWorkouts(l.now())
		l.save()
	}
	return l
}

// Workouts returns the log, newest first.
func (l *Log) Workouts() []Workout {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Workout(nil), l.workouts...)
}

// Add logs a workout performed now. A blank kind or non-positive duration is rejected.
func (l *Log) Add(kind string, d time.Duration, calories int, notes string) (Workout, bool) {
	kind = strings.TrimSpace(kind)
	if kind == "" || d <= 0 || calories < 0 {
		return Workout{}, false
	}
	w := Workout{
		ID:          uuid.NewString(),
		Kind:        kind,
		Duration:    d,
		Calories:    calories,
		Notes:       strings.TrimSpace(notes),
		PerformedAt: l.now(),
	}
	l.mu.Lock()
	l.workouts = append([]Workout{w}, l.workouts...)
	l.mu.Unlock()
	l.save()
	return w, true
}

// Delete removes a workout.
func (l *Log) Delete(id string) {
	l.mu.Lock()
	i := slices.IndexFunc(l.workouts, func(w Workout) bool { return w.ID == id })
	if i < 0 {
		l.mu.Unlock()
		return
	}
	l.workouts = slices.Delete(l.workouts, i, i+1)
	l.mu.Unlock()
	l.save()
}

// Stats computes totals and the current streak. Days are calendar days in
// the clock's location, whatever location the stored times carry.
func (l *Log) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	now := l.now()
	loc := now.Location()
	var st Stats
	days := make(map[date]bool)
	for _, w := range l.workouts {
		st.Count++
		st.TotalDuration += w.Duration
		st.TotalCalories += w.Calories
		days[dateOf(w.PerformedAt.In(loc))] = true
	}
	d := dateOf(now)
	if !days[d] {
		d = d.prev(loc)
	}
	for days[d] {
		st.StreakDays++
		d = d.prev(loc)
	}
	return st
}

type date struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) date {
	y, m, d := t.Date()
	return date{y, m, d}
}

func (d date) prev(loc *time.Location) date {
	return dateOf(time.Date(d.year, d.month, d.day, 12, 0, 0, 0, loc).AddDate(0, 0, -1))
}

func (l *Log) save() {
	if err := l.mirror.Put(workoutsKey, l.Workouts()); err != nil {
		l.logger.Error("failed to mirror workouts", zap.Error(err))
	}
}

func sampleWorkouts(now time.Time) []Workout {
	return []Workout{
		{ID: "workout-run", Kind: "Running", Duration: 32 * time.Minute, Calories: 340, Notes: "Easy 5k", PerformedAt: now.Add(-24 * time.Hour)},
		{ID: "workout-strength", Kind: "Strength", Duration: 45 * time.Minute, Calories: 280, Notes: "Upper body", PerformedAt: now.Add(-48 * time.Hour)},
		{ID: "workout-yoga", Kind: "Yoga", Duration: 60 * time.Minute, Calories: 190, PerformedAt: now.Add(-96 * time.Hour)},
	}
}
