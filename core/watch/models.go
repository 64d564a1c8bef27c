package watch

import (
	"sort"
	"time"
)

// MilestoneStep is the fixed progress threshold spacing; milestones are
// 25, 50, 75 and 100 percent.
const MilestoneStep = 25

// Event is the persisted record of a user's progress against one specific
// video: one logical record per (user, video) pair, upserted by key, never
// deleted by the watch core.
type Event struct {
	UserID       string  `json:"user_id"`
	VideoID      string  `json:"video_id"`
	Progress     int     `json:"progress"` // 0-100, monotonically non-decreasing
	Completed    bool    `json:"completed"`
	LastPosition float64 `json:"last_position"` // seconds, used for resume
	Milestones   []int   `json:"milestones"`    // subset of {25,50,75,100}, ascending
	// WatchDuration accumulates wall-clock seconds spent playing; only ever
	// added to, never overwritten.
	WatchDuration  float64   `json:"watch_duration"`
	FirstWatchedAt time.Time `json:"first_watched_at"` // UTC
	LastWatchedAt  time.Time `json:"last_watched_at"`  // UTC
	StartedAt      time.Time `json:"started_at"`       // UTC
	EndedAt        time.Time `json:"ended_at"`         // UTC
}

func (e *Event) HasMilestone(m int) bool {
	for _, ms := range e.Milestones {
		if ms == m {
			return true
		}
	}
	return false
}

// AddMilestone records a milestone once, keeping the set ascending.
func (e *Event) AddMilestone(m int) {
	if m < MilestoneStep || m > 100 || m%MilestoneStep != 0 || e.HasMilestone(m) {
		return
	}
	e.Milestones = append(e.Milestones, m)
	sort.Ints(e.Milestones)
}

// MergeProgress applies the monotonic-max policy: stored progress never
// regresses, even when the reported percentage drops after a rewind.
func (e *Event) MergeProgress(pct int) {
	if pct < 0 {
		pct = 0
	} else if pct > 100 {
		pct = 100
	}
	if pct > e.Progress {
		e.Progress = pct
	}
}

// MarkCompleted flips the one-way completion flag and restores the
// completed => progress=100 invariant.
func (e *Event) MarkCompleted(now time.Time) {
	e.Completed = true
	e.Progress = 100
	e.AddMilestone(100)
	e.EndedAt = now
	if e.LastWatchedAt.Before(now) {
		e.LastWatchedAt = now
	}
}
