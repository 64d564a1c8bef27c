package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/mafunzo/core"
)

// RecorderHooks are one-shot side effects fired by the recorder.
// Both are optional.
type RecorderHooks struct {
	// MilestoneReached fires at most once per milestone per playback session.
	MilestoneReached func(videoID string, milestone int)
	// VideoCompleted fires at most once per playback session, on natural
	// end-of-media.
	VideoCompleted func(videoID string)
}

// Recorder consumes playback ticks for one (user, video) pair within a
// playback session and produces best-effort watch-event upserts: persistence
// failures are logged and swallowed, playback is never interrupted, and the
// write is simply retried on the next natural tick.
type Recorder struct {
	userID  string
	videoID string
	repo    Repository
	logger  core.Logger
	hooks   RecorderHooks

	// persistEvery throttles writes: at most one persisted tick per this much
	// media time, milestones and completion excepted.
	persistEvery float64

	evt               Event
	sessionMilestones map[int]bool
	completionEmitted bool
	lastPersisted     float64 // media time of the last successful write
	hasPersisted      bool
	playStartedAt     time.Time // zero while paused

	nowFunc func() time.Time // mockable
}

// NewRecorder loads the existing watch event for (userID, videoID), if any,
// so progress keeps its last known maximum across sessions. A failed load is
// treated as a fresh record (best-effort design).
func NewRecorder(ctx context.Context, userID, videoID string, repo Repository, logger core.Logger, persistEvery time.Duration, hooks RecorderHooks) *Recorder {
	rec := &Recorder{
		userID:            userID,
		videoID:           videoID,
		repo:              repo,
		logger:            logger,
		hooks:             hooks,
		persistEvery:      persistEvery.Seconds(),
		sessionMilestones: make(map[int]bool),
		nowFunc:           time.Now,
	}

	evt, err := repo.GetEvent(ctx, userID, videoID)
	switch err {
	case nil:
		rec.evt = evt
	case ErrEventNotFound:
		rec.evt = Event{UserID: userID, VideoID: videoID}
	default:
		logger.Error(fmt.Sprintf("loading watch event (%s, %s): %v", userID, videoID, err), err)
		rec.evt = Event{UserID: userID, VideoID: videoID}
	}

	if rec.evt.StartedAt.IsZero() {
		rec.evt.StartedAt = rec.nowFunc().UTC()
	}
	return rec
}

// Event returns a copy of the cached watch event.
func (rec *Recorder) Event() Event { return rec.evt }

// ResumePosition is where a resumed playback should start.
func (rec *Recorder) ResumePosition() float64 { return rec.evt.LastPosition }

func (rec *Recorder) Completed() bool { return rec.evt.Completed }

// Tick consumes one playback position report. Writes are throttled to at
// most one per persistEvery of media time; milestone crossings flush
// immediately.
func (rec *Recorder) Tick(ctx context.Context, currentTime, duration float64) {
	if duration <= 0 || currentTime < 0 {
		return
	}
	if currentTime > duration {
		currentTime = duration
	}

	pct := int(currentTime / duration * 100)
	now := rec.nowFunc().UTC()

	rec.evt.MergeProgress(pct)
	rec.evt.LastPosition = currentTime
	if rec.evt.FirstWatchedAt.IsZero() {
		rec.evt.FirstWatchedAt = now
	}
	rec.evt.LastWatchedAt = now

	milestone := rec.detectMilestone(pct)

	// a rewound position moves the watermark back with it, otherwise no tick
	// would persist until playback passes the old watermark again
	if currentTime < rec.lastPersisted {
		rec.lastPersisted = currentTime
	}
	if milestone || !rec.hasPersisted || currentTime-rec.lastPersisted >= rec.persistEvery {
		rec.persist(ctx, currentTime)
	}
}

// detectMilestone records a 25/50/75/100 crossing, deduplicated within the
// current playback session only; a genuine new session may re-emit.
func (rec *Recorder) detectMilestone(pct int) bool {
	m := (pct / MilestoneStep) * MilestoneStep
	if m < MilestoneStep || rec.sessionMilestones[m] {
		return false
	}
	rec.sessionMilestones[m] = true
	rec.evt.AddMilestone(m)
	if rec.hooks.MilestoneReached != nil {
		rec.hooks.MilestoneReached(rec.videoID, m)
	}
	return true
}

// SeekTo moves the tracked playback position without touching progress; the
// throttle watermark follows a rewind so the next tick persists normally.
func (rec *Recorder) SeekTo(to float64) {
	if to < 0 {
		to = 0
	}
	rec.evt.LastPosition = to
	if to < rec.lastPersisted {
		rec.lastPersisted = to
	}
}

// Play marks the start of a play interval for watch-duration accounting.
func (rec *Recorder) Play() {
	if rec.playStartedAt.IsZero() {
		rec.playStartedAt = rec.nowFunc()
	}
}

// Pause closes the current play interval, adding its wall-clock length to
// the cumulative watch duration.
func (rec *Recorder) Pause(ctx context.Context) {
	rec.accumulateWatchTime()
	rec.persist(ctx, rec.evt.LastPosition)
}

// Complete handles natural end-of-media: completion flag, progress pinned to
// 100 and a one-time completion side effect for this session.
func (rec *Recorder) Complete(ctx context.Context) {
	rec.accumulateWatchTime()

	now := rec.nowFunc().UTC()
	rec.evt.MarkCompleted(now)

	if !rec.sessionMilestones[100] {
		rec.sessionMilestones[100] = true
		if rec.hooks.MilestoneReached != nil {
			rec.hooks.MilestoneReached(rec.videoID, 100)
		}
	}
	if !rec.completionEmitted {
		rec.completionEmitted = true
		if rec.hooks.VideoCompleted != nil {
			rec.hooks.VideoCompleted(rec.videoID)
		}
	}

	rec.persist(ctx, rec.evt.LastPosition)
}

// Stop closes any open play interval and flushes; called on session end.
func (rec *Recorder) Stop(ctx context.Context) {
	rec.accumulateWatchTime()
	rec.persist(ctx, rec.evt.LastPosition)
}

func (rec *Recorder) accumulateWatchTime() {
	if rec.playStartedAt.IsZero() {
		return
	}
	rec.evt.WatchDuration += rec.nowFunc().Sub(rec.playStartedAt).Seconds()
	rec.playStartedAt = time.Time{}
}

// persist is fire-and-forget: a failure is logged and the throttle window is
// left open so the next natural tick retries.
func (rec *Recorder) persist(ctx context.Context, mediaTime float64) {
	evt, err := rec.repo.UpsertEvent(ctx, rec.evt)
	if err != nil {
		rec.logger.Error(fmt.Sprintf("persisting watch event (%s, %s): %v", rec.userID, rec.videoID, err), err)
		return
	}
	rec.evt = evt
	rec.lastPersisted = mediaTime
	rec.hasPersisted = true
}
