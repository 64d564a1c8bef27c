package watch

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// repoStub is an in-memory Repository that can be told to fail writes.
type repoStub struct {
	events   map[string]Event // keyed by userID+"/"+videoID
	failNext bool
	upserts  int
}

func newRepoStub() *repoStub {
	return &repoStub{events: make(map[string]Event)}
}

func (r *repoStub) key(userID, videoID string) string { return userID + "/" + videoID }

func (r *repoStub) GetEvent(_ context.Context, userID, videoID string) (Event, error) {
	if evt, ok := r.events[r.key(userID, videoID)]; ok {
		return evt, nil
	}
	return Event{}, ErrEventNotFound
}

func (r *repoStub) QueryUserEvents(_ context.Context, userID string) ([]Event, error) {
	var res []Event
	for _, evt := range r.events {
		if evt.UserID == userID {
			res = append(res, evt)
		}
	}
	return res, nil
}

func (r *repoStub) QueryAllEvents(_ context.Context) ([]Event, error) {
	res := make([]Event, 0, len(r.events))
	for _, evt := range r.events {
		res = append(res, evt)
	}
	return res, nil
}

func (r *repoStub) UpsertEvent(_ context.Context, evt Event) (Event, error) {
	if r.failNext {
		r.failNext = false
		return Event{}, errors.New("kaboom")
	}
	r.upserts++
	r.events[r.key(evt.UserID, evt.VideoID)] = evt
	return evt, nil
}

type loggerStub struct{ errored int }

func (l *loggerStub) Debug(string, ...interface{}) {}
func (l *loggerStub) Info(string, ...interface{})  {}
func (l *loggerStub) Warn(string, ...interface{})  {}
func (l *loggerStub) Error(string, ...interface{}) { l.errored++ }
func (l *loggerStub) Fatal(string, ...interface{}) {}

func newTestRecorder(t *testing.T, repo *repoStub, hooks RecorderHooks) *Recorder {
	t.Helper()
	return NewRecorder(context.Background(), "user1", "videoX", repo, &loggerStub{}, 2*time.Second, hooks)
}

func TestRecorder_progressMonotonicity(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	repo.events["user1/videoX"] = Event{UserID: "user1", VideoID: "videoX", Progress: 40}

	rec := newTestRecorder(t, repo, RecorderHooks{})

	// rewind reports 10% of a 100s video
	rec.Tick(ctx, 10, 100)
	if got := repo.events["user1/videoX"].Progress; got != 40 {
		t.Errorf("progress after rewind tick = %d, want 40 (unchanged)", got)
	}
	if got := repo.events["user1/videoX"].LastPosition; got != 10 {
		t.Errorf("lastPosition = %v, want 10", got)
	}

	// then forward past the old max
	rec.Tick(ctx, 55, 100)
	if got := repo.events["user1/videoX"].Progress; got != 55 {
		t.Errorf("progress after forward tick = %d, want 55", got)
	}
}

func TestRecorder_milestoneIdempotence(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()

	milestones := make(map[int]int)
	rec := newTestRecorder(t, repo, RecorderHooks{
		MilestoneReached: func(_ string, m int) { milestones[m]++ },
	})

	// repeated ticks around the same rounded percentage
	for _, pos := range []float64{24, 25, 26, 27, 26, 28} {
		rec.Tick(ctx, pos, 100)
	}
	rec.Tick(ctx, 52, 100)
	rec.Tick(ctx, 53, 100)

	if milestones[25] != 1 {
		t.Errorf("milestone 25 fired %d times, want 1", milestones[25])
	}
	if milestones[50] != 1 {
		t.Errorf("milestone 50 fired %d times, want 1", milestones[50])
	}

	evt := repo.events["user1/videoX"]
	if !evt.HasMilestone(25) || !evt.HasMilestone(50) {
		t.Errorf("persisted milestones = %v, want 25 and 50", evt.Milestones)
	}
}

func TestRecorder_tickThrottling(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	rec := newTestRecorder(t, repo, RecorderHooks{})

	// first tick always persists; then one persisted write per >=2s of media
	// time (no milestones crossed between 1.0 and 2.5)
	rec.Tick(ctx, 1.0, 1000)
	base := repo.upserts
	rec.Tick(ctx, 1.5, 1000)
	rec.Tick(ctx, 2.0, 1000)
	rec.Tick(ctx, 2.5, 1000)
	if repo.upserts != base {
		t.Errorf("ticks within the persist window wrote %d times", repo.upserts-base)
	}
	rec.Tick(ctx, 3.2, 1000)
	if repo.upserts != base+1 {
		t.Errorf("upserts = %d, want %d", repo.upserts, base+1)
	}
}

func TestRecorder_persistenceAfterRewind(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	rec := newTestRecorder(t, repo, RecorderHooks{})

	rec.Tick(ctx, 100, 1000) // watermark at 100
	base := repo.upserts

	// rewound playback keeps persisting at the usual cadence instead of
	// waiting for the position to pass the old watermark again
	rec.Tick(ctx, 10, 1000)
	rec.Tick(ctx, 13, 1000)
	if repo.upserts != base+1 {
		t.Fatalf("upserts = %d, want %d", repo.upserts, base+1)
	}
	if got := repo.events["user1/videoX"].LastPosition; got != 13 {
		t.Errorf("lastPosition = %v, want 13", got)
	}
}

func TestRecorder_completion(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()

	var completions int
	rec := newTestRecorder(t, repo, RecorderHooks{
		VideoCompleted: func(string) { completions++ },
	})

	rec.Play()
	rec.Tick(ctx, 99, 100)
	rec.Complete(ctx)
	rec.Complete(ctx) // repeated end event must not double-fire

	if completions != 1 {
		t.Errorf("completion fired %d times, want 1", completions)
	}

	evt := repo.events["user1/videoX"]
	if !evt.Completed || evt.Progress != 100 {
		t.Errorf("event = %+v, want completed with progress=100", evt)
	}
	if !evt.HasMilestone(100) {
		t.Errorf("milestones = %v, want 100 included", evt.Milestones)
	}
}

func TestRecorder_persistenceFailureDoesNotInterrupt(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	logger := &loggerStub{}
	rec := NewRecorder(ctx, "user1", "videoX", repo, logger, 2*time.Second, RecorderHooks{})

	repo.failNext = true
	rec.Tick(ctx, 1, 100) // write fails, logged, swallowed
	if logger.errored != 1 {
		t.Fatalf("errors logged = %d, want 1", logger.errored)
	}

	// next natural tick retries
	rec.Tick(ctx, 3, 100)
	evt, ok := repo.events["user1/videoX"]
	if !ok {
		t.Fatal("event not persisted on retry")
	}
	if evt.Progress != 3 {
		t.Errorf("progress = %d, want 3", evt.Progress)
	}
}

func TestRecorder_watchDurationAccumulates(t *testing.T) {
	ctx := context.Background()
	repo := newRepoStub()
	repo.events["user1/videoX"] = Event{UserID: "user1", VideoID: "videoX", WatchDuration: 30}

	rec := newTestRecorder(t, repo, RecorderHooks{})

	now := time.Now()
	rec.nowFunc = func() time.Time { return now }
	rec.Play()
	now = now.Add(12 * time.Second)
	rec.Pause(ctx)

	if got := repo.events["user1/videoX"].WatchDuration; got != 42 {
		t.Errorf("watchDuration = %v, want 42 (cumulative)", got)
	}

	// a second play/pause interval adds again
	rec.Play()
	now = now.Add(8 * time.Second)
	rec.Pause(ctx)
	if got := repo.events["user1/videoX"].WatchDuration; got != 50 {
		t.Errorf("watchDuration = %v, want 50", got)
	}
}
