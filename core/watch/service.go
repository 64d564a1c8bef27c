package watch

import (
	"context"
	"errors"
)

var (
	// errors
	ErrEventNotFound   = errors.New("watch event not found")
	ErrSessionNotFound = errors.New("playback session not found")
	ErrVideoNotFound   = errors.New("video not found in playlist")
)

type (
	// Repository is the watch-event collaborator store. All writes are keyed
	// by the (UserID, VideoID) pair; a stale write from another video session
	// can never clobber a different pair.
	Repository interface {
		GetEvent(ctx context.Context, userID, videoID string) (Event, error)
		QueryUserEvents(ctx context.Context, userID string) ([]Event, error)
		QueryAllEvents(ctx context.Context) ([]Event, error)
		// UpsertEvent creates or updates the record for (evt.UserID, evt.VideoID).
		UpsertEvent(ctx context.Context, evt Event) (Event, error)
	}

	Service interface {
		GetEvent(ctx context.Context, userID, videoID string) (Event, error)
		History(ctx context.Context, userID string) ([]Event, error)
		// CompletedVideoIDs returns the set of videos the user has completed.
		CompletedVideoIDs(ctx context.Context, userID string) (map[string]bool, error)
		// ImportDocs normalizes legacy export documents and upserts them;
		// returns the number of imported events.
		ImportDocs(ctx context.Context, docs []map[string]interface{}) (int, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) GetEvent(ctx context.Context, userID, videoID string) (Event, error) {
	return svc.repo.GetEvent(ctx, userID, videoID)
}

func (svc *service) History(ctx context.Context, userID string) ([]Event, error) {
	return svc.repo.QueryUserEvents(ctx, userID)
}

func (svc *service) CompletedVideoIDs(ctx context.Context, userID string) (map[string]bool, error) {
	events, err := svc.repo.QueryUserEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed := make(map[string]bool, len(events))
	for _, evt := range events {
		if evt.Completed {
			completed[evt.VideoID] = true
		}
	}
	return completed, nil
}

func (svc *service) ImportDocs(ctx context.Context, docs []map[string]interface{}) (int, error) {
	var count int
	for _, doc := range docs {
		evt, err := NormalizeDoc(doc)
		if err != nil {
			return count, err
		}

		// merge with any existing record; imports must not regress progress
		// or flip completion back
		if existing, err := svc.repo.GetEvent(ctx, evt.UserID, evt.VideoID); err == nil {
			evt = mergeEvents(existing, evt)
		} else if err != ErrEventNotFound {
			return count, err
		}

		if _, err = svc.repo.UpsertEvent(ctx, evt); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func mergeEvents(existing, incoming Event) Event {
	res := existing
	res.MergeProgress(incoming.Progress)
	if incoming.Completed {
		now := res.EndedAt
		if !incoming.EndedAt.IsZero() {
			now = incoming.EndedAt
		}
		res.MarkCompleted(now)
	}
	for _, m := range incoming.Milestones {
		res.AddMilestone(m)
	}
	res.WatchDuration += incoming.WatchDuration
	if incoming.LastPosition > res.LastPosition {
		res.LastPosition = incoming.LastPosition
	}
	if !incoming.FirstWatchedAt.IsZero() && (res.FirstWatchedAt.IsZero() || incoming.FirstWatchedAt.Before(res.FirstWatchedAt)) {
		res.FirstWatchedAt = incoming.FirstWatchedAt
	}
	if incoming.LastWatchedAt.After(res.LastWatchedAt) {
		res.LastWatchedAt = incoming.LastWatchedAt
	}
	return res
}
