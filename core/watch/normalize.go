package watch

import (
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"
)

// NormalizeDoc canonicalizes a loosely-typed watch-event document as exported
// by the legacy platform. Historical exports mix field-name variants
// (progress/percent/progressPercentage, watchDuration/watchTime, ...) and
// timestamp encodings (RFC3339 strings or unix milliseconds); everything is
// folded into one canonical Event and the completed => progress=100
// invariant is restored.
func NormalizeDoc(doc map[string]interface{}) (Event, error) {
	userID, ok := docString(doc, "userId", "user_id")
	if !ok || userID == "" {
		return Event{}, errors.New("normalizing watch event: missing user id")
	}
	videoID, ok := docString(doc, "videoId", "video_id")
	if !ok || videoID == "" {
		return Event{}, errors.New("normalizing watch event: missing video id")
	}

	evt := Event{UserID: userID, VideoID: videoID}

	if pct, ok := docNumber(doc, "progress", "percent", "progressPercentage", "progress_percentage"); ok {
		evt.MergeProgress(int(pct))
	}
	if pos, ok := docNumber(doc, "lastPosition", "last_position", "currentTime", "current_time"); ok && pos > 0 {
		evt.LastPosition = pos
	}
	if dur, ok := docNumber(doc, "watchDuration", "watch_duration", "watchTime", "watch_time"); ok && dur > 0 {
		evt.WatchDuration = dur
	}

	if raw, ok := doc["milestones"]; ok {
		if list, ok := raw.([]interface{}); ok {
			for _, item := range list {
				if m, ok := toNumber(item); ok {
					evt.AddMilestone(int(m))
				}
			}
		}
	}

	evt.FirstWatchedAt = docTime(doc, "firstWatchedAt", "first_watched_at", "firstWatched")
	evt.LastWatchedAt = docTime(doc, "lastWatchedAt", "last_watched_at", "lastWatched")
	evt.StartedAt = docTime(doc, "startedAt", "started_at", "startTime")
	evt.EndedAt = docTime(doc, "endedAt", "ended_at", "endTime")

	if completed, ok := docBool(doc, "completed", "isCompleted", "is_completed"); ok && completed {
		evt.MarkCompleted(evt.EndedAt)
	}

	return evt, nil
}

func docString(doc map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if raw, ok := doc[key]; ok {
			if s, ok := raw.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func docBool(doc map[string]interface{}, keys ...string) (bool, bool) {
	for _, key := range keys {
		if raw, ok := doc[key]; ok {
			if b, ok := raw.(bool); ok {
				return b, true
			}
		}
	}
	return false, false
}

func docNumber(doc map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		if raw, ok := doc[key]; ok {
			if n, ok := toNumber(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}

// toNumber accepts the numeric shapes encoding/json may produce.
func toNumber(raw interface{}) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// docTime parses RFC3339 strings or unix-millisecond numbers; absent or
// unparseable values yield the zero time.
func docTime(doc map[string]interface{}, keys ...string) time.Time {
	for _, key := range keys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t.UTC()
			}
		case float64:
			if v > 0 {
				sec, msec := math.Modf(v / 1000)
				return time.Unix(int64(sec), int64(msec*float64(time.Second))).UTC()
			}
		}
	}
	return time.Time{}
}
