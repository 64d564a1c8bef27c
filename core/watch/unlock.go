package watch

import (
	"errors"

	"github.com/trezcool/mafunzo/core/playlist"
)

var (
	// ErrVideoLocked is surfaced to the user as-is; the message tells them how
	// to unlock the video.
	ErrVideoLocked = errors.New("this video is locked; complete the previous video in its module to unlock it")
	// ErrSeekForbidden rejects forward seeks on a first-time watch-through.
	ErrSeekForbidden = errors.New("forward seeking is disabled until you have completed this video once")
)

// State classifies a video within a playback session.
// It only ever moves forward: Locked -> Unlocked -> Completed.
type State int

const (
	StateLocked State = iota
	StateUnlocked
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateUnlocked:
		return "unlocked"
	case StateCompleted:
		return "completed"
	default:
		return "locked"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnlockState maps video ids to their derived state. It is a per-session view
// recomputed from persisted completion data; the watch-event store remains
// the source of truth for completion.
type UnlockState map[string]State

func (st UnlockState) clone() UnlockState {
	res := make(UnlockState, len(st))
	for id, s := range st {
		res[id] = s
	}
	return res
}

// IsPlayable reports whether a video may be played or navigated to.
func (st UnlockState) IsPlayable(videoID string) bool {
	s, ok := st[videoID]
	return ok && s != StateLocked
}

// ComputeInitialState derives the lock state of every video in every module
// from the persisted completion set, in a single forward pass per module:
// the first video of a module is never locked; any later video is unlocked
// only once its immediate predecessor in the same module is completed.
func ComputeInitialState(modules []playlist.Module, completed map[string]bool) UnlockState {
	st := make(UnlockState)
	for _, mod := range modules {
		for i, v := range mod.Videos {
			switch {
			case completed[v.ID]:
				st[v.ID] = StateCompleted
			case i == 0 || completed[mod.Videos[i-1].ID]:
				st[v.ID] = StateUnlocked
			default:
				st[v.ID] = StateLocked
			}
		}
	}
	return st
}

// OnVideoCompleted marks videoID completed and unlocks its immediate
// successor within the same module, if that successor is still locked.
// It never downgrades a state and has no cross-module effect; completing the
// last video of a module finishes the module. The input map is not mutated;
// a new state map is returned so callers can diff cheaply.
func OnVideoCompleted(st UnlockState, modules []playlist.Module, videoID string) UnlockState {
	res := st.clone()

	mod, pos := locate(modules, videoID)
	if mod == nil {
		return res
	}

	res[videoID] = StateCompleted

	if next := pos + 1; next < len(mod.Videos) {
		nextID := mod.Videos[next].ID
		if res[nextID] == StateLocked {
			res[nextID] = StateUnlocked
		}
	}
	return res
}

// locate finds the module containing videoID and the video's position in it.
func locate(modules []playlist.Module, videoID string) (*playlist.Module, int) {
	for i := range modules {
		for j, v := range modules[i].Videos {
			if v.ID == videoID {
				return &modules[i], j
			}
		}
	}
	return nil, -1
}
