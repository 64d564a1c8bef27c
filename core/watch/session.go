package watch

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/playlist"
)

// Session is the explicit playback context for one user: it owns the
// assembled modules, the derived unlock state and the per-video recorders.
// All playback events go through it, so the playability predicate and the
// seek restriction are enforced here, server-side, rather than trusted to
// the player UI.
//
// A session is exclusively owned by its user; the mutex serializes the HTTP
// callbacks that drive it.
type Session struct {
	ID      string
	UserID  string
	Modules []playlist.Module

	mu           sync.Mutex
	state        UnlockState
	recorders    map[string]*Recorder
	current      string
	ended        bool
	lastActivity time.Time

	repo         Repository
	logger       core.Logger
	persistEvery time.Duration
	hooks        RecorderHooks
}

// SeekResult tells the player where playback may continue after a seek
// request; rejected forward seeks clamp to the requested origin.
type SeekResult struct {
	Position float64 `json:"position"`
	Allowed  bool    `json:"allowed"`
}

func (s *Session) touch() { s.lastActivity = time.Now() }

// State returns a copy of the current unlock state.
func (s *Session) State() UnlockState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// CurrentVideo is the id of the video the session is positioned on.
func (s *Session) CurrentVideo() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// ResumePosition is the last persisted playback position of the current video.
func (s *Session) ResumePosition() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.recorders[s.current]; ok {
		return rec.ResumePosition()
	}
	return 0
}

// Start positions the session on videoID and begins playback. Locked videos
// are rejected with ErrVideoLocked and no state is mutated.
func (s *Session) Start(ctx context.Context, videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionNotFound
	}
	if _, pos := locate(s.Modules, videoID); pos < 0 {
		return ErrVideoNotFound
	}
	if !s.state.IsPlayable(videoID) {
		return ErrVideoLocked
	}

	s.current = videoID
	rec := s.recorder(ctx, videoID)
	rec.Play()
	s.touch()
	return nil
}

// Tick consumes a playback position report for the current video.
func (s *Session) Tick(ctx context.Context, currentTime, duration float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.current == "" {
		return ErrSessionNotFound
	}
	s.recorder(ctx, s.current).Tick(ctx, currentTime, duration)
	s.touch()
	return nil
}

// Seek validates a seek request on the current video: rewinds are always
// allowed; forward seeks only once that video has been completed (a replay).
// The target is gated against the recorder's tracked position rather than any
// client-reported origin, so a spoofed origin cannot legitimize a forward
// jump. Rejected seeks clamp to the tracked position and mutate nothing.
func (s *Session) Seek(ctx context.Context, to float64) (SeekResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.current == "" {
		return SeekResult{}, ErrSessionNotFound
	}
	s.touch()

	rec := s.recorder(ctx, s.current)
	if pos := rec.ResumePosition(); to > pos && s.state[s.current] != StateCompleted {
		return SeekResult{Position: pos}, ErrSeekForbidden
	}
	rec.SeekTo(to)
	return SeekResult{Position: to, Allowed: true}, nil
}

// Play reopens the watch-duration interval of the current video.
func (s *Session) Play(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.current == "" {
		return ErrSessionNotFound
	}
	s.recorder(ctx, s.current).Play()
	s.touch()
	return nil
}

// Pause closes the watch-duration interval of the current video.
func (s *Session) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.current == "" {
		return ErrSessionNotFound
	}
	s.recorder(ctx, s.current).Pause(ctx)
	s.touch()
	return nil
}

// Ended handles natural end-of-media on the current video: the recorder
// records completion, then the unlock state machine unlocks the successor
// within the same module.
func (s *Session) Ended(ctx context.Context) (UnlockState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.current == "" {
		return nil, ErrSessionNotFound
	}

	s.recorder(ctx, s.current).Complete(ctx)
	s.state = OnVideoCompleted(s.state, s.Modules, s.current)
	s.touch()
	return s.state.clone(), nil
}

// Navigate moves the session to the adjacent video (offset -1 or +1) within
// the current module, subject to the playability gate.
func (s *Session) Navigate(ctx context.Context, offset int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended || s.current == "" {
		return "", ErrSessionNotFound
	}

	mod, pos := locate(s.Modules, s.current)
	if mod == nil {
		return "", ErrVideoNotFound
	}
	next := pos + offset
	if next < 0 || next >= len(mod.Videos) {
		return "", ErrVideoNotFound
	}

	nextID := mod.Videos[next].ID
	if !s.state.IsPlayable(nextID) {
		return "", ErrVideoLocked
	}

	if rec, ok := s.recorders[s.current]; ok {
		rec.Pause(ctx)
	}
	s.current = nextID
	s.recorder(ctx, nextID).Play()
	s.touch()
	return nextID, nil
}

// end stops the session: no new ticks are accepted; in-flight state is
// flushed best-effort.
func (s *Session) end(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	for _, rec := range s.recorders {
		rec.Stop(ctx)
	}
	s.ended = true
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// recorder lazily creates the per-video recorder; must hold s.mu.
func (s *Session) recorder(ctx context.Context, videoID string) *Recorder {
	rec, ok := s.recorders[videoID]
	if !ok {
		rec = NewRecorder(ctx, s.UserID, videoID, s.repo, s.logger, s.persistEvery, s.hooks)
		s.recorders[videoID] = rec
	}
	return rec
}
