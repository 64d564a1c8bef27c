package watch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/mafunzo/core"
	"github.com/trezcool/mafunzo/core/playlist"
	"github.com/trezcool/mafunzo/core/video"
)

// SessionManager is the in-memory registry of active playback sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	repo         Repository
	logger       core.Logger
	persistEvery time.Duration
	hooks        RecorderHooks
}

func NewSessionManager(repo Repository, logger core.Logger, conf *core.Config, hooks RecorderHooks) *SessionManager {
	return &SessionManager{
		sessions:     make(map[string]*Session),
		repo:         repo,
		logger:       logger,
		persistEvery: conf.Playback.PersistInterval,
		hooks:        hooks,
	}
}

// Open assembles the playlist into modules, derives the initial unlock state
// from persisted completion data and starts playback on startVideoID.
// An empty selection or an unknown start video is a terminal ErrVideoNotFound;
// a locked start video is rejected with ErrVideoLocked and no session is kept.
func (m *SessionManager) Open(ctx context.Context, userID, startVideoID string, videos []video.Video, orders map[string][]string) (*Session, error) {
	modules := playlist.Assemble(videos, orders)
	if len(modules) == 0 {
		return nil, ErrVideoNotFound
	}
	if _, pos := locate(modules, startVideoID); pos < 0 {
		return nil, ErrVideoNotFound
	}

	completed, err := m.completedIn(ctx, userID, modules)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:           uuid.New().String(),
		UserID:       userID,
		Modules:      modules,
		state:        ComputeInitialState(modules, completed),
		recorders:    make(map[string]*Recorder),
		lastActivity: time.Now(),
		repo:         m.repo,
		logger:       m.logger,
		persistEvery: m.persistEvery,
		hooks:        m.hooks,
	}
	if err = sess.Start(ctx, startVideoID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess, nil
}

// Get returns the session only to its owning user.
func (m *SessionManager) Get(id, userID string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || sess.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// End stops a session and removes it from the registry. In-flight persistence
// completes; no new ticks are accepted afterwards.
func (m *SessionManager) End(ctx context.Context, id, userID string) error {
	sess, err := m.Get(id, userID)
	if err != nil {
		return err
	}
	sess.end(ctx)

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// PruneIdle ends sessions idle for longer than maxIdle; returns how many
// were pruned. Run it periodically from the server loop.
func (m *SessionManager) PruneIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, sess := range m.sessions {
		if sess.idleSince().Before(cutoff) {
			stale = append(stale, sess)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, sess := range stale {
		sess.end(ctx)
	}
	return len(stale)
}

// completedIn loads the user's completed set, restricted to the videos of the
// given modules.
func (m *SessionManager) completedIn(ctx context.Context, userID string, modules []playlist.Module) (map[string]bool, error) {
	events, err := m.repo.QueryUserEvents(ctx, userID)
	if err != nil {
		return nil, err
	}

	inPlaylist := make(map[string]bool)
	for _, mod := range modules {
		for _, v := range mod.Videos {
			inPlaylist[v.ID] = true
		}
	}

	completed := make(map[string]bool)
	for _, evt := range events {
		if evt.Completed && inPlaylist[evt.VideoID] {
			completed[evt.VideoID] = true
		}
	}
	return completed, nil
}
