package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/mafunzo/core/watch"
)

type watchEventRow struct {
	UserID         string        `db:"user_id"`
	VideoID        string        `db:"video_id"`
	Progress       int           `db:"progress"`
	Completed      bool          `db:"completed"`
	LastPosition   float64       `db:"last_position"`
	Milestones     pq.Int64Array `db:"milestones"`
	WatchDuration  float64       `db:"watch_duration"`
	FirstWatchedAt null.Time     `db:"first_watched_at"`
	LastWatchedAt  null.Time     `db:"last_watched_at"`
	StartedAt      null.Time     `db:"started_at"`
	EndedAt        null.Time     `db:"ended_at"`
}

type watchEventRepository struct {
	db *sqlx.DB
}

var _ watch.Repository = (*watchEventRepository)(nil) // interface compliance check

func NewWatchEventRepository(db *sqlx.DB) *watchEventRepository {
	return &watchEventRepository{db: db}
}

func (repo watchEventRepository) pack(evt watch.Event) watchEventRow {
	milestones := make(pq.Int64Array, 0, len(evt.Milestones))
	for _, m := range evt.Milestones {
		milestones = append(milestones, int64(m))
	}
	return watchEventRow{
		UserID:         evt.UserID,
		VideoID:        evt.VideoID,
		Progress:       evt.Progress,
		Completed:      evt.Completed,
		LastPosition:   evt.LastPosition,
		Milestones:     milestones,
		WatchDuration:  evt.WatchDuration,
		FirstWatchedAt: null.NewTime(evt.FirstWatchedAt.UTC(), !evt.FirstWatchedAt.IsZero()),
		LastWatchedAt:  null.NewTime(evt.LastWatchedAt.UTC(), !evt.LastWatchedAt.IsZero()),
		StartedAt:      null.NewTime(evt.StartedAt.UTC(), !evt.StartedAt.IsZero()),
		EndedAt:        null.NewTime(evt.EndedAt.UTC(), !evt.EndedAt.IsZero()),
	}
}

func (repo watchEventRepository) unpack(row watchEventRow) watch.Event {
	milestones := make([]int, 0, len(row.Milestones))
	for _, m := range row.Milestones {
		milestones = append(milestones, int(m))
	}
	return watch.Event{
		UserID:         row.UserID,
		VideoID:        row.VideoID,
		Progress:       row.Progress,
		Completed:      row.Completed,
		LastPosition:   row.LastPosition,
		Milestones:     milestones,
		WatchDuration:  row.WatchDuration,
		FirstWatchedAt: row.FirstWatchedAt.Time,
		LastWatchedAt:  row.LastWatchedAt.Time,
		StartedAt:      row.StartedAt.Time,
		EndedAt:        row.EndedAt.Time,
	}
}

func (repo watchEventRepository) unpackSlice(rows []watchEventRow) []watch.Event {
	events := make([]watch.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, repo.unpack(row))
	}
	return events
}

func (repo watchEventRepository) GetEvent(ctx context.Context, userID, videoID string) (watch.Event, error) {
	var row watchEventRow
	err := repo.db.GetContext(ctx, &row,
		"SELECT * FROM watch_event WHERE user_id = $1 AND video_id = $2", userID, videoID)
	if err != nil {
		if err == sql.ErrNoRows {
			return watch.Event{}, watch.ErrEventNotFound
		}
		return watch.Event{}, errors.Wrap(err, "finding watch event")
	}
	return repo.unpack(row), nil
}

func (repo watchEventRepository) QueryUserEvents(ctx context.Context, userID string) ([]watch.Event, error) {
	var rows []watchEventRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT * FROM watch_event WHERE user_id = $1 ORDER BY last_watched_at DESC NULLS LAST", userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying watch events")
	}
	return repo.unpackSlice(rows), nil
}

func (repo watchEventRepository) QueryAllEvents(ctx context.Context) ([]watch.Event, error) {
	var rows []watchEventRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM watch_event ORDER BY user_id, video_id"); err != nil {
		return nil, errors.Wrap(err, "querying watch events")
	}
	return repo.unpackSlice(rows), nil
}

func (repo watchEventRepository) UpsertEvent(ctx context.Context, evt watch.Event) (watch.Event, error) {
	row := repo.pack(evt)
	query := `
		INSERT INTO watch_event (
			user_id, video_id, progress, completed, last_position, milestones,
			watch_duration, first_watched_at, last_watched_at, started_at, ended_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, video_id) DO UPDATE SET
			progress         = EXCLUDED.progress,
			completed        = EXCLUDED.completed,
			last_position    = EXCLUDED.last_position,
			milestones       = EXCLUDED.milestones,
			watch_duration   = EXCLUDED.watch_duration,
			first_watched_at = COALESCE(watch_event.first_watched_at, EXCLUDED.first_watched_at),
			last_watched_at  = EXCLUDED.last_watched_at,
			started_at       = EXCLUDED.started_at,
			ended_at         = EXCLUDED.ended_at`
	if _, err := repo.db.ExecContext(ctx, query,
		row.UserID, row.VideoID, row.Progress, row.Completed, row.LastPosition, row.Milestones,
		row.WatchDuration, row.FirstWatchedAt, row.LastWatchedAt, row.StartedAt, row.EndedAt,
	); err != nil {
		return watch.Event{}, errors.Wrap(err, "upserting watch event")
	}
	return evt, nil
}
