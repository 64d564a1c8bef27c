package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/mafunzo/core/video"
)

var videoColumns = []string{
	"id", "title", "description", "category", "duration", "tags",
	"thumbnail_url", "media_url", "created_at", "updated_at",
}

type videoRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Description  null.String    `db:"description"`
	Category     null.String    `db:"category"`
	Duration     null.String    `db:"duration"`
	Tags         pq.StringArray `db:"tags"`
	ThumbnailURL null.String    `db:"thumbnail_url"`
	MediaURL     string         `db:"media_url"`
	CreatedAt    null.Time      `db:"created_at"`
	UpdatedAt    null.Time      `db:"updated_at"`
}

type videoRepository struct {
	db *sqlx.DB
}

var _ video.Repository = (*videoRepository)(nil) // interface compliance check

func NewVideoRepository(db *sqlx.DB) *videoRepository {
	return &videoRepository{db: db}
}

func (repo videoRepository) pack(vid video.Video) videoRow {
	return videoRow{
		ID:           vid.ID,
		Title:        vid.Title,
		Description:  null.NewString(vid.Description, vid.Description != ""),
		Category:     null.NewString(vid.Category, vid.Category != ""),
		Duration:     null.NewString(vid.Duration, vid.Duration != ""),
		Tags:         vid.Tags,
		ThumbnailURL: null.NewString(vid.ThumbnailURL, vid.ThumbnailURL != ""),
		MediaURL:     vid.MediaURL,
		CreatedAt:    null.NewTime(vid.CreatedAt.UTC(), !vid.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(vid.UpdatedAt.UTC(), !vid.UpdatedAt.IsZero()),
	}
}

func (repo videoRepository) unpack(row videoRow) video.Video {
	return video.Video{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description.String,
		Category:     row.Category.String,
		Duration:     row.Duration.String,
		Tags:         row.Tags,
		ThumbnailURL: row.ThumbnailURL.String,
		MediaURL:     row.MediaURL,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}

func (repo videoRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return video.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo videoRepository) CreateVideo(ctx context.Context, vid video.Video) (video.Video, error) {
	vid.ID = uuid.New().String()
	row := repo.pack(vid)
	query := fmt.Sprintf(
		"INSERT INTO video (%s) VALUES (%s)",
		strings.Join(videoColumns, ", "),
		strmangle.Placeholders(true, len(videoColumns), 1, 1),
	)
	if _, err := repo.db.ExecContext(ctx, query,
		row.ID, row.Title, row.Description, row.Category, row.Duration, row.Tags,
		row.ThumbnailURL, row.MediaURL, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return video.Video{}, errors.Wrap(err, "inserting video")
	}
	return repo.unpack(row), nil
}

func (repo videoRepository) GetVideoByID(ctx context.Context, id string) (video.Video, error) {
	if _, err := uuid.Parse(id); err != nil {
		return video.Video{}, video.ErrNotFound
	}
	var row videoRow
	if err := repo.db.GetContext(ctx, &row, "SELECT * FROM video WHERE id = $1", id); err != nil {
		return video.Video{}, repo.trapNoRowsErr(err, "finding video by ID")
	}
	return repo.unpack(row), nil
}

func (repo videoRepository) QueryVideos(ctx context.Context, filter *video.QueryFilter) ([]video.Video, error) {
	query := "SELECT * FROM video"
	var where []string
	var args []interface{}

	arg := func(val interface{}) string {
		args = append(args, val)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		// videos with Title or Description matching the search keyword
		if filter.Search != "" {
			p := arg("%" + filter.Search + "%")
			where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %[1]s)", p))
		}
		if len(filter.Categories) > 0 {
			cats := make([]string, 0, len(filter.Categories))
			for _, cat := range filter.Categories {
				cats = append(cats, strings.ToLower(strings.TrimSpace(cat)))
			}
			where = append(where, fmt.Sprintf("LOWER(category) = ANY(%s)", arg(pq.StringArray(cats))))
		}
		if len(filter.IDs) > 0 {
			where = append(where, fmt.Sprintf("id = ANY(%s)", arg(pq.StringArray(filter.IDs))))
		}
	}

	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at"

	var rows []videoRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying videos")
	}
	videos := make([]video.Video, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, repo.unpack(row))
	}
	return videos, nil
}

func (repo videoRepository) UpdateVideo(ctx context.Context, vid video.Video) (video.Video, error) {
	// only save set fields
	var cols []string
	var args []interface{}
	set := func(col string, val interface{}) {
		cols = append(cols, col)
		args = append(args, val)
	}

	if vid.Title != "" {
		set("title", vid.Title)
	}
	if vid.Description != "" {
		set("description", vid.Description)
	}
	if vid.Category != "" {
		set("category", vid.Category)
	}
	if vid.Duration != "" {
		set("duration", vid.Duration)
	}
	if vid.Tags != nil {
		set("tags", pq.StringArray(vid.Tags))
	}
	if vid.ThumbnailURL != "" {
		set("thumbnail_url", vid.ThumbnailURL)
	}
	if vid.MediaURL != "" {
		set("media_url", vid.MediaURL)
	}
	if !vid.UpdatedAt.IsZero() {
		set("updated_at", vid.UpdatedAt.UTC())
	}
	if len(cols) == 0 {
		return repo.GetVideoByID(ctx, vid.ID)
	}

	query := fmt.Sprintf(
		"UPDATE video SET %s WHERE %s RETURNING *",
		strmangle.SetParamNames(`"`, `"`, 1, cols),
		strmangle.WhereClause(`"`, `"`, len(cols)+1, []string{"id"}),
	)
	args = append(args, vid.ID)

	var row videoRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		return video.Video{}, repo.trapNoRowsErr(err, "updating video")
	}
	return repo.unpack(row), nil
}

func (repo videoRepository) DeleteVideosByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil // an empty IN () is a syntax error
	}
	query := fmt.Sprintf("DELETE FROM video WHERE id IN (%s)", strmangle.Placeholders(true, len(ids), 1, 1))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := repo.db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "deleting videos")
	}
	return nil
}

type orderRow struct {
	Category  string         `db:"category"`
	VideoIDs  pq.StringArray `db:"video_ids"`
	UpdatedAt null.Time      `db:"updated_at"`
}

func (repo videoRepository) QueryCategoryOrders(ctx context.Context) ([]video.CategoryOrder, error) {
	var rows []orderRow
	if err := repo.db.SelectContext(ctx, &rows, "SELECT * FROM category_order ORDER BY category"); err != nil {
		return nil, errors.Wrap(err, "querying category orders")
	}
	ords := make([]video.CategoryOrder, 0, len(rows))
	for _, row := range rows {
		ords = append(ords, video.CategoryOrder{
			Category:  row.Category,
			VideoIDs:  row.VideoIDs,
			UpdatedAt: row.UpdatedAt.Time,
		})
	}
	return ords, nil
}

func (repo videoRepository) UpsertCategoryOrder(ctx context.Context, ord video.CategoryOrder) (video.CategoryOrder, error) {
	query := `
		INSERT INTO category_order (category, video_ids, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (category) DO UPDATE SET video_ids = EXCLUDED.video_ids, updated_at = EXCLUDED.updated_at`
	if _, err := repo.db.ExecContext(ctx, query,
		ord.Category, pq.StringArray(ord.VideoIDs), null.NewTime(ord.UpdatedAt.UTC(), !ord.UpdatedAt.IsZero()),
	); err != nil {
		return video.CategoryOrder{}, errors.Wrap(err, "upserting category order")
	}
	return ord, nil
}
