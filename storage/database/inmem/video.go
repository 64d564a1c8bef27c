package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/mafunzo/core/video"
)

type videoRepository struct {
	db *videoTable
}

func NewVideoRepository(db *DB) video.Repository {
	return &videoRepository{db: db.video}
}

func (repo *videoRepository) CreateVideo(_ context.Context, vid video.Video) (video.Video, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	vid.ID = uuid.New().String()
	repo.db.table[vid.ID] = &vid
	return vid, nil
}

func (repo *videoRepository) GetVideoByID(_ context.Context, id string) (video.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if vid, ok := repo.db.table[id]; ok {
		return *vid, nil
	}
	return video.Video{}, video.ErrNotFound
}

func (repo *videoRepository) QueryVideos(_ context.Context, filter *video.QueryFilter) ([]video.Video, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	videos := make([]video.Video, 0, len(repo.db.table))
	for _, vid := range repo.db.table {
		if filter == nil || matchesVideoFilter(*vid, filter) {
			videos = append(videos, *vid)
		}
	}
	return videos, nil
}

func matchesVideoFilter(vid video.Video, filter *video.QueryFilter) bool {
	if filter.Search != "" {
		kw := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(vid.Title), kw) &&
			!strings.Contains(strings.ToLower(vid.Description), kw) {
			return false
		}
	}
	if len(filter.Categories) > 0 {
		var match bool
		for _, cat := range filter.Categories {
			if strings.EqualFold(strings.TrimSpace(cat), strings.TrimSpace(vid.Category)) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if len(filter.IDs) > 0 {
		var match bool
		for _, id := range filter.IDs {
			if id == vid.ID {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func (repo *videoRepository) UpdateVideo(_ context.Context, vid video.Video) (video.Video, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// only save set fields
	origVid, ok := repo.db.table[vid.ID]
	if !ok {
		return video.Video{}, video.ErrNotFound
	}
	if vid.Title != "" {
		origVid.Title = vid.Title
	}
	if vid.Description != "" {
		origVid.Description = vid.Description
	}
	if vid.Category != "" {
		origVid.Category = vid.Category
	}
	if vid.Duration != "" {
		origVid.Duration = vid.Duration
	}
	if vid.Tags != nil {
		origVid.Tags = vid.Tags
	}
	if vid.ThumbnailURL != "" {
		origVid.ThumbnailURL = vid.ThumbnailURL
	}
	if vid.MediaURL != "" {
		origVid.MediaURL = vid.MediaURL
	}
	if !vid.UpdatedAt.IsZero() {
		origVid.UpdatedAt = vid.UpdatedAt
	}
	return *origVid, nil
}

func (repo *videoRepository) DeleteVideosByID(_ context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

func (repo *videoRepository) QueryCategoryOrders(_ context.Context) ([]video.CategoryOrder, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	ords := make([]video.CategoryOrder, 0, len(repo.db.orders))
	for _, ord := range repo.db.orders {
		ords = append(ords, *ord)
	}
	return ords, nil
}

func (repo *videoRepository) UpsertCategoryOrder(_ context.Context, ord video.CategoryOrder) (video.CategoryOrder, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.orders[ord.Category] = &ord
	return ord, nil
}
