package video

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("video not found")
)

type (
	Repository interface {
		CreateVideo(ctx context.Context, vid Video) (Video, error)
		GetVideoByID(ctx context.Context, id string) (Video, error)
		QueryVideos(ctx context.Context, filter *QueryFilter) ([]Video, error)
		UpdateVideo(ctx context.Context, vid Video) (Video, error)
		DeleteVideosByID(ctx context.Context, ids ...string) error

		QueryCategoryOrders(ctx context.Context) ([]CategoryOrder, error)
		UpsertCategoryOrder(ctx context.Context, ord CategoryOrder) (CategoryOrder, error)
	}

	Service interface {
		Create(ctx context.Context, nv NewVideo) (Video, error)
		GetByID(ctx context.Context, id string) (Video, error)
		Query(ctx context.Context, filter *QueryFilter) ([]Video, error)
		Update(ctx context.Context, id string, uv UpdateVideo) (Video, error)
		Delete(ctx context.Context, ids ...string) error

		// CategoryOrders returns the admin orderings keyed by category.
		CategoryOrders(ctx context.Context) (map[string][]string, error)
		SetCategoryOrder(ctx context.Context, ord CategoryOrder) (CategoryOrder, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nv NewVideo) (Video, error) {
	now := time.Now().UTC()
	vid := Video{
		Title:        nv.Title,
		Description:  nv.Description,
		Category:     nv.Category,
		Duration:     nv.Duration,
		Tags:         nv.Tags,
		ThumbnailURL: nv.ThumbnailURL,
		MediaURL:     nv.MediaURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateVideo(ctx, vid)
}

func (svc *service) GetByID(ctx context.Context, id string) (Video, error) {
	return svc.repo.GetVideoByID(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter) ([]Video, error) {
	return svc.repo.QueryVideos(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, uv UpdateVideo) (Video, error) {
	vid := Video{
		ID:           id,
		Title:        uv.Title,
		Description:  uv.Description,
		Category:     uv.Category,
		Duration:     uv.Duration,
		Tags:         uv.Tags,
		ThumbnailURL: uv.ThumbnailURL,
		MediaURL:     uv.MediaURL,
		UpdatedAt:    time.Now().UTC(),
	}
	return svc.repo.UpdateVideo(ctx, vid)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteVideosByID(ctx, ids...)
}

func (svc *service) CategoryOrders(ctx context.Context) (map[string][]string, error) {
	ords, err := svc.repo.QueryCategoryOrders(ctx)
	if err != nil {
		return nil, err
	}
	res := make(map[string][]string, len(ords))
	for _, ord := range ords {
		res[ord.Category] = ord.VideoIDs
	}
	return res, nil
}

func (svc *service) SetCategoryOrder(ctx context.Context, ord CategoryOrder) (CategoryOrder, error) {
	if err := ord.Validate(); err != nil {
		return CategoryOrder{}, err
	}
	ord.UpdatedAt = time.Now().UTC()
	return svc.repo.UpsertCategoryOrder(ctx, ord)
}
