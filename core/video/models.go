package video

import (
	"time"

	"github.com/trezcool/mafunzo/core"
)

// Video is a single training video. It is owned by content admins; the watch
// core only ever reads it.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	Duration     string    `json:"duration,omitempty"` // free text, minutes-ish
	Tags         []string  `json:"tags,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	MediaURL     string    `json:"media_url"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewVideo contains information needed to register a new Video.
type NewVideo struct {
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Duration     string   `json:"duration"`
	Tags         []string `json:"tags"`
	ThumbnailURL string   `json:"thumbnail_url" validate:"omitempty,url"`
	MediaURL     string   `json:"media_url" validate:"required,url"`
}

func (nv *NewVideo) Validate() error {
	nv.Title = core.CleanString(nv.Title)
	nv.Category = core.CleanString(nv.Category)
	return core.Validate.Struct(nv)
}

// UpdateVideo defines what information may be provided to modify an existing Video.
// Zero-valued fields are left untouched.
type UpdateVideo struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	Duration     string   `json:"duration"`
	Tags         []string `json:"tags"`
	ThumbnailURL string   `json:"thumbnail_url" validate:"omitempty,url"`
	MediaURL     string   `json:"media_url" validate:"omitempty,url"`
}

func (uv *UpdateVideo) Validate() error {
	uv.Title = core.CleanString(uv.Title)
	uv.Category = core.CleanString(uv.Category)
	return core.Validate.Struct(uv)
}

// CategoryOrder is the admin-supplied explicit video ordering for one category.
type CategoryOrder struct {
	Category  string    `json:"category"`
	VideoIDs  []string  `json:"video_ids"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (co *CategoryOrder) Validate() error {
	co.Category = core.CleanString(co.Category)
	if co.Category == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "category", Error: "this field is required"})
	}
	return nil
}

// QueryFilter applies an AND operation on its set fields.
// Search does a case-insensitive match on one of Title or Description.
type QueryFilter struct {
	Search     string
	Categories []string
	IDs        []string
}
