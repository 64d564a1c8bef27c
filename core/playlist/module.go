package playlist

import (
	"strings"

	"github.com/trezcool/mafunzo/core/video"
)

// Compulsory categories. Introduction always leads the module list when its
// videos are part of the selection; Additional Features and AI Tools always
// trail it, even when empty.
const (
	CategoryIntroduction       = "Introduction"
	CategoryAdditionalFeatures = "Additional Features"
	CategoryAITools            = "AI Tools"
	CategoryUncategorized      = "Uncategorized"
)

// Module is a named, ordered grouping of videos sharing a category. It is
// derived at assembly time and never persisted; callers must treat it as a
// value, always rebuilt from the source video list + order overrides.
type Module struct {
	Name     string        `json:"name"`
	Category string        `json:"category"`
	Videos   []video.Video `json:"videos"`
}

func (m Module) IsEmpty() bool { return len(m.Videos) == 0 }

// VideoIDs returns the module's video identifiers in playback order.
func (m Module) VideoIDs() []string {
	ids := make([]string, 0, len(m.Videos))
	for _, v := range m.Videos {
		ids = append(ids, v.ID)
	}
	return ids
}

// ModuleName derives a module's display name from its category, stripping a
// trailing "Overview" ("Sales Overview" -> "Sales").
func ModuleName(category string) string {
	name := strings.TrimSpace(category)
	if stripped := strings.TrimSuffix(strings.ToLower(name), "overview"); len(stripped) < len(name) {
		name = strings.TrimSpace(name[:len(stripped)])
	}
	if name == "" {
		return category
	}
	return name
}
