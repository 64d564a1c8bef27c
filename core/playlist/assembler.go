package playlist

import (
	"sort"
	"strings"

	"github.com/trezcool/mafunzo/core/video"
)

// Assemble groups the given videos by category into an ordered list of
// modules:
//   - the compulsory Introduction module comes first when present in the input;
//   - remaining categories follow in the order they are first seen in the
//     input, scoped to the caller-provided selection only;
//   - the compulsory Additional Features and AI Tools modules always come
//     last, emitted even when empty so downstream indices stay stable;
//   - within a module, an admin ordering (category -> ordered video ids) is
//     applied when one exists; ids unknown to the module are ignored and
//     videos absent from the ordering are appended after, sorted by title.
//
// Assembly is deterministic: the same input always yields the same sequence.
func Assemble(videos []video.Video, orders map[string][]string) []Module {
	if len(videos) == 0 {
		return []Module{}
	}

	groups := make(map[string][]video.Video)
	categories := make(map[string]string) // key -> display category, first assignment wins
	var seen []string                     // keys in first-seen order

	for _, v := range videos {
		cat := strings.TrimSpace(v.Category)
		if cat == "" {
			cat = CategoryUncategorized
		}
		key := categoryKey(cat)
		if _, ok := groups[key]; !ok {
			categories[key] = cat
			seen = append(seen, key)
		}
		groups[key] = append(groups[key], v)
	}

	// admin orderings, keyed case-insensitively
	ordIdx := make(map[string][]string, len(orders))
	for cat, ids := range orders {
		ordIdx[categoryKey(cat)] = ids
	}

	introKey := categoryKey(CategoryIntroduction)
	extrasKey := categoryKey(CategoryAdditionalFeatures)
	aiKey := categoryKey(CategoryAITools)

	modules := make([]Module, 0, len(seen)+2)
	emit := func(key, displayCat string) {
		modules = append(modules, Module{
			Name:     ModuleName(displayCat),
			Category: displayCat,
			Videos:   applyOrder(groups[key], ordIdx[key]),
		})
	}

	// compulsory intro first, only when part of the selection
	if _, ok := groups[introKey]; ok {
		emit(introKey, categories[introKey])
	}

	for _, key := range seen {
		if key == introKey || key == extrasKey || key == aiKey {
			continue
		}
		emit(key, categories[key])
	}

	// compulsory trailing modules, present even when empty
	emitCompulsory := func(key, fallbackCat string) {
		cat, ok := categories[key]
		if !ok {
			cat = fallbackCat
		}
		emit(key, cat)
	}
	emitCompulsory(extrasKey, CategoryAdditionalFeatures)
	emitCompulsory(aiKey, CategoryAITools)

	return modules
}

// applyOrder sorts vids by their position in order; videos absent from the
// ordering come after all ordered ones, alphabetically by title. Ids in the
// ordering that do not belong to the module are ignored.
func applyOrder(vids []video.Video, order []string) []video.Video {
	res := make([]video.Video, len(vids))
	copy(res, vids)
	if len(order) == 0 {
		return res
	}

	pos := make(map[string]int, len(order))
	for i, id := range order {
		if _, ok := pos[id]; !ok {
			pos[id] = i
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		pi, iOrdered := pos[res[i].ID]
		pj, jOrdered := pos[res[j].ID]
		switch {
		case iOrdered && jOrdered:
			return pi < pj
		case iOrdered:
			return true
		case jOrdered:
			return false
		default:
			return res[i].Title < res[j].Title
		}
	})
	return res
}

func categoryKey(cat string) string {
	return strings.ToLower(strings.TrimSpace(cat))
}
