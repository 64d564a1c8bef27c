package playlist

import (
	"reflect"
	"testing"

	"github.com/trezcool/mafunzo/core/video"
)

func vid(id, title, category string) video.Video {
	return video.Video{ID: id, Title: title, Category: category, MediaURL: "https://cdn.test/" + id + ".mp4"}
}

func moduleIDs(mods []Module) map[string][]string {
	res := make(map[string][]string, len(mods))
	for _, m := range mods {
		res[m.Category] = m.VideoIDs()
	}
	return res
}

func categories(mods []Module) []string {
	cats := make([]string, 0, len(mods))
	for _, m := range mods {
		cats = append(cats, m.Category)
	}
	return cats
}

func TestAssemble_emptyInput(t *testing.T) {
	if mods := Assemble(nil, nil); len(mods) != 0 {
		t.Errorf("Assemble(nil) = %v, want empty", mods)
	}
}

func TestAssemble_categoryOrdering(t *testing.T) {
	videos := []video.Video{
		vid("s1", "Pitching", "Sales"),
		vid("q1", "Bug Reports", "QA"),
		vid("i1", "Welcome", "Introduction"),
		vid("s2", "Closing", "Sales"),
		vid("x1", "Shortcuts", "Additional Features"),
	}

	mods := Assemble(videos, nil)

	want := []string{"Introduction", "Sales", "QA", "Additional Features", "AI Tools"}
	if got := categories(mods); !reflect.DeepEqual(got, want) {
		t.Fatalf("categories = %v, want %v", got, want)
	}

	// compulsory AI Tools module still present, empty
	last := mods[len(mods)-1]
	if !last.IsEmpty() {
		t.Errorf("AI Tools module should be empty, got %v", last.Videos)
	}
}

func TestAssemble_uncategorizedFallback(t *testing.T) {
	mods := Assemble([]video.Video{vid("v1", "Mystery", "")}, nil)
	if mods[0].Category != CategoryUncategorized {
		t.Errorf("category = %q, want %q", mods[0].Category, CategoryUncategorized)
	}
}

func TestAssemble_adminOrder(t *testing.T) {
	videos := []video.Video{
		vid("a", "Alpha", "Sales"),
		vid("b", "Bravo", "Sales"),
		vid("c", "Charlie", "Sales"),
		vid("d", "Delta", "Sales"),
	}
	// "zz" does not belong to the module and must be ignored; "a" and "d" are
	// unlisted and must come after, by title.
	orders := map[string][]string{"Sales": {"c", "zz", "b"}}

	mods := Assemble(videos, orders)
	got := moduleIDs(mods)["Sales"]
	want := []string{"c", "b", "a", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ordered ids = %v, want %v", got, want)
	}
}

func TestAssemble_deterministicFallback(t *testing.T) {
	videos := []video.Video{
		vid("b", "Bravo", "Sales"),
		vid("a", "Alpha", "Sales"),
		vid("c", "Charlie", "QA"),
	}
	first := Assemble(videos, nil)
	second := Assemble(videos, nil)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Assemble is not deterministic:\n%v\n%v", first, second)
	}
	// fallback keeps input order
	if got := moduleIDs(first)["Sales"]; !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("fallback order = %v, want input order [b a]", got)
	}
}

func TestAssemble_noDuplicateCategories(t *testing.T) {
	videos := []video.Video{
		vid("a", "Alpha", "Sales"),
		vid("b", "Bravo", "sales"), // same category, different case
	}
	mods := Assemble(videos, nil)

	var salesModules int
	for _, m := range mods {
		if ModuleName(m.Category) == "Sales" {
			salesModules++
			if got := m.VideoIDs(); !reflect.DeepEqual(got, []string{"a", "b"}) {
				t.Errorf("merged ids = %v, want [a b]", got)
			}
		}
	}
	if salesModules != 1 {
		t.Errorf("sales modules = %d, want 1", salesModules)
	}
}

func TestModuleName(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"Sales Overview", "Sales"},
		{"Sales", "Sales"},
		{"AI Tools", "AI Tools"},
		{"Overview", "Overview"},
		{"QA overview", "QA"},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := ModuleName(tt.category); got != tt.want {
				t.Errorf("ModuleName(%q) = %q, want %q", tt.category, got, tt.want)
			}
		})
	}
}
