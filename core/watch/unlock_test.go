package watch

import (
	"testing"

	"github.com/trezcool/mafunzo/core/playlist"
	"github.com/trezcool/mafunzo/core/video"
)

func mod(category string, ids ...string) playlist.Module {
	vids := make([]video.Video, 0, len(ids))
	for _, id := range ids {
		vids = append(vids, video.Video{ID: id, Title: id, Category: category})
	}
	return playlist.Module{Name: category, Category: category, Videos: vids}
}

func TestComputeInitialState(t *testing.T) {
	modules := []playlist.Module{
		mod("Sales", "A", "B", "C"),
		mod("QA", "D", "E"),
	}

	tests := []struct {
		name      string
		completed map[string]bool
		want      UnlockState
	}{
		{
			name: "no history",
			want: UnlockState{"A": StateUnlocked, "B": StateLocked, "C": StateLocked, "D": StateUnlocked, "E": StateLocked},
		},
		{
			name:      "first completed unlocks second",
			completed: map[string]bool{"A": true},
			want:      UnlockState{"A": StateCompleted, "B": StateUnlocked, "C": StateLocked, "D": StateUnlocked, "E": StateLocked},
		},
		{
			name:      "out of order completion does not unlock predecessors",
			completed: map[string]bool{"C": true},
			want:      UnlockState{"A": StateUnlocked, "B": StateLocked, "C": StateCompleted, "D": StateUnlocked, "E": StateLocked},
		},
		{
			name:      "module independence",
			completed: map[string]bool{"D": true, "E": true},
			want:      UnlockState{"A": StateUnlocked, "B": StateLocked, "C": StateLocked, "D": StateCompleted, "E": StateCompleted},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeInitialState(modules, tt.completed)
			assertState(t, got, tt.want)
		})
	}
}

func TestOnVideoCompleted(t *testing.T) {
	modules := []playlist.Module{
		mod("Sales", "A", "B", "C"),
		mod("QA", "D", "E"),
	}
	initial := ComputeInitialState(modules, nil)

	st := OnVideoCompleted(initial, modules, "A")
	assertState(t, st, UnlockState{"A": StateCompleted, "B": StateUnlocked, "C": StateLocked, "D": StateUnlocked, "E": StateLocked})

	// input map untouched
	if initial["A"] != StateUnlocked || initial["B"] != StateLocked {
		t.Errorf("OnVideoCompleted mutated its input: %v", initial)
	}

	// idempotent
	st2 := OnVideoCompleted(st, modules, "A")
	assertState(t, st2, st)

	// completing the last video finishes the module, no cross-module effect
	st3 := OnVideoCompleted(st2, modules, "C")
	assertState(t, st3, UnlockState{"A": StateCompleted, "B": StateUnlocked, "C": StateCompleted, "D": StateUnlocked, "E": StateLocked})

	// never downgrades an already-completed successor
	st4 := OnVideoCompleted(st3, modules, "B")
	if st4["C"] != StateCompleted {
		t.Errorf("state(C) = %v, want completed", st4["C"])
	}

	// unknown video is a no-op
	st5 := OnVideoCompleted(st4, modules, "nope")
	assertState(t, st5, st4)
}

func TestIsPlayable(t *testing.T) {
	st := UnlockState{"A": StateCompleted, "B": StateUnlocked, "C": StateLocked}
	tests := []struct {
		id   string
		want bool
	}{
		{"A", true},
		{"B", true},
		{"C", false},
		{"unknown", false},
	}
	for _, tt := range tests {
		if got := st.IsPlayable(tt.id); got != tt.want {
			t.Errorf("IsPlayable(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func assertState(t *testing.T, got, want UnlockState) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("state = %v, want %v", got, want)
	}
	for id, s := range want {
		if got[id] != s {
			t.Errorf("state(%s) = %v, want %v", id, got[id], s)
		}
	}
}
