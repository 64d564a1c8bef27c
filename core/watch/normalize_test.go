package watch

import (
	"testing"
	"time"
)

func TestNormalizeDoc(t *testing.T) {
	started := time.Date(2021, 3, 14, 9, 26, 53, 0, time.UTC)

	tests := []struct {
		name    string
		doc     map[string]interface{}
		want    Event
		wantErr bool
	}{
		{
			name: "canonical fields",
			doc: map[string]interface{}{
				"userId":        "u1",
				"videoId":       "v1",
				"progress":      float64(60),
				"lastPosition":  float64(72.5),
				"watchDuration": float64(130),
				"milestones":    []interface{}{float64(25), float64(50)},
				"startedAt":     "2021-03-14T09:26:53Z",
			},
			want: Event{
				UserID: "u1", VideoID: "v1",
				Progress: 60, LastPosition: 72.5, WatchDuration: 130,
				Milestones: []int{25, 50},
				StartedAt:  started,
			},
		},
		{
			name: "snake_case variants",
			doc: map[string]interface{}{
				"user_id":             "u1",
				"video_id":            "v1",
				"progress_percentage": float64(45),
				"current_time":        float64(12),
				"watch_time":          float64(30),
			},
			want: Event{
				UserID: "u1", VideoID: "v1",
				Progress: 45, LastPosition: 12, WatchDuration: 30,
			},
		},
		{
			name: "percent alias and unix-ms timestamp",
			doc: map[string]interface{}{
				"userId":    "u1",
				"videoId":   "v1",
				"percent":   float64(30),
				"startedAt": float64(1615714013000),
			},
			want: Event{
				UserID: "u1", VideoID: "v1",
				Progress:  30,
				StartedAt: time.Unix(1615714013, 0).UTC(),
			},
		},
		{
			name: "completed restores progress invariant",
			doc: map[string]interface{}{
				"userId":      "u1",
				"videoId":     "v1",
				"progress":    float64(87),
				"isCompleted": true,
			},
			want: Event{
				UserID: "u1", VideoID: "v1",
				Progress: 100, Completed: true, Milestones: []int{100},
			},
		},
		{
			name: "out-of-range progress clamped",
			doc: map[string]interface{}{
				"userId":   "u1",
				"videoId":  "v1",
				"progress": float64(250),
			},
			want: Event{UserID: "u1", VideoID: "v1", Progress: 100},
		},
		{
			name: "bogus milestones dropped",
			doc: map[string]interface{}{
				"userId":     "u1",
				"videoId":    "v1",
				"milestones": []interface{}{float64(25), float64(33), float64(25), "x"},
			},
			want: Event{UserID: "u1", VideoID: "v1", Milestones: []int{25}},
		},
		{
			name:    "missing user id",
			doc:     map[string]interface{}{"videoId": "v1", "progress": float64(10)},
			wantErr: true,
		},
		{
			name:    "missing video id",
			doc:     map[string]interface{}{"userId": "u1"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDoc(tt.doc)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeDoc() failed: %v", err)
			}
			if got.UserID != tt.want.UserID || got.VideoID != tt.want.VideoID ||
				got.Progress != tt.want.Progress || got.Completed != tt.want.Completed ||
				got.LastPosition != tt.want.LastPosition || got.WatchDuration != tt.want.WatchDuration {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if len(got.Milestones) != len(tt.want.Milestones) {
				t.Errorf("milestones = %v, want %v", got.Milestones, tt.want.Milestones)
			} else {
				for i := range got.Milestones {
					if got.Milestones[i] != tt.want.Milestones[i] {
						t.Errorf("milestones = %v, want %v", got.Milestones, tt.want.Milestones)
						break
					}
				}
			}
			if !got.StartedAt.Equal(tt.want.StartedAt) {
				t.Errorf("startedAt = %v, want %v", got.StartedAt, tt.want.StartedAt)
			}
		})
	}
}
