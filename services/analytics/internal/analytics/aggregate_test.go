package analytics

import (
	"testing"

	"github.com/example/clipcast/services/analytics/internal/store"
)

func recordWith(percents ...int) store.ContentRecord {
	rec := store.NewContentRecord()
	for i, p := range percents {
		rec.Users[string(rune('a'+i))] = store.UserProgress{WatchPercent: p}
	}
	rec.Views = len(percents)
	return rec
}

func TestAverageWatchPercent_Empty(t *testing.T) {
	if avg := AverageWatchPercent(store.NewContentRecord()); avg != 0 {
		t.Fatalf("expected 0 for empty record, got %d", avg)
	}
}

func TestAverageWatchPercent(t *testing.T) {
	cases := []struct {
		percents []int
		want     int
	}{
		{[]int{100, 50, 0}, 50},
		{[]int{33, 34}, 34}, // 33.5 rounds half-up
		{[]int{40, 90}, 65},
		{[]int{1}, 1},
		{[]int{0, 0, 0}, 0},
		{[]int{100, 100}, 100},
	}
	for _, tc := range cases {
		if got := AverageWatchPercent(recordWith(tc.percents...)); got != tc.want {
			t.Fatalf("average of %v: expected %d, got %d", tc.percents, tc.want, got)
		}
	}
}

func TestStatsFor(t *testing.T) {
	rec := store.NewContentRecord()
	rec.Views = 2
	rec.Users["user-a"] = store.UserProgress{WatchPercent: 40}
	rec.Users["user-b"] = store.UserProgress{WatchPercent: 90}

	got := StatsFor(rec, "user-a")
	if got.Views != 2 {
		t.Fatalf("expected 2 views, got %d", got.Views)
	}
	if got.AverageWatchPercent != 65 {
		t.Fatalf("expected average 65, got %d", got.AverageWatchPercent)
	}
	if got.UserWatchPercent != 40 {
		t.Fatalf("expected user percent 40, got %d", got.UserWatchPercent)
	}
}

func TestStatsFor_UnknownUser(t *testing.T) {
	rec := store.NewContentRecord()
	rec.Views = 1
	rec.Users["user-a"] = store.UserProgress{WatchPercent: 80}

	got := StatsFor(rec, "stranger")
	if got.UserWatchPercent != 0 {
		t.Fatalf("expected 0 for unknown user, got %d", got.UserWatchPercent)
	}
}
