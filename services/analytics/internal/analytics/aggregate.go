package analytics

import (
	"math"

	"github.com/example/clipcast/services/analytics/internal/store"
)

// Stats is the aggregate view served for one clip.
type Stats struct {
	Views               int `json:"views"`
	AverageWatchPercent int `json:"averageWatchPercent"`
	UserWatchPercent    int `json:"userWatchPercent"`
}

// AverageWatchPercent returns the mean of all per-user watch percents,
// rounded half-up. An empty record yields 0.
func AverageWatchPercent(rec store.ContentRecord) int {
	if len(rec.Users) == 0 {
		return 0
	}
	sum := 0
	for _, p := range rec.Users {
		sum += p.WatchPercent
	}
	return int(math.Round(float64(sum) / float64(len(rec.Users))))
}

// StatsFor computes the full stats triple for the requesting user.
// An unknown user simply sees a 0 personal watch percent.
func StatsFor(rec store.ContentRecord, userID string) Stats {
	return Stats{
		Views:               rec.Views,
		AverageWatchPercent: AverageWatchPercent(rec),
		UserWatchPercent:    rec.Users[userID].WatchPercent,
	}
}
