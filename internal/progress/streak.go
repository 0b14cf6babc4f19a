package progress

import (
	"time"

	"github.com/samber/lo"
	"golang.org/x/exp/slices"
)

const dateLayout = "2006-01-02"

func completionDays(dates map[string]string) []time.Time {
	parsed := lo.FilterMap(lo.Values(dates), func(s string, _ int) (time.Time, bool) {
		t, err := time.Parse(dateLayout, s)
		return t, err == nil
	})
	days := lo.UniqBy(parsed, func(t time.Time) string { return t.Format(dateLayout) })
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })
	return days
}

// currentStreak counts consecutive calendar days with at least one
// completion, ending today or, if nothing was completed today, yesterday.
func currentStreak(dates map[string]string, now time.Time) int {
	present := lo.Associate(completionDays(dates), func(t time.Time) (string, struct{}) {
		return t.Format(dateLayout), struct{}{}
	})
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if _, ok := present[day.Format(dateLayout)]; !ok {
		day = day.AddDate(0, 0, -1)
	}
	streak := 0
	for {
		if _, ok := present[day.Format(dateLayout)]; !ok {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

func longestStreak(dates map[string]string) int {
	days := completionDays(dates)
	longest, run := 0, 0
	for i, d := range days {
		if i > 0 && days[i-1].AddDate(0, 0, 1).Equal(d) {
			run++
		} else {
			run = 1
		}
		longest = lo.Max([]int{longest, run})
	}
	return longest
}
