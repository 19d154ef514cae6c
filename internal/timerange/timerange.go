package timerange

import (
	"fmt"
	"strings"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/globaltime"
)

// Window is a half-open [From, To) UTC interval. Nil bounds are unbounded.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Resolve maps a period token to a concrete window. Supported tokens:
// "today", "yesterday", "7d", "30d", "custom" (requires start/end as
// YYYY-MM-DD, end day inclusive) and "" or "all" for an unbounded window.
func Resolve(period, startRaw, endRaw string) (Window, error) {
	token := strings.TrimSpace(strings.ToLower(period))
	now := globaltime.UTC()
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch token {
	case "", "all":
		return Window{}, nil
	case "today":
		return dayWindow(todayStart, 1), nil
	case "yesterday":
		return dayWindow(todayStart.AddDate(0, 0, -1), 1), nil
	case "7d":
		return dayWindow(todayStart.AddDate(0, 0, -6), 7), nil
	case "30d":
		return dayWindow(todayStart.AddDate(0, 0, -29), 30), nil
	case "custom":
		return resolveCustom(startRaw, endRaw)
	default:
		return Window{}, fmt.Errorf("unknown period %q", period)
	}
}

func dayWindow(start time.Time, days int) Window {
	end := start.AddDate(0, 0, days)
	return Window{From: &start, To: &end}
}

func resolveCustom(startRaw, endRaw string) (Window, error) {
	startDay, err := parseUTCDate(startRaw)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start date: %w", err)
	}
	endDay, err := parseUTCDate(endRaw)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end date: %w", err)
	}
	if endDay.Before(startDay) {
		return Window{}, fmt.Errorf("start must be <= end")
	}

	end := endDay.AddDate(0, 0, 1)
	return Window{From: &startDay, To: &end}, nil
}

func parseUTCDate(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	day, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("must be YYYY-MM-DD")
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC), nil
}
