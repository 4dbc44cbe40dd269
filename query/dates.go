package query

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate reports a date bound that is neither YYYY-MM-DD nor a relative keyword.
var ErrInvalidDate = errors.New("invalid date")

const dateLayout = "2006-01-02"

// Datetimes are indexed as int64 nanoseconds; bounds outside this window are
// rejected by the range query, so they are clamped to it.
var (
	minIndexableTime = time.Date(1677, time.December, 1, 0, 0, 0, 0, time.UTC)
	maxIndexableTime = time.Date(2262, time.April, 11, 11, 59, 59, 0, time.UTC)
)

// clampIndexable limits t to the range the index can represent.
func clampIndexable(t time.Time) time.Time {
	if t.Before(minIndexableTime) {
		return minIndexableTime
	}
	if t.After(maxIndexableTime) {
		return maxIndexableTime
	}
	return t
}

// parseDay parses a strict YYYY-MM-DD date as the start of that day in loc.
func parseDay(value string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return day, nil
}

// parseBound parses a range bound: YYYY-MM-DD, "today"/"сегодня" or
// "yesterday"/"вчера" (any case).
func parseBound(value string, now time.Time, loc *time.Location) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "today", "сегодня":
		return startOfDay(now.In(loc)), nil
	case "yesterday", "вчера":
		return startOfDay(now.In(loc)).AddDate(0, 0, -1), nil
	}
	return parseDay(value, loc)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay returns 23:59:59.999999999 of t's day.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// resolveRange turns optional bounds into an inclusive [start, end] interval.
// ok is false when both bounds are empty.
func resolveRange(startValue, endValue string, now time.Time, loc *time.Location) (start, end time.Time, ok bool, err error) {
	startValue = strings.TrimSpace(startValue)
	endValue = strings.TrimSpace(endValue)
	if startValue == "" && endValue == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	if startValue != "" {
		day, err := parseBound(startValue, now, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		start = startOfDay(day)
	} else {
		start = startOfDay(time.Unix(0, 0).In(loc))
	}

	if endValue != "" {
		day, err := parseBound(endValue, now, loc)
		if err != nil {
			return time.Time{}, time.Time{}, false, err
		}
		end = endOfDay(day)
	} else {
		end = endOfDay(now.In(loc))
	}
	return start, end, true, nil
}
