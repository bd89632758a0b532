package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cutoff is a seller's order cutoff clock time.
type cutoff struct {
	hour   int
	minute int
	second int
}

// parseCutoff accepts "HH:MM" or "HH:MM:SS".
func parseCutoff(raw string) (cutoff, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return cutoff{}, fmt.Errorf("invalid cutoff time %q", raw)
	}
	fields := make([]int, 3)
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil || v < 0 {
			return cutoff{}, fmt.Errorf("invalid cutoff time %q", raw)
		}
		fields[i] = v
	}
	c := cutoff{hour: fields[0], minute: fields[1], second: fields[2]}
	if c.hour > 23 || c.minute > 59 || c.second > 59 {
		return cutoff{}, fmt.Errorf("invalid cutoff time %q", raw)
	}
	return c, nil
}

// DeliveryDate computes the earliest delivery date for an order placed at
// now: before or at the seller's cutoff the order ships tomorrow, after it
// the day after tomorrow. The returned date is midnight in the seller's
// timezone.
func DeliveryDate(now time.Time, cutoffTime, timezone string) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	c, err := parseCutoff(cutoffTime)
	if err != nil {
		return time.Time{}, err
	}

	local := now.In(loc)
	cutoffToday := time.Date(local.Year(), local.Month(), local.Day(), c.hour, c.minute, c.second, 0, loc)

	days := 1
	if local.After(cutoffToday) {
		days = 2
	}
	next := local.AddDate(0, 0, days)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, loc), nil
}

// CancelDeadline computes the latest instant an order may still be canceled:
// the seller's cutoff on the day before delivery, minus the configured grace
// window.
func CancelDeadline(deliveryDate time.Time, cutoffTime, timezone string, hoursBefore int) (time.Time, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	c, err := parseCutoff(cutoffTime)
	if err != nil {
		return time.Time{}, err
	}

	day := deliveryDate.In(loc).AddDate(0, 0, -1)
	deadline := time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.minute, c.second, 0, loc)
	return deadline.Add(-time.Duration(hoursBefore) * time.Hour), nil
}

// CanCancel reports whether an order is still inside its cancellation window.
// Orders containing fresh goods are never cancelable.
func CanCancel(now, deliveryDate time.Time, cutoffTime, timezone string, hoursBefore int, containsFresh bool) (bool, error) {
	if containsFresh {
		return false, nil
	}
	deadline, err := CancelDeadline(deliveryDate, cutoffTime, timezone, hoursBefore)
	if err != nil {
		return false, err
	}
	return !now.After(deadline), nil
}
