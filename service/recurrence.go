package services

import (
	"time"

	model "github.com/arnavb7/CompliFlow/models"
)

// NextOccurrence computes the next date an item with the given frequency and
// anchor day falls due, strictly after reference for every recurring
// frequency, whatever the anchor. It is pure and total: an unrecognized (or
// non-recurring) frequency returns the reference date unchanged.
//
// For weekly frequencies anchorDay is a weekday index 1-7 (Monday=1); an
// out-of-range anchor advances a full week. For the month-based frequencies
// anchorDay is a day of month; when the anchor day exceeds the target
// month's length the date rolls into the following month (time.Date
// normalization), e.g. anchor 31 applied to February yields March 2 or 3.
func NextOccurrence(freq model.Frequency, anchorDay int, reference time.Time) time.Time {
	ref := DateOnly(reference)

	switch freq {
	case model.FrequencyWeekly:
		return nextWeekday(ref, anchorDay)
	case model.FrequencyMonthly, model.FrequencyBimonthly, model.FrequencyQuarterly, model.FrequencyAnnually:
		return nextAnchoredMonth(ref, anchorDay, freq.PeriodMonths())
	default:
		return ref
	}
}

// nextWeekday advances to the next date whose ISO weekday equals anchor,
// always moving strictly forward: a reference already on the anchor weekday
// advances a full week, and an out-of-range anchor does too.
func nextWeekday(ref time.Time, anchor int) time.Time {
	if anchor < 1 || anchor > 7 {
		return ref.AddDate(0, 0, 7)
	}
	current := int(ref.Weekday())
	if current == 0 {
		current = 7 // Sunday
	}
	delta := (anchor - current + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return ref.AddDate(0, 0, delta)
}

// nextAnchoredMonth pins the day-of-month to anchor within the current
// period; while that lands on or before the reference it adds one full
// period and re-applies the anchor, so the result is always strictly in the
// future even for anchors outside 1-31.
func nextAnchoredMonth(ref time.Time, anchor int, periodMonths int) time.Time {
	months := 0
	candidate := time.Date(ref.Year(), ref.Month(), anchor, 0, 0, 0, 0, time.UTC)
	for !candidate.After(ref) {
		months += periodMonths
		candidate = time.Date(ref.Year(), ref.Month()+time.Month(months), anchor, 0, 0, 0, 0, time.UTC)
	}
	return candidate
}

// validateAnchorDay checks an anchor against its frequency's range: a
// weekday index 1-7 for weekly, a day of month 1-31 for the month-based
// frequencies. Non-recurring items carry no anchor and always pass.
func validateAnchorDay(freq model.Frequency, anchor int) error {
	switch {
	case freq == model.FrequencyOnce:
		return nil
	case freq == model.FrequencyWeekly && (anchor < 1 || anchor > 7):
		return newValidationError("weekly anchor day must be a weekday index 1-7, got %d", anchor)
	case freq != model.FrequencyWeekly && (anchor < 1 || anchor > 31):
		return newValidationError("anchor day must be between 1 and 31, got %d", anchor)
	}
	return nil
}

// DateOnly truncates a timestamp to midnight UTC. All scheduling arithmetic
// works on calendar dates, never on clock times.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
