package trip

import (
	"fmt"
	"sort"

	"github.com/iwvelando/park-planner/pkg/datetime"
)

// ValidationError is returned when a trip cannot be optimized at all.
type ValidationError struct {
	TripID string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.TripID == "" {
		return fmt.Sprintf("invalid trip: %s", e.Reason)
	}
	return fmt.Sprintf("invalid trip %s: %s", e.TripID, e.Reason)
}

// Normalize returns the canonical day list of t: calendar dates only, inside
// [t.Start, t.End], unique by date (first occurrence wins), chronological and
// fully labelled. Unlabelled days are classified by c, or by a
// PositionalClassifier when c is nil. t is not modified.
func Normalize(t Trip, c Classifier) ([]Day, error) {
	if t.Start.IsZero() || t.End.IsZero() {
		return nil, &ValidationError{TripID: t.ID, Reason: "trip start and end dates are required"}
	}
	start := datetime.Canonical(t.Start)
	end := datetime.Canonical(t.End)
	if end.Before(start) {
		return nil, &ValidationError{TripID: t.ID, Reason: fmt.Sprintf("trip ends (%s) before it starts (%s)",
			datetime.FormatDate(end), datetime.FormatDate(start))}
	}

	seen := make(map[string]struct{}, len(t.Days))
	days := make([]Day, 0, len(t.Days))
	for _, d := range t.Days {
		d.Date = datetime.Canonical(d.Date)
		if !datetime.WithinRange(d.Date, start, end) {
			continue
		}
		key := datetime.FormatDate(d.Date)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, d)
	}

	if len(days) == 0 {
		return nil, &ValidationError{TripID: t.ID, Reason: fmt.Sprintf("no days between %s and %s",
			datetime.FormatDate(start), datetime.FormatDate(end))}
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.Before(days[j].Date)
	})

	if c == nil {
		c = PositionalClassifier{DayCount: len(days)}
	}
	for i := range days {
		if days[i].Label == "" {
			days[i].Label = c.Classify(days[i], t, i)
		}
	}

	return days, nil
}
