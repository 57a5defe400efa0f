package optimization

import "time"

// WarningKind identifies a non-fatal condition absorbed during a run.
type WarningKind string

const (
	// WarningDataGap means no crowd forecast existed for a destination/date
	// pair and the fallback score was used.
	WarningDataGap WarningKind = "data-gap"

	// WarningPartialAssignment means a strategy ran out of ranked candidates
	// and left the remaining flexible days unchanged.
	WarningPartialAssignment WarningKind = "partial-assignment"
)

// Warning describes one absorbed condition.
type Warning struct {
	Kind          WarningKind `json:"kind"`
	Strategy      string      `json:"strategy,omitempty"`
	DayID         string      `json:"dayId,omitempty"`
	DestinationID string      `json:"destinationId,omitempty"`
	Date          time.Time   `json:"date,omitempty"`
	Message       string      `json:"message"`
}

// CountWarnings returns how many warnings of kind are present.
func CountWarnings(warnings []Warning, kind WarningKind) int {
	n := 0
	for _, w := range warnings {
		if w.Kind == kind {
			n++
		}
	}
	return n
}
