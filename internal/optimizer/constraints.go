package optimizer

import "github.com/iwvelando/park-planner/internal/trip"

// Constraint records whether a day may be reassigned during a run.
type Constraint struct {
	DayID         string     `json:"dayId"`
	DestinationID string     `json:"destinationId,omitempty"`
	Locked        bool       `json:"locked"`
	Label         trip.Label `json:"label"`
	MayReassign   bool       `json:"mayReassign"`
}

// LockOverride is a caller-supplied lock flag for one day.
type LockOverride struct {
	DayID  string `json:"dayId"`
	Locked bool   `json:"locked"`
}

// ResolveConstraints returns one Constraint per day. Overrides win over the
// day's own lock flag; arrival and departure days are never reassignable.
func ResolveConstraints(days []trip.Day, overrides []LockOverride) []Constraint {
	locks := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		locks[o.DayID] = o.Locked
	}

	out := make([]Constraint, 0, len(days))
	for _, d := range days {
		locked := d.Locked
		if v, ok := locks[d.ID]; ok {
			locked = v
		}
		out = append(out, Constraint{
			DayID:         d.ID,
			DestinationID: d.DestinationID,
			Locked:        locked,
			Label:         d.Label,
			MayReassign:   !locked && !d.Label.Structural(),
		})
	}
	return out
}

// Fixed reports whether the constraint pins the day's destination.
func (c Constraint) Fixed() bool {
	return !c.MayReassign
}
