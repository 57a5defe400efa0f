package optimizer

import (
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/optimization"
)

// Apply returns a copy of days with destinations taken from alt. Only
// DestinationID changes; days alt does not mention are copied as-is.
func Apply(days []trip.Day, alt optimization.Alternative) []trip.Day {
	chosen := make(map[string]string, len(alt.Assignments))
	for _, a := range alt.Assignments {
		chosen[a.DayID] = a.DestinationID
	}
	out := make([]trip.Day, len(days))
	copy(out, days)
	for i := range out {
		if dest, ok := chosen[out[i].ID]; ok {
			out[i].DestinationID = dest
		}
	}
	return out
}
