package crowd

import (
	"fmt"
	"time"

	"github.com/iwvelando/park-planner/pkg/datetime"
)

// CrossKeys returns one key per destination and date, destinations outermost.
func CrossKeys(destinations []string, dates []time.Time) []Key {
	keys := make([]Key, 0, len(destinations)*len(dates))
	for _, d := range destinations {
		for _, t := range dates {
			keys = append(keys, NewKey(d, t))
		}
	}
	return keys
}

func parseKeyDate(k Key) (time.Time, error) {
	date, err := datetime.ParseDate(k.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("crowd key for %s: %w", k.DestinationID, err)
	}
	return date, nil
}
