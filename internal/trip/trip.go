// Package trip defines the trip, day and rating records consumed by the
// optimizer and the normalizer that turns an edited day list into a canonical
// one.
package trip

import (
	"fmt"
	"strings"
	"time"
)

// Label classifies the role of a day within a trip.
type Label string

const (
	LabelArrival          Label = "arrival"
	LabelDeparture        Label = "departure"
	LabelDestinationDay   Label = "destination-day"
	LabelMultiDestination Label = "multi-destination-day"
	LabelRest             Label = "rest-day"
	LabelOffSite          Label = "off-site-day"
	LabelSpecialEvent     Label = "special-event-day"
)

var knownLabels = []Label{
	LabelArrival,
	LabelDeparture,
	LabelDestinationDay,
	LabelMultiDestination,
	LabelRest,
	LabelOffSite,
	LabelSpecialEvent,
}

// ParseLabel returns the Label for value. An empty value yields an empty
// label, meaning the day still needs classifying.
func ParseLabel(value string) (Label, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return "", nil
	}
	for _, l := range knownLabels {
		if string(l) == trimmed {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown day classification %q", value)
}

// Structural reports whether days with this label can never be reassigned.
func (l Label) Structural() bool {
	return l == LabelArrival || l == LabelDeparture
}

// Day is one calendar date of a trip.
type Day struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	DestinationID string    `json:"destinationId,omitempty"`
	Label         Label     `json:"label,omitempty"`
	Locked        bool      `json:"locked,omitempty"`
}

// HasDestination reports whether a destination is bound to the day.
func (d Day) HasDestination() bool {
	return d.DestinationID != ""
}

// Destination is a park or venue that can be assigned to a day.
type Destination struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

// Trip holds the date bounds, days and destination catalog of a trip.
type Trip struct {
	ID           string        `json:"id"`
	Name         string        `json:"name,omitempty"`
	Start        time.Time     `json:"start"`
	End          time.Time     `json:"end"`
	Days         []Day         `json:"days"`
	Destinations []Destination `json:"destinations,omitempty"`
}

// DestinationByID returns the catalog entry for id.
func (t Trip) DestinationByID(id string) (Destination, bool) {
	for _, d := range t.Destinations {
		if d.ID == id {
			return d, true
		}
	}
	return Destination{}, false
}

// Consensus is the precomputed level of agreement of a group on an activity.
type Consensus string

const (
	ConsensusHigh     Consensus = "high"
	ConsensusMedium   Consensus = "medium"
	ConsensusLow      Consensus = "low"
	ConsensusConflict Consensus = "conflict"
)

// ParseConsensus returns the Consensus for value.
func ParseConsensus(value string) (Consensus, error) {
	switch c := Consensus(strings.ToLower(strings.TrimSpace(value))); c {
	case ConsensusHigh, ConsensusMedium, ConsensusLow, ConsensusConflict:
		return c, nil
	case "":
		return ConsensusHigh, nil
	default:
		return "", fmt.Errorf("unknown consensus level %q", value)
	}
}

// RatingSummary is the aggregated group rating of one activity.
type RatingSummary struct {
	DestinationID string    `json:"destinationId"`
	ActivityID    string    `json:"activityId"`
	AverageRating float64   `json:"averageRating"`
	MustDoCount   int       `json:"mustDoCount"`
	Consensus     Consensus `json:"consensus"`
}
