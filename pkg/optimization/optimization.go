// Package optimization provides shared data structures for optimization results.
package optimization

import "time"

// Assignment pairs one trip day with a destination and its crowd forecast.
type Assignment struct {
	DayID         string    `json:"dayId"`
	DestinationID string    `json:"destinationId,omitempty"`
	Date          time.Time `json:"date"`
	CrowdScore    float64   `json:"crowdScore"`
	Score         float64   `json:"score"`
	HasForecast   bool      `json:"hasForecast"`
}

// Benefits breaks down what an alternative gains over the original plan.
type Benefits struct {
	CrowdReductionPercent   float64       `json:"crowdReductionPercent"`
	PriorityCoveragePercent float64       `json:"priorityCoveragePercent"`
	PacingBalancePercent    float64       `json:"pacingBalancePercent"`
	EstimatedTimeSaved      time.Duration `json:"estimatedTimeSaved"`
}

// Alternative is one complete candidate reassignment of the flexible days.
type Alternative struct {
	ID          string       `json:"id"`
	Strategy    string       `json:"strategy"`
	Assignments []Assignment `json:"assignments"`
	Benefits    Benefits     `json:"benefits"`
	Score       float64      `json:"score"`
	Confidence  float64      `json:"confidence"`
	Reasoning   []string     `json:"reasoning,omitempty"`
	Warnings    []Warning    `json:"warnings,omitempty"`
}

// Changed returns the assignments whose destination differs from original,
// matched by day.
func (a Alternative) Changed(original []Assignment) []Assignment {
	before := make(map[string]string, len(original))
	for _, o := range original {
		before[o.DayID] = o.DestinationID
	}
	var changed []Assignment
	for _, as := range a.Assignments {
		if prev, ok := before[as.DayID]; ok && prev != as.DestinationID {
			changed = append(changed, as)
		}
	}
	return changed
}

// Result is the ranked outcome of one optimization run.
type Result struct {
	TripID       string        `json:"tripId,omitempty"`
	Original     []Assignment  `json:"original"`
	Alternatives []Alternative `json:"alternatives"`
	Confidence   float64       `json:"confidence"`
	Reasoning    []string      `json:"reasoning,omitempty"`
	Warnings     []Warning     `json:"warnings,omitempty"`
}

// Recommended returns the highest-ranked alternative.
func (r Result) Recommended() (Alternative, bool) {
	if len(r.Alternatives) == 0 {
		return Alternative{}, false
	}
	return r.Alternatives[0], true
}

// Alternative returns the alternative with the given id.
func (r Result) Alternative(id string) (Alternative, bool) {
	for _, a := range r.Alternatives {
		if a.ID == id {
			return a, true
		}
	}
	return Alternative{}, false
}
