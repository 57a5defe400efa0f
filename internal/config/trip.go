package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/datetime"
)

// TripConfig is the file and wire form of a trip. Dates are YYYY-MM-DD.
type TripConfig struct {
	ID           string              `yaml:"id" mapstructure:"id" json:"id" validate:"required"`
	Name         string              `yaml:"name,omitempty" mapstructure:"name" json:"name,omitempty"`
	Start        string              `yaml:"start" mapstructure:"start" json:"start" validate:"required"`
	End          string              `yaml:"end" mapstructure:"end" json:"end" validate:"required"`
	Days         []DayConfig         `yaml:"days" mapstructure:"days" json:"days" validate:"required,min=1,dive"`
	Destinations []DestinationConfig `yaml:"destinations,omitempty" mapstructure:"destinations" json:"destinations,omitempty" validate:"dive"`
}

// DayConfig is the file and wire form of a trip day.
type DayConfig struct {
	ID          string `yaml:"id" mapstructure:"id" json:"id" validate:"required"`
	Date        string `yaml:"date" mapstructure:"date" json:"date" validate:"required"`
	Destination string `yaml:"destination,omitempty" mapstructure:"destination" json:"destination,omitempty"`
	Label       string `yaml:"label,omitempty" mapstructure:"label" json:"label,omitempty"`
	Locked      bool   `yaml:"locked,omitempty" mapstructure:"locked" json:"locked,omitempty"`
}

// DestinationConfig is a catalog entry.
type DestinationConfig struct {
	ID   string `yaml:"id" mapstructure:"id" json:"id" validate:"required"`
	Name string `yaml:"name,omitempty" mapstructure:"name" json:"name,omitempty"`
	Type string `yaml:"type,omitempty" mapstructure:"type" json:"type,omitempty"`
}

// RatingConfig is one precomputed group rating of an activity.
type RatingConfig struct {
	Destination   string  `yaml:"destination" mapstructure:"destination" json:"destination" validate:"required"`
	Activity      string  `yaml:"activity,omitempty" mapstructure:"activity" json:"activity,omitempty"`
	AverageRating float64 `yaml:"averageRating" mapstructure:"averageRating" json:"averageRating" validate:"gte=0"`
	MustDoCount   int     `yaml:"mustDoCount,omitempty" mapstructure:"mustDoCount" json:"mustDoCount,omitempty" validate:"gte=0"`
	Consensus     string  `yaml:"consensus,omitempty" mapstructure:"consensus" json:"consensus,omitempty" validate:"omitempty,oneof=high medium low conflict"`
}

func parseDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return datetime.ParseDate(value)
}

// ToTrip converts the configuration into a domain trip.
func (t TripConfig) ToTrip() (trip.Trip, error) {
	start, err := parseDate(t.Start)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("trip %s start: %w", t.ID, err)
	}
	end, err := parseDate(t.End)
	if err != nil {
		return trip.Trip{}, fmt.Errorf("trip %s end: %w", t.ID, err)
	}

	out := trip.Trip{
		ID:           t.ID,
		Name:         t.Name,
		Start:        start,
		End:          end,
		Days:         make([]trip.Day, 0, len(t.Days)),
		Destinations: make([]trip.Destination, 0, len(t.Destinations)),
	}
	for i, d := range t.Days {
		date, err := parseDate(d.Date)
		if err != nil {
			return trip.Trip{}, fmt.Errorf("trip %s day %d (%s): %w", t.ID, i, d.ID, err)
		}
		label, err := trip.ParseLabel(d.Label)
		if err != nil {
			return trip.Trip{}, fmt.Errorf("trip %s day %d (%s): %w", t.ID, i, d.ID, err)
		}
		out.Days = append(out.Days, trip.Day{
			ID:            d.ID,
			Date:          date,
			DestinationID: strings.TrimSpace(d.Destination),
			Label:         label,
			Locked:        d.Locked,
		})
	}
	for _, d := range t.Destinations {
		out.Destinations = append(out.Destinations, trip.Destination{ID: d.ID, Name: d.Name, Type: d.Type})
	}
	return out, nil
}

// TripFromDomain converts a domain trip into its wire form.
func TripFromDomain(t trip.Trip) TripConfig {
	out := TripConfig{
		ID:    t.ID,
		Name:  t.Name,
		Start: datetime.FormatDate(t.Start),
		End:   datetime.FormatDate(t.End),
	}
	for _, d := range t.Days {
		out.Days = append(out.Days, DayFromDomain(d))
	}
	for _, d := range t.Destinations {
		out.Destinations = append(out.Destinations, DestinationConfig{ID: d.ID, Name: d.Name, Type: d.Type})
	}
	return out
}

// DayFromDomain converts a domain day into its wire form.
func DayFromDomain(d trip.Day) DayConfig {
	return DayConfig{
		ID:          d.ID,
		Date:        datetime.FormatDate(d.Date),
		Destination: d.DestinationID,
		Label:       string(d.Label),
		Locked:      d.Locked,
	}
}

// ToRatings converts rating configuration into domain summaries.
func ToRatings(ratings []RatingConfig) ([]trip.RatingSummary, error) {
	out := make([]trip.RatingSummary, 0, len(ratings))
	for i, r := range ratings {
		consensus, err := trip.ParseConsensus(r.Consensus)
		if err != nil {
			return nil, fmt.Errorf("ratings[%d]: %w", i, err)
		}
		out = append(out, trip.RatingSummary{
			DestinationID: r.Destination,
			ActivityID:    r.Activity,
			AverageRating: r.AverageRating,
			MustDoCount:   r.MustDoCount,
			Consensus:     consensus,
		})
	}
	return out, nil
}
