package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"github.com/iwvelando/park-planner/pkg/validation"
)

var validate = validator.New()

// Validate reports configuration errors that prevent a run.
func (c *Configuration) Validate() error {
	var errs []error
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if err := validation.ValidateStrategy(c.Optimizer.Strategy); err != nil {
		errs = append(errs, err)
	}
	if err := c.Optimizer.Settings().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("optimizer: %w", err))
	}

	switch c.Crowd.Source {
	case constants.CrowdSourceStatic, constants.CrowdSourceStore:
	case constants.CrowdSourceHTTP:
		if c.Crowd.HTTP.BaseURL == "" {
			errs = append(errs, fmt.Errorf("crowd.http.baseURL is required for the http source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported crowd source %q", c.Crowd.Source))
	}
	for i, f := range c.Crowd.Static {
		if err := validate.Struct(f); err != nil {
			errs = append(errs, fmt.Errorf("crowd.static[%d]: %w", i, err))
		}
	}

	switch c.Store.Driver {
	case constants.StoreDriverMemory:
	case constants.StoreDriverSQLite, constants.StoreDriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for the %s driver", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported store driver %q", c.Store.Driver))
	}

	if c.Trip != nil {
		if err := validate.Struct(c.Trip); err != nil {
			errs = append(errs, fmt.Errorf("trip: %w", err))
		} else if _, err := c.Trip.ToTrip(); err != nil {
			errs = append(errs, err)
		}
	}
	for i, r := range c.Ratings {
		if err := validate.Struct(r); err != nil {
			errs = append(errs, fmt.Errorf("ratings[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings for input the optimizer will silently drop or ignore.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	known := make(map[string]bool)

	if c.Trip != nil {
		t, err := c.Trip.ToTrip()
		if err == nil {
			for _, d := range t.Destinations {
				known[d.ID] = true
			}
			seen := make(map[string]string)
			for _, d := range t.Days {
				if d.DestinationID != "" {
					known[d.DestinationID] = true
				}
				date := datetime.FormatDate(d.Date)
				if !datetime.WithinRange(d.Date, t.Start, t.End) {
					warnings = append(warnings, fmt.Sprintf("Day '%s' (%s) is outside the trip range %s to %s and will be ignored",
						d.ID, date, c.Trip.Start, c.Trip.End))
				}
				if first, dup := seen[date]; dup {
					warnings = append(warnings, fmt.Sprintf("Day '%s' repeats date %s of day '%s' and will be ignored",
						d.ID, date, first))
				} else {
					seen[date] = d.ID
				}
			}
			for _, f := range c.Crowd.Static {
				if date, err := parseDate(f.Date); err == nil && !datetime.WithinRange(date, t.Start, t.End) {
					warnings = append(warnings, fmt.Sprintf("Static forecast for '%s' on %s is outside the trip range",
						f.Destination, f.Date))
				}
			}
		}
	}

	if c.Trip != nil {
		for _, r := range c.Ratings {
			if !known[r.Destination] {
				warnings = append(warnings, fmt.Sprintf("Rating for '%s' references a destination not used by the trip",
					r.Destination))
			}
		}
	}

	if c.Crowd.Source != constants.CrowdSourceStatic && len(c.Crowd.Static) > 0 {
		warnings = append(warnings, fmt.Sprintf("Static forecasts are ignored with crowd source %q", c.Crowd.Source))
	}
	if c.Crowd.Source == constants.CrowdSourceStatic && c.Crowd.Redis.URL != "" {
		warnings = append(warnings, "Redis cache is configured for the static crowd source, which is already in memory")
	}
	return warnings
}
