package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/trip"
)

// Memory is an in-process Store.
type Memory struct {
	mu        sync.RWMutex
	trips     map[string]trip.Trip
	ratings   map[string][]trip.RatingSummary
	forecasts map[crowd.Key]float64
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		trips:     make(map[string]trip.Trip),
		ratings:   make(map[string][]trip.RatingSummary),
		forecasts: make(map[crowd.Key]float64),
	}
}

func (m *Memory) GetTrip(_ context.Context, id string) (trip.Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[id]
	if !ok {
		return trip.Trip{}, fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	return copyTrip(t), nil
}

func (m *Memory) ListRatings(_ context.Context, tripID string) ([]trip.RatingSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.trips[tripID]; !ok {
		return nil, fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	return append([]trip.RatingSummary(nil), m.ratings[tripID]...), nil
}

func (m *Memory) UpdateDestinations(_ context.Context, tripID string, days []trip.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	t = copyTrip(t)
	chosen := make(map[string]string, len(days))
	for _, d := range days {
		chosen[d.ID] = d.DestinationID
	}
	for i := range t.Days {
		if dest, ok := chosen[t.Days[i].ID]; ok {
			t.Days[i].DestinationID = dest
		}
	}
	m.trips[tripID] = t
	return nil
}

func (m *Memory) SaveTrip(_ context.Context, t trip.Trip) error {
	if t.ID == "" {
		return fmt.Errorf("trip id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = copyTrip(t)
	return nil
}

func (m *Memory) SaveRatings(_ context.Context, tripID string, ratings []trip.RatingSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[tripID]; !ok {
		return fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	m.ratings[tripID] = append([]trip.RatingSummary(nil), ratings...)
	return nil
}

func (m *Memory) SaveForecasts(_ context.Context, entries []crowd.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.forecasts[crowd.NewKey(e.DestinationID, e.Date)] = e.CrowdLevel
	}
	return nil
}

// CrowdLevel implements crowd.Source.
func (m *Memory) CrowdLevel(_ context.Context, destinationID string, date time.Time) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.forecasts[crowd.NewKey(destinationID, date)]
	return v, ok, nil
}

// ForecastDestinations implements crowd.DestinationLister.
func (m *Memory) ForecastDestinations(_ context.Context, from, to time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return crowd.DestinationsInRange(m.forecasts, from, to), nil
}

func (m *Memory) Close() error { return nil }

func copyTrip(t trip.Trip) trip.Trip {
	t.Days = append([]trip.Day(nil), t.Days...)
	t.Destinations = append([]trip.Destination(nil), t.Destinations...)
	return t
}

var _ Store = (*Memory)(nil)
