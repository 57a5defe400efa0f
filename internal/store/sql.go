package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iwvelando/park-planner/internal/crowd"
	"github.com/iwvelando/park-planner/internal/trip"
	"github.com/iwvelando/park-planner/pkg/constants"
	"github.com/iwvelando/park-planner/pkg/datetime"
	"go.uber.org/zap"
)

const schemaVersion = 1

// schema is valid for both SQLite and PostgreSQL. Dates are stored as
// YYYY-MM-DD text and flags as 0/1 integers.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS destinations (
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (trip_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS trip_days (
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		position INTEGER NOT NULL,
		day_date TEXT NOT NULL,
		destination_id TEXT,
		label TEXT NOT NULL DEFAULT '',
		locked INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (trip_id, id)
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		destination_id TEXT NOT NULL,
		activity_id TEXT NOT NULL,
		average_rating DOUBLE PRECISION NOT NULL,
		must_do_count INTEGER NOT NULL DEFAULT 0,
		consensus TEXT NOT NULL DEFAULT 'high',
		PRIMARY KEY (trip_id, destination_id, activity_id)
	)`,
	`CREATE TABLE IF NOT EXISTS crowd_forecasts (
		destination_id TEXT NOT NULL,
		forecast_date TEXT NOT NULL,
		crowd_level DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (destination_id, forecast_date)
	)`,
}

// sqlStore implements Store over database/sql for both supported drivers.
type sqlStore struct {
	db      *sql.DB
	logger  *zap.Logger
	dialect string
	mu      sync.RWMutex
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *sqlStore) rebind(query string) string {
	if s.dialect != constants.StoreDriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) initSchema(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == nil && version >= schemaVersion {
		return nil
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM schema_version")); err != nil {
		return fmt.Errorf("failed to reset schema version: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, s.rebind("INSERT INTO schema_version (version) VALUES (?)"), schemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	s.logger.Info("store schema initialized",
		zap.String("op", "store.initSchema"),
		zap.String("dialect", s.dialect),
		zap.Int("version", schemaVersion),
	)
	return nil
}

func (s *sqlStore) GetTrip(ctx context.Context, id string) (trip.Trip, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t trip.Trip
	var start, end string
	err := s.db.QueryRowContext(ctx,
		s.rebind("SELECT id, name, start_date, end_date FROM trips WHERE id = ?"), id,
	).Scan(&t.ID, &t.Name, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return trip.Trip{}, fmt.Errorf("trip %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return trip.Trip{}, fmt.Errorf("failed to get trip: %w", err)
	}
	if t.Start, err = datetime.ParseDate(start); err != nil {
		return trip.Trip{}, fmt.Errorf("trip %s start date: %w", id, err)
	}
	if t.End, err = datetime.ParseDate(end); err != nil {
		return trip.Trip{}, fmt.Errorf("trip %s end date: %w", id, err)
	}

	if t.Destinations, err = s.listDestinations(ctx, id); err != nil {
		return trip.Trip{}, err
	}
	if t.Days, err = s.listDays(ctx, id); err != nil {
		return trip.Trip{}, err
	}
	return t, nil
}

func (s *sqlStore) listDestinations(ctx context.Context, tripID string) ([]trip.Destination, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind("SELECT id, name, type FROM destinations WHERE trip_id = ? ORDER BY id"), tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer rows.Close()

	var out []trip.Destination
	for rows.Next() {
		var d trip.Destination
		if err := rows.Scan(&d.ID, &d.Name, &d.Type); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating destinations: %w", err)
	}
	return out, nil
}

func (s *sqlStore) listDays(ctx context.Context, tripID string) ([]trip.Day, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, day_date, destination_id, label, locked
		 FROM trip_days
		 WHERE trip_id = ?
		 ORDER BY position`), tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trip days: %w", err)
	}
	defer rows.Close()

	var out []trip.Day
	for rows.Next() {
		var d trip.Day
		var date, label string
		var dest sql.NullString
		var locked int
		if err := rows.Scan(&d.ID, &date, &dest, &label, &locked); err != nil {
			return nil, fmt.Errorf("failed to scan trip day: %w", err)
		}
		if d.Date, err = datetime.ParseDate(date); err != nil {
			return nil, fmt.Errorf("trip day %s date: %w", d.ID, err)
		}
		if dest.Valid {
			d.DestinationID = dest.String
		}
		d.Label = trip.Label(label)
		d.Locked = locked != 0
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trip days: %w", err)
	}
	return out, nil
}

func (s *sqlStore) ListRatings(ctx context.Context, tripID string) ([]trip.RatingSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.requireTrip(ctx, tripID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT destination_id, activity_id, average_rating, must_do_count, consensus
		 FROM ratings
		 WHERE trip_id = ?
		 ORDER BY destination_id, activity_id`), tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	var out []trip.RatingSummary
	for rows.Next() {
		var r trip.RatingSummary
		var consensus string
		if err := rows.Scan(&r.DestinationID, &r.ActivityID, &r.AverageRating, &r.MustDoCount, &consensus); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		r.Consensus = trip.Consensus(consensus)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return out, nil
}

func (s *sqlStore) requireTrip(ctx context.Context, tripID string) error {
	var id string
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT id FROM trips WHERE id = ?"), tripID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("trip %s: %w", tripID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up trip: %w", err)
	}
	return nil
}

func (s *sqlStore) UpdateDestinations(ctx context.Context, tripID string, days []trip.Day) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTrip(ctx, tripID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := s.rebind("UPDATE trip_days SET destination_id = ? WHERE trip_id = ? AND id = ?")
	updated := 0
	for _, d := range days {
		res, err := tx.ExecContext(ctx, query, nullIfEmpty(d.DestinationID), tripID, d.ID)
		if err != nil {
			return fmt.Errorf("failed to update day %s: %w", d.ID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			updated += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit destinations: %w", err)
	}
	s.logger.Info("trip destinations updated",
		zap.String("op", "store.UpdateDestinations"),
		zap.String("trip", tripID),
		zap.Int("days", updated),
	)
	return nil
}

func (s *sqlStore) SaveTrip(ctx context.Context, t trip.Trip) error {
	if t.ID == "" {
		return fmt.Errorf("trip id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind(
		`INSERT INTO trips (id, name, start_date, end_date) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET name = excluded.name, start_date = excluded.start_date, end_date = excluded.end_date`),
		t.ID, t.Name, datetime.FormatDate(t.Start), datetime.FormatDate(t.End)); err != nil {
		return fmt.Errorf("failed to save trip: %w", err)
	}
	for _, table := range []string{"destinations", "trip_days"} {
		if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM "+table+" WHERE trip_id = ?"), t.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	for _, d := range t.Destinations {
		if _, err := tx.ExecContext(ctx, s.rebind(
			"INSERT INTO destinations (trip_id, id, name, type) VALUES (?, ?, ?, ?)"),
			t.ID, d.ID, d.Name, d.Type); err != nil {
			return fmt.Errorf("failed to save destination %s: %w", d.ID, err)
		}
	}
	for i, d := range t.Days {
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO trip_days (trip_id, id, position, day_date, destination_id, label, locked)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			t.ID, d.ID, i, datetime.FormatDate(d.Date), nullIfEmpty(d.DestinationID), string(d.Label), boolToInt(d.Locked)); err != nil {
			return fmt.Errorf("failed to save trip day %s: %w", d.ID, err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) SaveRatings(ctx context.Context, tripID string, ratings []trip.RatingSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireTrip(ctx, tripID); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM ratings WHERE trip_id = ?"), tripID); err != nil {
		return fmt.Errorf("failed to clear ratings: %w", err)
	}
	for _, r := range ratings {
		consensus := r.Consensus
		if consensus == "" {
			consensus = trip.ConsensusHigh
		}
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO ratings (trip_id, destination_id, activity_id, average_rating, must_do_count, consensus)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (trip_id, destination_id, activity_id) DO UPDATE SET
			   average_rating = excluded.average_rating,
			   must_do_count = excluded.must_do_count,
			   consensus = excluded.consensus`),
			tripID, r.DestinationID, r.ActivityID, r.AverageRating, r.MustDoCount, string(consensus)); err != nil {
			return fmt.Errorf("failed to save rating %s/%s: %w", r.DestinationID, r.ActivityID, err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) SaveForecasts(ctx context.Context, entries []crowd.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := s.rebind(
		`INSERT INTO crowd_forecasts (destination_id, forecast_date, crowd_level) VALUES (?, ?, ?)
		 ON CONFLICT (destination_id, forecast_date) DO UPDATE SET crowd_level = excluded.crowd_level`)
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, query, e.DestinationID, datetime.FormatDate(e.Date), e.CrowdLevel); err != nil {
			return fmt.Errorf("failed to save forecast %s/%s: %w", e.DestinationID, datetime.FormatDate(e.Date), err)
		}
	}
	return tx.Commit()
}

// CrowdLevel implements crowd.Source.
func (s *sqlStore) CrowdLevel(ctx context.Context, destinationID string, date time.Time) (float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var level float64
	err := s.db.QueryRowContext(ctx, s.rebind(
		"SELECT crowd_level FROM crowd_forecasts WHERE destination_id = ? AND forecast_date = ?"),
		destinationID, datetime.FormatDate(date)).Scan(&level)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, &crowd.LookupError{
			DestinationID: destinationID,
			Date:          date,
			Reason:        "store query failed",
			Err:           err,
		}
	}
	return level, true, nil
}

// ForecastDestinations implements crowd.DestinationLister.
func (s *sqlStore) ForecastDestinations(ctx context.Context, from, to time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT DISTINCT destination_id FROM crowd_forecasts
		 WHERE forecast_date >= ? AND forecast_date <= ?
		 ORDER BY destination_id`),
		datetime.FormatDate(from), datetime.FormatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list forecast destinations: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan forecast destination: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Ping checks database connectivity.
func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
