package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guardnomad/guardnomad/internal/alert"
)

// ErrNotFound is returned when no rows match a lookup.
var ErrNotFound = errors.New("not found")

// PostgresAlertRepository persists generated alerts in PostgreSQL.
type PostgresAlertRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAlertRepository creates a new PostgreSQL alert repository.
func NewPostgresAlertRepository(pool *pgxpool.Pool) *PostgresAlertRepository {
	return &PostgresAlertRepository{pool: pool}
}

// SaveAlerts upserts the generated alerts for a destination. Used as a
// best-effort redundancy write after each aggregation; errors are surfaced
// to the caller, who decides whether they are fatal.
func (r *PostgresAlertRepository) SaveAlerts(ctx context.Context, destination string, alerts []alert.SafetyAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, a := range alerts {
		advice, err := json.Marshal(a.Advice)
		if err != nil {
			return fmt.Errorf("encoding advice: %w", err)
		}

		var lat, lon *float64
		if a.Coordinates != nil {
			lat, lon = &a.Coordinates.Lat, &a.Coordinates.Lon
		}

		batch.Queue(`
			INSERT INTO safety_alerts (
				id, destination, category, severity, title, message,
				location, lat, lon, source_name, source_url, source_tier,
				issued_at, advice, expires_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			ON CONFLICT (id) DO UPDATE SET
				severity = EXCLUDED.severity,
				message = EXCLUDED.message,
				advice = EXCLUDED.advice,
				expires_at = EXCLUDED.expires_at
		`,
			a.ID, destination, string(a.Category), string(a.Severity), a.Title, a.Message,
			a.Location, lat, lon, a.Source.Name, a.Source.URL, string(a.Source.Tier),
			a.Timestamp, advice, a.ExpiresAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range alerts {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting alert: %w", err)
		}
	}
	return nil
}

// RecentAlerts returns the most recently issued alerts for a destination.
func (r *PostgresAlertRepository) RecentAlerts(ctx context.Context, destination string, limit int) ([]alert.SafetyAlert, error) {
	if limit <= 0 {
		limit = alert.MaxAlerts
	}

	rows, err := r.pool.Query(ctx, `
		SELECT
			id, category, severity, title, message, location,
			lat, lon, source_name, source_url, source_tier,
			issued_at, advice, expires_at
		FROM safety_alerts
		WHERE destination = $1
		ORDER BY issued_at DESC
		LIMIT $2
	`, destination, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []alert.SafetyAlert
	for rows.Next() {
		var a alert.SafetyAlert
		var category, severity, tier string
		var lat, lon *float64
		var advice []byte

		err := rows.Scan(
			&a.ID, &category, &severity, &a.Title, &a.Message, &a.Location,
			&lat, &lon, &a.Source.Name, &a.Source.URL, &tier,
			&a.Timestamp, &advice, &a.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}

		a.Category = alert.MapCategory(category)
		a.Severity = alert.ParseSeverity(severity)
		a.Source.Tier = alert.SourceTier(tier)
		if lat != nil && lon != nil {
			a.Coordinates = &alert.Coordinates{Lat: *lat, Lon: *lon}
		}
		if len(advice) > 0 {
			_ = json.Unmarshal(advice, &a.Advice)
		}

		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
