package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"journey-tracker/internal/route"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// FetchRoute loads the full itinerary ordered by arrival time. The query
// runs once at startup; the route is immutable for the session.
func FetchRoute(ctx context.Context, db *sql.DB) (*route.Route, error) {
	q := `
SELECT sequence_number,
       city,
       COALESCE(region, ''),
       lat,
       lon,
       EXTRACT(EPOCH FROM arrival_time)::bigint,
       EXTRACT(EPOCH FROM departure_time)::bigint,
       COALESCE(cumulative_deliveries, 0),
       COALESCE(cumulative_consumed, 0),
       COALESCE(population, 0),
       COALESCE(population_year, 0),
       COALESCE(elevation_m, 0),
       COALESCE(timezone_id, ''),
       COALESCE(reference_url, '')
FROM waypoints
ORDER BY arrival_time, sequence_number`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query waypoints: %w", err)
	}
	defer rows.Close()

	var wps []route.Waypoint
	for rows.Next() {
		var w route.Waypoint
		if err := rows.Scan(
			&w.SequenceNumber, &w.City, &w.Region,
			&w.Lat, &w.Lon,
			&w.ArrivalUnix, &w.DepartureUnix,
			&w.CumulativeDeliveries, &w.CumulativeConsumed,
			&w.Population, &w.PopulationYear, &w.ElevationM,
			&w.TimezoneID, &w.ReferenceURL,
		); err != nil {
			return nil, err
		}
		wps = append(wps, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return route.New(wps)
}
