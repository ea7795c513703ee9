package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Location is a directory where a file was found before.
type Location struct {
	Host      string
	Filename  string
	Path      string
	Frequency int
	LastFound time.Time
}

// UpdateFrecency bumps the frequency and last_found timestamp for a location.
// It inserts the location if it doesn't exist.
func UpdateFrecency(db *sql.DB, host, filename, path string) error {
	query := `
		INSERT INTO locations (host, filename, path, frequency, last_found)
		VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT(host, filename, path) DO UPDATE SET
			frequency = frequency + 1,
			last_found = CURRENT_TIMESTAMP
	`
	_, err := db.Exec(query, host, filename, path)
	if err != nil {
		return fmt.Errorf("failed to update frecency: %w", err)
	}
	return nil
}

// GetKnownLocations returns where filename was found before, most frequent
// first. An empty host matches every host.
func GetKnownLocations(db *sql.DB, host, filename string) ([]Location, error) {
	query := `
		SELECT host, filename, path, frequency, last_found FROM locations
		WHERE filename = ? AND (? = '' OR host = ?)
		ORDER BY frequency DESC, last_found DESC
	`
	rows, err := db.Query(query, filename, host, host)
	if err != nil {
		return nil, fmt.Errorf("failed to get known locations: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.Host, &loc.Filename, &loc.Path, &loc.Frequency, &loc.LastFound); err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}
