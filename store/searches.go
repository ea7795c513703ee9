package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SearchRecord is one finished search.
type SearchRecord struct {
	ID         string
	Host       string
	Filename   string
	Outcome    string
	Path       string
	Listings   int
	SearchedAt time.Time
}

// RecordSearch stores a finished search and returns its id. A new id is
// generated when rec.ID is empty.
func RecordSearch(db *sql.DB, rec SearchRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.SearchedAt.IsZero() {
		rec.SearchedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO searches (id, host, filename, outcome, path, listings, searched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.Exec(query, rec.ID, rec.Host, rec.Filename, rec.Outcome, rec.Path, rec.Listings, rec.SearchedAt)
	if err != nil {
		return "", fmt.Errorf("failed to record search: %w", err)
	}
	return rec.ID, nil
}

// GetRecentSearches returns the most recent searches, newest first.
func GetRecentSearches(db *sql.DB, limit int) ([]SearchRecord, error) {
	query := `
		SELECT id, host, filename, outcome, path, listings, searched_at
		FROM searches ORDER BY searched_at DESC, rowid DESC LIMIT ?
	`
	rows, err := db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent searches: %w", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var rec SearchRecord
		if err := rows.Scan(&rec.ID, &rec.Host, &rec.Filename, &rec.Outcome, &rec.Path, &rec.Listings, &rec.SearchedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
