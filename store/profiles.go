package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrProfileNotFound is returned by GetProfile for an unknown name.
var ErrProfileNotFound = errors.New("profile not found")

// Profile is a saved connection target. Passwords are never stored.
type Profile struct {
	Name string
	Host string
	Port int
	User string
	TLS  bool
}

// SaveProfile creates or replaces a profile.
func SaveProfile(db *sql.DB, p Profile) error {
	if p.Name == "" || p.Host == "" {
		return fmt.Errorf("profile needs a name and a host")
	}
	query := `
		INSERT INTO profiles (name, host, port, user, tls) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			host = excluded.host,
			port = excluded.port,
			user = excluded.user,
			tls = excluded.tls
	`
	_, err := db.Exec(query, p.Name, p.Host, p.Port, p.User, p.TLS)
	if err != nil {
		return fmt.Errorf("failed to save profile %q: %w", p.Name, err)
	}
	return nil
}

// GetProfile returns the named profile.
func GetProfile(db *sql.DB, name string) (Profile, error) {
	query := `SELECT name, host, port, user, tls FROM profiles WHERE name = ?`
	var p Profile
	err := db.QueryRow(query, name).Scan(&p.Name, &p.Host, &p.Port, &p.User, &p.TLS)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get profile %q: %w", name, err)
	}
	return p, nil
}

// ListProfiles returns all profiles ordered by name.
func ListProfiles(db *sql.DB) ([]Profile, error) {
	query := `SELECT name, host, port, user, tls FROM profiles ORDER BY name`
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.Name, &p.Host, &p.Port, &p.User, &p.TLS); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// RemoveProfile deletes a profile. Removing the default profile also clears
// the default.
func RemoveProfile(db *sql.DB, name string) error {
	res, err := db.Exec(`DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to remove profile %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	def, err := GetSetting(db, SettingDefaultProfile)
	if err != nil {
		return err
	}
	if def == name {
		return DeleteSetting(db, SettingDefaultProfile)
	}
	return nil
}
