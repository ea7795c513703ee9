package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore(t *testing.T) {
	// Use a temp file for testing
	tmpFile, err := os.CreateTemp("", "ftpseek-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(dbPath)

	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	defer db.Close()

	t.Run("Searches", func(t *testing.T) {
		base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		first := SearchRecord{Host: "ftp.example.org", Filename: "a.txt", Outcome: "not found", Listings: 7, SearchedAt: base}
		second := SearchRecord{Host: "ftp.example.org", Filename: "b.txt", Outcome: "found", Path: "/pub/b", Listings: 3, SearchedAt: base.Add(time.Minute)}

		id1, err := RecordSearch(db, first)
		if err != nil {
			t.Fatalf("RecordSearch failed: %v", err)
		}
		if id1 == "" {
			t.Fatal("expected a generated id")
		}
		if _, err := RecordSearch(db, second); err != nil {
			t.Fatalf("RecordSearch failed: %v", err)
		}

		records, err := GetRecentSearches(db, 10)
		if err != nil {
			t.Fatalf("GetRecentSearches failed: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Filename != "b.txt" || records[0].Path != "/pub/b" {
			t.Errorf("expected newest first, got %+v", records[0])
		}
		if records[1].ID != id1 || records[1].Listings != 7 {
			t.Errorf("unexpected record %+v", records[1])
		}

		records, err = GetRecentSearches(db, 1)
		if err != nil {
			t.Fatalf("GetRecentSearches failed: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("expected limit to apply, got %d", len(records))
		}
	})

	t.Run("Locations", func(t *testing.T) {
		host := "ftp.example.org"

		// First find
		if err := UpdateFrecency(db, host, "target.cfg", "/etc/app"); err != nil {
			t.Fatalf("UpdateFrecency 1 failed: %v", err)
		}
		locations, err := GetKnownLocations(db, host, "target.cfg")
		if err != nil {
			t.Fatalf("GetKnownLocations failed: %v", err)
		}
		if len(locations) != 1 {
			t.Fatalf("expected 1 location, got %d", len(locations))
		}
		if locations[0].Frequency != 1 {
			t.Errorf("expected frequency 1, got %d", locations[0].Frequency)
		}

		// Second find, plus another place and another host
		if err := UpdateFrecency(db, host, "target.cfg", "/etc/app"); err != nil {
			t.Fatalf("UpdateFrecency 2 failed: %v", err)
		}
		if err := UpdateFrecency(db, host, "target.cfg", "/srv/app"); err != nil {
			t.Fatalf("UpdateFrecency 3 failed: %v", err)
		}
		if err := UpdateFrecency(db, "mirror.example.org", "target.cfg", "/pub"); err != nil {
			t.Fatalf("UpdateFrecency 4 failed: %v", err)
		}

		locations, err = GetKnownLocations(db, host, "target.cfg")
		if err != nil {
			t.Fatalf("GetKnownLocations 2 failed: %v", err)
		}
		if len(locations) != 2 {
			t.Fatalf("expected 2 locations, got %d", len(locations))
		}
		if locations[0].Path != "/etc/app" || locations[0].Frequency != 2 {
			t.Errorf("expected /etc/app with frequency 2 first, got %+v", locations[0])
		}

		all, err := GetKnownLocations(db, "", "target.cfg")
		if err != nil {
			t.Fatalf("GetKnownLocations any host failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 locations across hosts, got %d", len(all))
		}
	})

	t.Run("Profiles", func(t *testing.T) {
		p := Profile{Name: "mirror", Host: "ftp.example.org", Port: 21, User: "anonymous"}
		if err := SaveProfile(db, p); err != nil {
			t.Fatalf("SaveProfile failed: %v", err)
		}
		p.TLS = true
		p.Port = 990
		if err := SaveProfile(db, p); err != nil {
			t.Fatalf("SaveProfile update failed: %v", err)
		}
		if err := SaveProfile(db, Profile{Name: "archive", Host: "archive.example.org", Port: 21}); err != nil {
			t.Fatalf("SaveProfile failed: %v", err)
		}

		got, err := GetProfile(db, "mirror")
		if err != nil {
			t.Fatalf("GetProfile failed: %v", err)
		}
		if got != p {
			t.Errorf("expected %+v, got %+v", p, got)
		}

		profiles, err := ListProfiles(db)
		if err != nil {
			t.Fatalf("ListProfiles failed: %v", err)
		}
		if len(profiles) != 2 || profiles[0].Name != "archive" {
			t.Errorf("expected 2 profiles sorted by name, got %+v", profiles)
		}

		if err := SetSetting(db, SettingDefaultProfile, "mirror"); err != nil {
			t.Fatalf("SetSetting failed: %v", err)
		}
		if err := RemoveProfile(db, "mirror"); err != nil {
			t.Fatalf("RemoveProfile failed: %v", err)
		}
		if _, err := GetProfile(db, "mirror"); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound, got %v", err)
		}
		def, err := GetSetting(db, SettingDefaultProfile)
		if err != nil {
			t.Fatalf("GetSetting failed: %v", err)
		}
		if def != "" {
			t.Errorf("expected default profile to be cleared, got %q", def)
		}
		if err := RemoveProfile(db, "mirror"); !errors.Is(err, ErrProfileNotFound) {
			t.Errorf("expected ErrProfileNotFound on second remove, got %v", err)
		}
		if err := SaveProfile(db, Profile{Name: "nohost"}); err == nil {
			t.Error("expected an error for a profile without host")
		}
	})

	t.Run("Settings", func(t *testing.T) {
		value, err := GetSetting(db, "missing")
		if err != nil {
			t.Fatalf("GetSetting failed: %v", err)
		}
		if value != "" {
			t.Errorf("expected empty value, got %q", value)
		}

		if err := SetSetting(db, "k", "v1"); err != nil {
			t.Fatalf("SetSetting failed: %v", err)
		}
		if err := SetSetting(db, "k", "v2"); err != nil {
			t.Fatalf("SetSetting overwrite failed: %v", err)
		}
		value, _ = GetSetting(db, "k")
		if value != "v2" {
			t.Errorf("expected v2, got %q", value)
		}
		if err := DeleteSetting(db, "k"); err != nil {
			t.Fatalf("DeleteSetting failed: %v", err)
		}
		value, _ = GetSetting(db, "k")
		if value != "" {
			t.Errorf("expected deleted setting, got %q", value)
		}
	})
}

func TestInitDBCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "ftpseek.db")
	db, err := InitDB(dbPath)
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	db.Close()
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("expected database file: %v", err)
	}
}
