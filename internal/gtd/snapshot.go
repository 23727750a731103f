package gtd

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// The snapshot cache holds the normalised base columns of the dataset in a
// single sqlite table, keyed to the source file's size and mtime. Derived
// columns are recomputed by enrich on every load so the derivation logic has
// a single home.

const snapshotSchema = `
	CREATE TABLE IF NOT EXISTS source_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		source_size INTEGER NOT NULL,
		source_mtime INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS incidents (
		event_id BIGINT PRIMARY KEY,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		day INTEGER NOT NULL,
		country TEXT NOT NULL,
		region TEXT NOT NULL,
		provstate TEXT NOT NULL,
		city TEXT NOT NULL,
		latitude DOUBLE,
		longitude DOUBLE,
		success INTEGER NOT NULL,
		suicide INTEGER NOT NULL,
		attack_type TEXT NOT NULL,
		target_type TEXT NOT NULL,
		weapon_type TEXT NOT NULL,
		group_name TEXT NOT NULL,
		kills DOUBLE NOT NULL,
		wounds DOUBLE NOT NULL
	);
`

// loadSnapshot returns the cached rows when the snapshot exists and matches
// the current source file. ok is false when there is no usable snapshot.
func loadSnapshot(path, sourcePath string) (rows []Incident, ok bool, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, false, nil
	}
	size, mtime, err := sourceStamp(sourcePath)
	if err != nil {
		return nil, false, nil
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, false, fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	var gotSize, gotMtime int64
	err = db.QueryRow("SELECT source_size, source_mtime FROM source_meta WHERE id = 1").Scan(&gotSize, &gotMtime)
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot meta: %w", err)
	}
	if gotSize != size || gotMtime != mtime {
		// Stale snapshot; the caller re-parses the CSV.
		return nil, false, nil
	}

	res, err := db.Query(`
		SELECT event_id, year, month, day, country, region, provstate, city,
		       latitude, longitude, success, suicide,
		       attack_type, target_type, weapon_type, group_name, kills, wounds
		FROM incidents ORDER BY event_id`)
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot rows: %w", err)
	}
	defer res.Close()

	for res.Next() {
		var in Incident
		var lat, lon sql.NullFloat64
		var success, suicide int
		if err := res.Scan(
			&in.EventID, &in.Year, &in.Month, &in.Day,
			&in.Country, &in.Region, &in.ProvState, &in.City,
			&lat, &lon, &success, &suicide,
			&in.AttackType, &in.TargetType, &in.WeaponType, &in.Group,
			&in.Kills, &in.Wounds,
		); err != nil {
			return nil, false, fmt.Errorf("scan snapshot row: %w", err)
		}
		if lat.Valid {
			v := lat.Float64
			in.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			in.Longitude = &v
		}
		in.Success = success != 0
		in.Suicide = suicide != 0
		rows = append(rows, in)
	}
	if err := res.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return rows, true, nil
}

// writeSnapshot replaces the snapshot contents with the given rows.
func writeSnapshot(path, sourcePath string, rows []Incident) error {
	size, mtime, err := sourceStamp(sourcePath)
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(snapshotSchema); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM incidents"); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO source_meta (id, source_size, source_mtime) VALUES (1, ?, ?)",
		size, mtime,
	); err != nil {
		return fmt.Errorf("write snapshot meta: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO incidents (
			event_id, year, month, day, country, region, provstate, city,
			latitude, longitude, success, suicide,
			attack_type, target_type, weapon_type, group_name, kills, wounds
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for i := range rows {
		r := &rows[i]
		var lat, lon any
		if r.Latitude != nil {
			lat = *r.Latitude
		}
		if r.Longitude != nil {
			lon = *r.Longitude
		}
		if _, err := stmt.Exec(
			r.EventID, r.Year, r.Month, r.Day,
			r.Country, r.Region, r.ProvState, r.City,
			lat, lon, boolInt(r.Success), boolInt(r.Suicide),
			r.AttackType, r.TargetType, r.WeaponType, r.Group,
			r.Kills, r.Wounds,
		); err != nil {
			return fmt.Errorf("insert snapshot row %d: %w", r.EventID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func sourceStamp(path string) (size, mtime int64, err error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("stat source: %w", err)
	}
	return fi.Size(), fi.ModTime().UnixNano(), nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
