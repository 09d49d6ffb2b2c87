// Package snapshot persists the viewer's persistent state region to sqlite
// so a replaced process can pick up where the old one left off. In-process
// hot restarts never round-trip through here: the State pointer is handed
// off directly and this store exists for process replacement and operator
// inspection.
//
// Handles are process-lifetime-unique and are not preserved across a load;
// the stored handles only serve to remap the saved correspondence result
// onto the freshly promoted clouds.
package snapshot

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/cloudview/internal/app"
	"github.com/banshee-data/cloudview/internal/cloud"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store is a sqlite-backed snapshot of the persistent region. One session is
// stored at a time; Save replaces it wholesale, matching the correspondence
// result's replace-not-merge semantics.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot db: %w", err)
	}
	// Serialised writes keep the busy-retry surface small; the snapshot store
	// sees a single writer anyway.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring snapshot db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrateUp() error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	// Not closing m: that would close the shared DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Save writes the snapshot as the sole stored session in one transaction.
func (s *Store) Save(snap app.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	// Wholesale replace: drop whatever session was stored before.
	for _, table := range []string{"correspondences", "clouds", "sessions"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO sessions (
			session_id, saved_at_ns, zoom, pan_x, pan_y,
			rotation_x, rotation_y, target_fps, search_radius
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.SessionID,
		time.Now().UnixNano(),
		snap.View.Zoom,
		snap.View.PanX,
		snap.View.PanY,
		snap.View.RotationX,
		snap.View.RotationY,
		snap.View.TargetFPS,
		snap.View.SearchRad,
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	for _, entry := range snap.Clouds {
		pointsJSON, err := json.Marshal(entry.Cloud.Points)
		if err != nil {
			return fmt.Errorf("encoding points for cloud %d: %w", entry.Handle, err)
		}
		_, err = tx.Exec(`
			INSERT INTO clouds (session_id, handle, color_r, color_g, color_b, points_json)
			VALUES (?, ?, ?, ?, ?, ?)`,
			snap.SessionID,
			uint64(entry.Handle),
			entry.Cloud.Color.R,
			entry.Cloud.Color.G,
			entry.Cloud.Color.B,
			string(pointsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting cloud %d: %w", entry.Handle, err)
		}
	}

	if snap.Result != nil {
		matchesJSON, err := json.Marshal(snap.Result.Matches)
		if err != nil {
			return fmt.Errorf("encoding correspondence result: %w", err)
		}
		_, err = tx.Exec(`
			INSERT INTO correspondences (session_id, source_handle, target_handle, radius, matches_json)
			VALUES (?, ?, ?, ?, ?)`,
			snap.SessionID,
			uint64(snap.Result.SourceHandle),
			uint64(snap.Result.TargetHandle),
			snap.Result.Radius,
			string(matchesJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting correspondence result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

// Load reconstructs a fresh *app.State from the stored session. The second
// return is false when nothing is stored. Clouds are re-promoted under fresh
// handles; the saved correspondence result is remapped onto them.
func (s *Store) Load() (*app.State, bool, error) {
	var (
		sessionID string
		view      app.ViewParams
	)
	err := s.db.QueryRow(`
		SELECT session_id, zoom, pan_x, pan_y, rotation_x, rotation_y, target_fps, search_radius
		FROM sessions LIMIT 1`).Scan(
		&sessionID, &view.Zoom, &view.PanX, &view.PanY,
		&view.RotationX, &view.RotationY, &view.TargetFPS, &view.SearchRad,
	)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading session: %w", err)
	}

	st := app.NewState()
	st.SessionID = sessionID
	st.View = view

	rows, err := s.db.Query(`
		SELECT handle, color_r, color_g, color_b, points_json
		FROM clouds WHERE session_id = ? ORDER BY handle`, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("loading clouds: %w", err)
	}
	defer rows.Close()

	remap := make(map[cloud.Handle]cloud.Handle)
	for rows.Next() {
		var (
			oldHandle  uint64
			color      cloud.RGB
			pointsJSON string
		)
		if err := rows.Scan(&oldHandle, &color.R, &color.G, &color.B, &pointsJSON); err != nil {
			return nil, false, fmt.Errorf("scanning cloud row: %w", err)
		}
		var points []cloud.Point
		if err := json.Unmarshal([]byte(pointsJSON), &points); err != nil {
			return nil, false, fmt.Errorf("decoding points for cloud %d: %w", oldHandle, err)
		}
		h, err := st.Store.Promote(cloud.NewCloud(color, points))
		if err != nil {
			return nil, false, fmt.Errorf("re-promoting cloud %d: %w", oldHandle, err)
		}
		remap[cloud.Handle(oldHandle)] = h
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("loading clouds: %w", err)
	}

	var (
		srcHandle, tgtHandle uint64
		radius               float64
		matchesJSON          string
	)
	err = s.db.QueryRow(`
		SELECT source_handle, target_handle, radius, matches_json
		FROM correspondences WHERE session_id = ?`, sessionID).Scan(
		&srcHandle, &tgtHandle, &radius, &matchesJSON,
	)
	if err == nil {
		res := cloud.Result{Radius: radius}
		if err := json.Unmarshal([]byte(matchesJSON), &res.Matches); err != nil {
			return nil, false, fmt.Errorf("decoding correspondence result: %w", err)
		}
		res.SourceHandle = remap[cloud.Handle(srcHandle)]
		res.TargetHandle = remap[cloud.Handle(tgtHandle)]
		st.Result = &res
	} else if err != sql.ErrNoRows {
		return nil, false, fmt.Errorf("loading correspondence result: %w", err)
	}

	return st, true, nil
}
