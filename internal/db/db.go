package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"transportcore/internal/transport"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a pooled connection to the realm database via the pgx
// stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// Ping verifies the connection is live, bounding the attempt to 5s.
func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

// FetchTransportTemplates loads every MO_TRANSPORT catalog row.
func FetchTransportTemplates(ctx context.Context, db *sql.DB) ([]transport.TransportTemplate, error) {
	const q = `
SELECT entry, display_name, move_speed, taxi_path_id, size, faction_flags
FROM transport_template
ORDER BY entry`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query transport_template: %w", err)
	}
	defer rows.Close()

	var out []transport.TransportTemplate
	for rows.Next() {
		var t transport.TransportTemplate
		if err := rows.Scan(&t.Entry, &t.DisplayName, &t.MoveSpeed, &t.TaxiPathID, &t.Size, &t.FactionFlags); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FetchTaxiPathNodes loads the ordered node list for pathID. It
// supports both the common x/y/z column layout and a PostGIS
// geography column fallback, mirroring the column-introspection
// pattern the teacher uses for its shapes/stops tables.
func FetchTaxiPathNodes(ctx context.Context, db *sql.DB, pathID uint32) ([]transport.TaxiPathNode, error) {
	xyzExists, err := hasColumns(ctx, db, "public", "taxi_path_node", "x", "y", "z")
	if err != nil {
		return nil, fmt.Errorf("introspect taxi_path_node columns: %w", err)
	}

	var q string
	if xyzExists["x"] && xyzExists["y"] && xyzExists["z"] {
		q = `SELECT map_id, x, y, z, delay, action_flag, arrival_event_id, departure_event_id
             FROM taxi_path_node WHERE path_id = $1 ORDER BY node_index`
	} else {
		locExists, err := hasColumns(ctx, db, "public", "taxi_path_node", "loc")
		if err != nil {
			return nil, fmt.Errorf("introspect taxi_path_node loc: %w", err)
		}
		if !locExists["loc"] {
			return nil, fmt.Errorf("taxi_path_node table missing expected columns (x/y/z or loc)")
		}
		q = `SELECT map_id, ST_X(loc::geometry), ST_Y(loc::geometry), ST_Z(loc::geometry),
                    delay, action_flag, arrival_event_id, departure_event_id
             FROM taxi_path_node WHERE path_id = $1 ORDER BY node_index`
	}

	rows, err := db.QueryContext(ctx, q, pathID)
	if err != nil {
		return nil, fmt.Errorf("query taxi_path_node: %w", err)
	}
	defer rows.Close()

	var nodes []transport.TaxiPathNode
	for rows.Next() {
		var n transport.TaxiPathNode
		if err := rows.Scan(&n.MapID, &n.X, &n.Y, &n.Z, &n.Delay, &n.ActionFlag, &n.ArrivalEventID, &n.DepartureEventID); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// FetchSpawnTableEntries returns every game object entry present in
// the generic spawn table, used by CheckSpawnTableIntegrity to flag
// any transport entry that was mistakenly spawned through the normal
// path instead of its CarrierInstance lifecycle (grounded on
// TransportMgr::LoadTransports's trailing integrity query).
func FetchSpawnTableEntries(ctx context.Context, db *sql.DB) ([]uint32, error) {
	const q = `SELECT DISTINCT entry FROM gameobject`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query gameobject: %w", err)
	}
	defer rows.Close()

	var out []uint32
	for rows.Next() {
		var e uint32
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// hasColumns returns a map of requested column names to existence for
// the given table.
func hasColumns(ctx context.Context, db *sql.DB, schema, table string, cols ...string) (map[string]bool, error) {
	res := make(map[string]bool, len(cols))
	if len(cols) == 0 {
		return res, nil
	}
	for _, c := range cols {
		res[c] = false
	}
	q := `SELECT column_name FROM information_schema.columns
          WHERE table_schema = $1 AND table_name = $2 AND column_name = ANY($3)`
	rows, err := db.QueryContext(ctx, q, schema, table, cols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res[name] = true
	}
	return res, rows.Err()
}
