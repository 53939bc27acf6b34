package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ResolveLatestRealmDBName returns the db_name with the most recent
// imported_at from public.latest_successful_imports where db_name
// ILIKE '%realm%', used to hot-swap onto a freshly regenerated realm
// database without a restart.
func ResolveLatestRealmDBName(ctx context.Context, meta *sql.DB, realm string) (string, error) {
	realm = strings.TrimSpace(realm)
	if realm == "" {
		return "", fmt.Errorf("realm is required")
	}
	q := `
SELECT db_name
FROM public.latest_successful_imports
WHERE db_name ILIKE '%' || $1 || '%'
ORDER BY imported_at DESC
LIMIT 1`
	var dbName sql.NullString
	if err := meta.QueryRowContext(ctx, q, realm).Scan(&dbName); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("no database found for realm like %q", realm)
		}
		return "", err
	}
	if !dbName.Valid || dbName.String == "" {
		return "", fmt.Errorf("empty db_name for realm like %q", realm)
	}
	return dbName.String, nil
}
