package storage

import "fmt"

// DeleteOlderThan deletes runs, their app results and cache entries created
// before the given unix epoch. Returns the total number of deleted rows.
func (d *DB) DeleteOlderThan(before int64) (int64, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	var total int64
	// Children before parents.
	statements := []struct {
		table string
		query string
	}{
		{"app_results", "DELETE FROM app_results WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?)"},
		{"runs", "DELETE FROM runs WHERE created_at < ?"},
		{"palette_cache", "DELETE FROM palette_cache WHERE created_at < ?"},
	}

	for _, s := range statements {
		res, err := tx.Exec(s.query, before)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("delete from %s: %w", s.table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}
