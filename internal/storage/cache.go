package storage

import "database/sql"

// CachedPalette is a stored extraction result keyed by file and method.
type CachedPalette struct {
	Path        string
	Method      string
	Size        int64
	ModTime     int64
	PaletteJSON string
	CreatedAt   int64
}

// CachedPalette returns the cached palette for path and method when the
// file's size and mtime still match, or nil.
func (d *DB) CachedPalette(path, method string, size, mtime int64) (*CachedPalette, error) {
	row := d.db.QueryRow(
		"SELECT path, method, size, mtime, palette_json, created_at FROM palette_cache WHERE path = ? AND method = ? AND size = ? AND mtime = ?",
		path, method, size, mtime,
	)
	var c CachedPalette
	err := row.Scan(&c.Path, &c.Method, &c.Size, &c.ModTime, &c.PaletteJSON, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PutCachedPalette inserts or replaces a cache entry.
func (d *DB) PutCachedPalette(c CachedPalette) error {
	_, err := d.db.Exec(
		`INSERT INTO palette_cache (path, method, size, mtime, palette_json, created_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path, method) DO UPDATE SET size = excluded.size, mtime = excluded.mtime,
		 palette_json = excluded.palette_json, created_at = excluded.created_at`,
		c.Path, c.Method, c.Size, c.ModTime, c.PaletteJSON, c.CreatedAt,
	)
	return err
}
