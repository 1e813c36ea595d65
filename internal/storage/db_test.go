package storage

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	})

	return db
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := db.InsertRun(Run{CreatedAt: 1, Wallpaper: "/w.png", Method: "median_cut", PaletteJSON: "{}"}); err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: Open() error = %v", err)
	}
	defer db.Close()
	latest, err := db.LatestRun()
	if err != nil || latest == nil {
		t.Fatalf("LatestRun() after reopen = %v, %v", latest, err)
	}
}

func TestRunRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if latest, err := db.LatestRun(); err != nil || latest != nil {
		t.Fatalf("LatestRun() on empty db = %#v, %v", latest, err)
	}

	first := Run{CreatedAt: 10, Wallpaper: "/walls/a.png", Method: "kmeans_lab", Quality: 0.5, PaletteJSON: `{"a":1}`}
	second := Run{
		CreatedAt:   20,
		Wallpaper:   "/walls/b.png",
		Method:      "adaptive",
		Quality:     0.8,
		Accessible:  true,
		PaletteJSON: `{"b":2}`,
		Results: []AppResult{
			{App: "rofi", Success: true, OutputPath: "/tmp/rofi.rasi", Reloaded: true},
			{App: "nope", Error: "unknown application: nope"},
		},
	}
	id1, err := db.InsertRun(first)
	if err != nil {
		t.Fatalf("InsertRun(first) error = %v", err)
	}
	id2, err := db.InsertRun(second)
	if err != nil {
		t.Fatalf("InsertRun(second) error = %v", err)
	}
	if id1 == "" || id1 == id2 {
		t.Fatalf("InsertRun() ids = %q, %q, want distinct uuids", id1, id2)
	}

	latest, err := db.LatestRun()
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if latest == nil || latest.ID != id2 || !latest.Accessible || latest.Quality != 0.8 {
		t.Fatalf("LatestRun() = %#v, want second run", latest)
	}
	if len(latest.Results) != 2 || latest.Results[0].App != "rofi" || !latest.Results[0].Reloaded {
		t.Fatalf("LatestRun() results = %#v", latest.Results)
	}
	if latest.Results[1].Success || latest.Results[1].Error == "" {
		t.Fatalf("failed result = %#v", latest.Results[1])
	}

	ranged, err := db.RunsInRange(5, 15)
	if err != nil {
		t.Fatalf("RunsInRange() error = %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != id1 || len(ranged[0].Results) != 0 {
		t.Fatalf("RunsInRange() = %#v, want only the first run", ranged)
	}

	all, err := db.RunsInRange(0, 100)
	if err != nil {
		t.Fatalf("RunsInRange() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != id1 || all[1].ID != id2 {
		t.Fatalf("RunsInRange() order = %#v", all)
	}
}

func TestInsertRun_KeepsGivenID(t *testing.T) {
	db := openTestDB(t)
	id, err := db.InsertRun(Run{ID: "fixed", CreatedAt: 1, PaletteJSON: "{}"})
	if err != nil {
		t.Fatalf("InsertRun() error = %v", err)
	}
	if id != "fixed" {
		t.Fatalf("InsertRun() id = %q, want fixed", id)
	}
	if _, err := db.InsertRun(Run{ID: "fixed", CreatedAt: 2, PaletteJSON: "{}"}); err == nil {
		t.Fatal("InsertRun() duplicate id error = nil")
	}
}

func TestPaletteCache(t *testing.T) {
	db := openTestDB(t)

	entry := CachedPalette{Path: "/walls/a.png", Method: "kmeans_lab", Size: 1024, ModTime: 500, PaletteJSON: `{"v":1}`, CreatedAt: 10}
	if err := db.PutCachedPalette(entry); err != nil {
		t.Fatalf("PutCachedPalette() error = %v", err)
	}

	got, err := db.CachedPalette("/walls/a.png", "kmeans_lab", 1024, 500)
	if err != nil {
		t.Fatalf("CachedPalette() error = %v", err)
	}
	if got == nil || got.PaletteJSON != `{"v":1}` {
		t.Fatalf("CachedPalette() = %#v", got)
	}

	for _, tt := range []struct {
		name        string
		method      string
		size, mtime int64
	}{
		{"other method", "median_cut", 1024, 500},
		{"file grew", "kmeans_lab", 2048, 500},
		{"file touched", "kmeans_lab", 1024, 501},
	} {
		got, err := db.CachedPalette("/walls/a.png", tt.method, tt.size, tt.mtime)
		if err != nil || got != nil {
			t.Fatalf("%s: CachedPalette() = %#v, %v, want miss", tt.name, got, err)
		}
	}

	entry.ModTime, entry.PaletteJSON = 501, `{"v":2}`
	if err := db.PutCachedPalette(entry); err != nil {
		t.Fatalf("PutCachedPalette(update) error = %v", err)
	}
	got, err = db.CachedPalette("/walls/a.png", "kmeans_lab", 1024, 501)
	if err != nil || got == nil || got.PaletteJSON != `{"v":2}` {
		t.Fatalf("CachedPalette() after update = %#v, %v", got, err)
	}
	if n := countRows(t, db, "palette_cache"); n != 1 {
		t.Fatalf("palette_cache rows = %d, want 1", n)
	}
}
