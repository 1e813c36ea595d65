package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cptspacemanspiff/wallpaper-themer/internal/palette"
)

const recordFile = "last_application.json"

// Record is the summary written after every Apply.
type Record struct {
	Timestamp    time.Time         `json:"timestamp"`
	Palette      palette.Document  `json:"palette"`
	Applications map[string]Result `json:"applications"`
}

func (a *Applier) writeRecord(p *palette.Palette, results []Result) error {
	rec := Record{
		Timestamp:    a.now(),
		Palette:      p.Document(),
		Applications: make(map[string]Result, len(results)),
	}
	for _, r := range results {
		rec.Applications[r.App] = r
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode application record: %w", err)
	}
	return writeFileAtomic(filepath.Join(a.configDir, recordFile), data, 0o644)
}

// LastRecord reads the record of the previous Apply.
func (a *Applier) LastRecord() (*Record, error) {
	data, err := os.ReadFile(filepath.Join(a.configDir, recordFile))
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode application record: %w", err)
	}
	return &rec, nil
}
