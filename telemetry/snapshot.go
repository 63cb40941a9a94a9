package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the derived fields of a board at one tick.
type Snapshot struct {
	Version int `json:"version"`

	Width  int `json:"width"`
	Height int `json:"height"`
	Floors int `json:"floors"`

	Tick     int32   `json:"tick"`
	Mode     string  `json:"mode"`
	Exposure float64 `json:"exposure"`

	// Viewer cell
	ViewerX int `json:"viewer_x"`
	ViewerY int `json:"viewer_y"`
	ViewerZ int `json:"viewer_z"`

	// Flat x-major arrays matching the board layout
	Lux        []float32 `json:"lux"`
	Visibility []float32 `json:"visibility"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// Index returns the flat index of cell (x, y, z).
func (s *Snapshot) Index(x, y, z int) int {
	return (x*s.Height+y)*s.Floors + z
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	cells := snapshot.Width * snapshot.Height * snapshot.Floors
	if len(snapshot.Lux) != cells || len(snapshot.Visibility) != cells {
		return nil, fmt.Errorf("snapshot %s: %d lux and %d visibility values for %d cells",
			path, len(snapshot.Lux), len(snapshot.Visibility), cells)
	}

	return &snapshot, nil
}
