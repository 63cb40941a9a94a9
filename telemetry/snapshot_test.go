package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version:    SnapshotVersion,
		Width:      3,
		Height:     2,
		Floors:     1,
		Tick:       120,
		Mode:       "full",
		Exposure:   1.5,
		ViewerX:    1,
		ViewerY:    1,
		Lux:        []float32{0, 1, 2, 3, 4, 5},
		Visibility: []float32{0, 0.5, 1, 0.5, 0, 0},
		Bookmark: &Bookmark{
			Type:        BookmarkBlackout,
			Tick:        120,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if !strings.HasSuffix(path, "snapshot_120_blackout.json") {
		t.Errorf("unexpected snapshot path %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Tick != snapshot.Tick || loaded.Mode != snapshot.Mode || loaded.Exposure != snapshot.Exposure {
		t.Errorf("header mismatch: got %+v", loaded)
	}
	if got := loaded.Lux[loaded.Index(1, 0, 0)]; got != 2 {
		t.Errorf("lux at (1,0,0) = %v, want 2", got)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkBlackout {
		t.Errorf("bookmark not preserved: %+v", loaded.Bookmark)
	}
}

func TestLoadSnapshotRejectsShortFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	data := `{"version":1,"width":2,"height":2,"floors":1,"lux":[1,2,3],"visibility":[0,0,0,0]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected error for mismatched field length")
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	if _, err := LoadSnapshot(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
