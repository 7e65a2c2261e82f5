package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/biosynth/components"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	st := components.State{
		Pos:    components.Position{X: 150, Y: 250},
		Vel:    components.Velocity{X: 0.5, Y: -0.3},
		Energy: components.Energy{Value: 42, Age: 300},
		Org:    components.Organism{ID: 7, Text: "خورشید", Generation: 2, ParentA: 3, ParentB: 4},
	}
	organism := NewOrganismState(st)
	organism.Lineage = (&LineageStats{BirthTick: 100, Generation: 2, Children: 1, PeakEnergy: 100}).ToJSON()

	snapshot := &Snapshot{
		Version:     SnapshotVersion,
		RunID:       "run-1",
		RNGSeed:     42,
		WorldWidth:  1280,
		WorldHeight: 720,
		Tick:        1000,
		Organisms:   []OrganismState{organism},
		Bookmark: &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        1000,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if !strings.HasSuffix(path, "snapshot_1000_population_crash.json") {
		t.Errorf("unexpected snapshot name %s", filepath.Base(path))
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Tick != 1000 || loaded.RunID != "run-1" || loaded.WorldWidth != 1280 {
		t.Errorf("header mismatch: %+v", loaded)
	}
	if len(loaded.Organisms) != 1 {
		t.Fatalf("organisms = %d, want 1", len(loaded.Organisms))
	}
	got := loaded.Organisms[0]
	if got.Text != "خورشید" || got.X != 150 || got.VelY != -0.3 || got.Energy != 42 || got.Age != 300 {
		t.Errorf("organism mismatch: %+v", got)
	}
	if got.Lineage == nil || got.Lineage.Children != 1 {
		t.Errorf("lineage mismatch: %+v", got.Lineage)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkPopulationCrash {
		t.Errorf("bookmark mismatch: %+v", loaded.Bookmark)
	}
}

func TestLoadSnapshotRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.json")
	if err := os.WriteFile(path, []byte(`{"version": 99}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected error for unknown snapshot version")
	}
}
