package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/biosynth/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the population state for later inspection or restore.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	RNGSeed int64  `json:"rng_seed"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`

	Tick uint64 `json:"tick"`

	Organisms []OrganismState `json:"organisms"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// OrganismState holds one organism's complete state.
type OrganismState struct {
	ID   components.ID `json:"id"`
	Text string        `json:"text"`

	// Position and movement
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	VelX float64 `json:"vel_x"`
	VelY float64 `json:"vel_y"`

	Energy     float64       `json:"energy"`
	Age        uint64        `json:"age"`
	Generation int           `json:"generation"`
	ParentA    components.ID `json:"parent_a,omitempty"`
	ParentB    components.ID `json:"parent_b,omitempty"`

	Lineage *LineageJSON `json:"lineage,omitempty"`
}

// NewOrganismState flattens a store copy into its snapshot form.
func NewOrganismState(st components.State) OrganismState {
	return OrganismState{
		ID:         st.Org.ID,
		Text:       st.Org.Text,
		X:          st.Pos.X,
		Y:          st.Pos.Y,
		VelX:       st.Vel.X,
		VelY:       st.Vel.Y,
		Energy:     st.Energy.Value,
		Age:        st.Energy.Age,
		Generation: st.Org.Generation,
		ParentA:    st.Org.ParentA,
		ParentB:    st.Org.ParentB,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
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
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
