package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayEnergyColors     OverlayID = "energy_colors"
	OverlayEffects          OverlayID = "effects"
	OverlayBreedingRadius   OverlayID = "breeding_radius"
	OverlayAttractionRadius OverlayID = "attraction_radius"
	OverlayStats            OverlayID = "stats"
	OverlayPerf             OverlayID = "perf"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping (e.g., "visual", "debug")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	// Visual overlays
	r.Register(OverlayDescriptor{
		ID:          OverlayEnergyColors,
		Name:        "Energy Colors",
		Description: "Color organisms by remaining energy instead of text hue",
		Key:         rl.KeyE,
		KeyLabel:    "E",
		Category:    "visual",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayEffects,
		Name:        "Birth/Death Effects",
		Description: "Particle bursts where organisms appear and vanish",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "visual",
	})
	r.SetEnabled(OverlayEffects, true)

	// Debug overlays
	r.Register(OverlayDescriptor{
		ID:          OverlayBreedingRadius,
		Name:        "Breeding Radius",
		Description: "Show the distance below which pairs may breed",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "debug",
		Exclusive:   []OverlayID{OverlayAttractionRadius},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayAttractionRadius,
		Name:        "Attraction Radius",
		Description: "Show the semantic gravity cutoff",
		Key:         rl.KeyA,
		KeyLabel:    "A",
		Category:    "debug",
		Exclusive:   []OverlayID{OverlayBreedingRadius},
	})

	// Panels
	r.Register(OverlayDescriptor{
		ID:          OverlayStats,
		Name:        "Window Stats",
		Description: "Show the last telemetry window",
		Key:         rl.KeyS,
		KeyLabel:    "S",
		Category:    "panels",
	})
	r.SetEnabled(OverlayStats, true)

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Tick Performance",
		Description: "Show per-phase tick timing",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "panels",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	newState := !r.enabled[id]
	r.SetEnabled(id, newState)
	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeys toggles every overlay whose key was pressed this frame.
func (r *OverlayRegistry) HandleKeys() {
	for _, desc := range r.descriptors {
		if desc.Key != 0 && rl.IsKeyPressed(desc.Key) {
			r.Toggle(desc.ID)
		}
	}
}
