package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayLux        OverlayID = "lux"
	OverlayVisibility OverlayID = "visibility"
	OverlayPerceived  OverlayID = "perceived"
	OverlayCollision  OverlayID = "collision"
	OverlayRooms      OverlayID = "rooms"
	OverlayOwnership  OverlayID = "ownership"
	OverlayWaveEdges  OverlayID = "wave_edges"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping (e.g., "visual", "debug", "ai")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID // Maintains insertion order for display
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

// registerDefaults adds standard overlays. The field overlays pick the
// heatmap and exclude each other; debug overlays draw on top.
func (r *OverlayRegistry) registerDefaults() {
	fields := []OverlayID{OverlayLux, OverlayVisibility, OverlayPerceived}
	others := func(id OverlayID) []OverlayID {
		var out []OverlayID
		for _, f := range fields {
			if f != id {
				out = append(out, f)
			}
		}
		return out
	}

	r.Register(OverlayDescriptor{
		ID:          OverlayLux,
		Name:        "Lux",
		Description: "Log-scaled lux of the published light field",
		Key:         rl.KeyL,
		KeyLabel:    "L",
		Category:    "field",
		Exclusive:   others(OverlayLux),
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayVisibility,
		Name:        "Visibility",
		Description: "Line-of-sight visibility from the viewer",
		Key:         rl.KeyV,
		KeyLabel:    "V",
		Category:    "field",
		Exclusive:   others(OverlayVisibility),
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerceived,
		Name:        "Perceived",
		Description: "Lux scaled by exposure and visibility",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "field",
		Exclusive:   others(OverlayPerceived),
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayCollision,
		Name:        "Collision",
		Description: "Blocked cells and closed doors",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayRooms,
		Name:        "Rooms",
		Description: "Interior cells",
		Key:         rl.KeyR,
		KeyLabel:    "R",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayOwnership,
		Name:        "Ownership",
		Description: "Baked source owning each cell",
		Key:         rl.KeyO,
		KeyLabel:    "O",
		Category:    "prebake",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayWaveEdges,
		Name:        "Wave Edges",
		Description: "Cells where light continues past doors",
		Key:         rl.KeyE,
		KeyLabel:    "E",
		Category:    "prebake",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	desc, ok := r.byID[id]
	if !ok {
		return false
	}

	newState := !r.enabled[id]
	r.enabled[id] = newState

	// If enabling, disable exclusive overlays
	if newState {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}

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

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
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

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// EnabledOverlays returns a list of currently enabled overlay IDs.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var result []OverlayID
	for _, id := range r.order {
		if r.enabled[id] {
			result = append(result, id)
		}
	}
	return result
}
