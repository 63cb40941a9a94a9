package systems

// SystemInfo describes a tick phase for UI display.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this system does
	Category    string // Grouping (e.g., "fields", "viewer")
}

// SystemRegistry holds metadata about the tick phases so the preview and
// the perf collector agree on naming.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with every tick phase.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds the board tick phases in execution order.
// IDs match the telemetry phase names.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: "collision", Name: "Collision", Description: "Rebuilds walkable and see-through cells", Category: "fields"})
	r.Register(SystemInfo{ID: "lighting", Name: "Lighting", Description: "Full or prebaked light rebuild", Category: "fields"})
	r.Register(SystemInfo{ID: "visibility", Name: "Visibility", Description: "Line-of-sight flood from the viewer", Category: "viewer"})
	r.Register(SystemInfo{ID: "exposure", Name: "Exposure", Description: "Eye adaptation toward local brightness", Category: "viewer"})
	r.Register(SystemInfo{ID: "telemetry", Name: "Telemetry", Description: "Stats windows, bookmarks and CSV output", Category: "internal"})
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// IDs returns all phase IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
