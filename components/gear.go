package components

// GearKind is a handheld light the viewer may carry.
type GearKind uint8

const (
	GearFlashlight GearKind = iota
	GearUVTorch
	GearRedTorch
	GearVideocam
)

func (k GearKind) String() string {
	switch k {
	case GearFlashlight:
		return "flashlight"
	case GearUVTorch:
		return "uv_torch"
	case GearRedTorch:
		return "red_torch"
	case GearVideocam:
		return "videocam"
	}
	return "unknown"
}

// LightType returns the band the gear emits in.
func (k GearKind) LightType() LightType {
	switch k {
	case GearUVTorch:
		return LightUltraviolet
	case GearRedTorch:
		return LightRed
	case GearVideocam:
		return LightInfrared
	}
	return LightVisible
}

// HandheldLight is a point light carried by someone on the board.
type HandheldLight struct {
	Kind  GearKind
	Pos   Position
	Power float32
	Color Color
	Type  LightType
	On    bool
}

// NewHandheld creates a switched-on handheld light of the given kind.
func NewHandheld(kind GearKind, pos Position, power float32, color Color) HandheldLight {
	return HandheldLight{
		Kind:  kind,
		Pos:   pos,
		Power: power,
		Color: color,
		Type:  kind.LightType(),
		On:    true,
	}
}
