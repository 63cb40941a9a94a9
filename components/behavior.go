// Package components defines ECS components for the tile world.
package components

// TileState is the switchable state of a dynamic tile.
type TileState uint8

const (
	StateNone TileState = iota
	StateOpen
	StateClosed
	StateOn
	StateOff
)

// LightBehavior describes how a tile emits and blocks light.
type LightBehavior struct {
	Emissivity      float32 // lumens when emission is enabled
	Color           Color
	Transmissivity  float32 // factor applied to open air transmissivity
	EmissionEnabled bool
	SeeThrough      bool
	Spectral        Spectral // additional non-visible contribution
}

// EmittedLux returns the lux the tile currently emits, never negative.
func (l LightBehavior) EmittedLux() float32 {
	if !l.EmissionEnabled || l.Emissivity < 0 {
		return 0
	}
	return l.Emissivity
}

// MovementBehavior describes who may walk through a tile.
type MovementBehavior struct {
	Walkable        bool
	PlayerCollision bool
	GhostCollision  bool
}

// Behavior is the full behavior record of a placed tile.
type Behavior struct {
	Light   LightBehavior
	Move    MovementBehavior
	Dynamic bool // doors and switchable lights
	State   TileState
}

// Room marks a tile as part of an interior room.
type Room struct {
	Name string
}

// Opaque transmissivity factor for walls and closed doors.
const opaqueFactor = 0.00001

// Floor returns the behavior of a walkable floor tile.
func Floor() Behavior {
	return Behavior{
		Light: LightBehavior{Color: White, Transmissivity: 1, SeeThrough: true},
		Move:  MovementBehavior{Walkable: true},
	}
}

// Wall returns the behavior of an opaque wall.
func Wall() Behavior {
	return Behavior{
		Light: LightBehavior{Color: White, Transmissivity: opaqueFactor},
		Move:  MovementBehavior{PlayerCollision: true, GhostCollision: true},
	}
}

// Window returns a wall that lets light and sight through.
func Window() Behavior {
	return Behavior{
		Light: LightBehavior{Color: White, Transmissivity: 1, SeeThrough: true},
		Move:  MovementBehavior{PlayerCollision: true, GhostCollision: true},
	}
}

// Lamp returns a switchable light fixture standing on a floor tile.
func Lamp(lumens float32, color Color, on bool) Behavior {
	b := Behavior{
		Light: LightBehavior{
			Emissivity:     lumens,
			Color:          color,
			Transmissivity: 1,
			SeeThrough:     true,
		},
		Move:    MovementBehavior{Walkable: true},
		Dynamic: true,
	}
	b.SetOn(on)
	return b
}

// Door returns a door in the given state.
func Door(open bool) Behavior {
	b := Behavior{
		Light:   LightBehavior{Color: White},
		Dynamic: true,
	}
	b.SetOpen(open)
	return b
}

// SetOpen switches a door, updating how it blocks light and movement.
func (b *Behavior) SetOpen(open bool) {
	if open {
		b.State = StateOpen
		b.Light.Transmissivity = 1
		b.Light.SeeThrough = true
		b.Move = MovementBehavior{Walkable: true}
		return
	}
	b.State = StateClosed
	b.Light.Transmissivity = opaqueFactor
	b.Light.SeeThrough = false
	b.Move = MovementBehavior{PlayerCollision: true}
}

// SetOn switches a light fixture.
func (b *Behavior) SetOn(on bool) {
	b.Light.EmissionEnabled = on
	if on {
		b.State = StateOn
	} else {
		b.State = StateOff
	}
}

// IsDoor reports whether the tile is a door.
func (b Behavior) IsDoor() bool {
	return b.State == StateOpen || b.State == StateClosed
}
