package game

import (
	"fmt"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/systems"
)

// SetDoor opens or closes the door at p.
func (b *Board) SetDoor(p components.BoardPosition, open bool) error {
	behavior := b.find(p, components.Behavior.IsDoor)
	if behavior == nil {
		return fmt.Errorf("no door at %+v", p)
	}
	if (behavior.State == components.StateOpen) == open {
		return nil
	}
	behavior.SetOpen(open)
	b.pending.Request(systems.RebuildRequest{Collision: true, Lighting: true})
	return nil
}

// ToggleDoor flips the door at p. Returns the new state.
func (b *Board) ToggleDoor(p components.BoardPosition) (bool, error) {
	behavior := b.find(p, components.Behavior.IsDoor)
	if behavior == nil {
		return false, fmt.Errorf("no door at %+v", p)
	}
	open := behavior.State != components.StateOpen
	return open, b.SetDoor(p, open)
}

// SetLamp switches the lamp at p.
func (b *Board) SetLamp(p components.BoardPosition, on bool) error {
	behavior := b.find(p, isLamp)
	if behavior == nil {
		return fmt.Errorf("no lamp at %+v", p)
	}
	if behavior.Light.EmissionEnabled == on {
		return nil
	}
	behavior.SetOn(on)
	b.pending.Request(systems.RebuildRequest{Lighting: true})
	return nil
}

// Doors returns the position and state of every door.
func (b *Board) Doors() map[components.BoardPosition]bool {
	b.collectTiles()
	return systems.CollectDoorStates(b.tiles)
}

// Lamps returns the position and state of every lamp.
func (b *Board) Lamps() map[components.BoardPosition]bool {
	lamps := make(map[components.BoardPosition]bool)
	query := b.tileFilter.Query()
	for query.Next() {
		pos, behavior := query.Get()
		if isLamp(*behavior) {
			lamps[*pos] = behavior.Light.EmissionEnabled
		}
	}
	return lamps
}

func isLamp(b components.Behavior) bool {
	return b.Dynamic && !b.IsDoor() && b.Light.Emissivity > 0
}

// find returns the behavior of the first tile at p matching match.
func (b *Board) find(p components.BoardPosition, match func(components.Behavior) bool) *components.Behavior {
	for _, e := range b.cells[p] {
		if !b.world.Alive(e) {
			continue
		}
		behavior := b.behaviorMap.Get(e)
		if behavior != nil && match(*behavior) {
			return behavior
		}
	}
	return nil
}
