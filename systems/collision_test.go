package systems

import (
	"testing"

	"github.com/pthm-cable/gloam/components"
)

func TestRebuildCollision(t *testing.T) {
	dims := Dims{X: 6, Y: 1, Z: 1}
	tiles := []Tile{
		{Pos: pos(0, 0), Behavior: components.Floor()},
		{Pos: pos(1, 0), Behavior: components.Floor()},
		{Pos: pos(1, 0), Behavior: components.Wall()},
		{Pos: pos(2, 0), Behavior: components.Window()},
		{Pos: pos(3, 0), Behavior: components.Door(false)},
		{Pos: pos(4, 0), Behavior: components.Door(true)},
		{Pos: pos(7, 0), Behavior: components.Floor()}, // off board
	}

	cf := NewCollisionField(dims)
	*cf.At(pos(5, 0)) = CollisionCell{PlayerFree: true}
	RebuildCollision(cf, tiles)

	tests := []struct {
		name string
		p    components.BoardPosition
		want CollisionCell
	}{
		{"floor", pos(0, 0), CollisionCell{PlayerFree: true, GhostFree: true, SeeThrough: true}},
		{"wall over floor", pos(1, 0), CollisionCell{}},
		{"window", pos(2, 0), CollisionCell{SeeThrough: true}},
		{"closed door", pos(3, 0), CollisionCell{GhostFree: true, Dynamic: true}},
		{"open door", pos(4, 0), CollisionCell{PlayerFree: true, GhostFree: true, SeeThrough: true, Dynamic: true}},
		{"empty cell reset", pos(5, 0), CollisionCell{}},
	}
	for _, tt := range tests {
		got, _ := cf.Get(tt.p)
		if got != tt.want {
			t.Errorf("%s: got %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestRebuildRequestMerge(t *testing.T) {
	var p PendingRebuilds
	if p.Peek().Any() {
		t.Fatal("new pending request should be empty")
	}

	p.Request(RebuildRequest{Collision: true})
	p.Request(RebuildRequest{Lighting: true})
	p.Request(RebuildRequest{})

	got := p.Take()
	if !got.Collision || !got.Lighting {
		t.Errorf("merged request = %+v, want both", got)
	}
	if p.Take().Any() {
		t.Error("Take should clear the pending request")
	}
}
