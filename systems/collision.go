package systems

// RebuildCollision recomputes cf from the placed tiles. Walkable tiles free a
// cell; tiles that collide with players override whatever else stands there.
func RebuildCollision(cf *CollisionField, tiles []Tile) {
	cf.Fill(CollisionCell{})

	for _, t := range tiles {
		if !t.Behavior.Move.Walkable {
			continue
		}
		cell, ok := cf.Get(t.Pos)
		if !ok {
			continue
		}
		*cf.At(t.Pos) = CollisionCell{
			PlayerFree: true,
			GhostFree:  true,
			SeeThrough: cell.SeeThrough || t.Behavior.Light.SeeThrough,
			Dynamic:    cell.Dynamic || t.Behavior.Dynamic,
		}
	}

	for _, t := range tiles {
		if !t.Behavior.Move.PlayerCollision || !cf.Dims.Contains(t.Pos) {
			continue
		}
		*cf.At(t.Pos) = CollisionCell{
			GhostFree:  !t.Behavior.Move.GhostCollision,
			SeeThrough: t.Behavior.Light.SeeThrough,
			Dynamic:    t.Behavior.Dynamic,
		}
	}
}
