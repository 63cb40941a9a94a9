package systems

import "github.com/pthm-cable/gloam/components"

// Dims is the size of a 3-D board in cells.
type Dims struct {
	X, Y, Z int
}

// Len returns the number of cells.
func (d Dims) Len() int {
	return d.X * d.Y * d.Z
}

// Contains reports whether p lies inside the board.
func (d Dims) Contains(p components.BoardPosition) bool {
	return p.X >= 0 && p.Y >= 0 && p.Z >= 0 && p.X < d.X && p.Y < d.Y && p.Z < d.Z
}

// Index returns the flat index of p. The caller must check Contains first.
func (d Dims) Index(p components.BoardPosition) int {
	return (p.X*d.Y+p.Y)*d.Z + p.Z
}

// Pos returns the position of flat index i.
func (d Dims) Pos(i int) components.BoardPosition {
	z := i % d.Z
	i /= d.Z
	return components.BoardPosition{X: i / d.Y, Y: i % d.Y, Z: z}
}

// Grid is a dense x-major 3-D array of cells.
type Grid[T any] struct {
	Dims  Dims
	Cells []T
}

// NewGrid allocates a grid with every cell set to fill.
func NewGrid[T any](dims Dims, fill T) *Grid[T] {
	g := &Grid[T]{Dims: dims, Cells: make([]T, dims.Len())}
	g.Fill(fill)
	return g
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.Cells {
		g.Cells[i] = v
	}
}

// Get returns the cell at p and whether p is inside the grid.
func (g *Grid[T]) Get(p components.BoardPosition) (T, bool) {
	if !g.Dims.Contains(p) {
		var zero T
		return zero, false
	}
	return g.Cells[g.Dims.Index(p)], true
}

// At returns a pointer to the cell at p, or nil outside the grid.
func (g *Grid[T]) At(p components.BoardPosition) *T {
	if !g.Dims.Contains(p) {
		return nil
	}
	return &g.Cells[g.Dims.Index(p)]
}

// Clone returns a deep copy of the grid.
func (g *Grid[T]) Clone() *Grid[T] {
	c := &Grid[T]{Dims: g.Dims, Cells: make([]T, len(g.Cells))}
	copy(c.Cells, g.Cells)
	return c
}

// CopyFrom overwrites g with src. Both grids must share dimensions.
func (g *Grid[T]) CopyFrom(src *Grid[T]) {
	copy(g.Cells, src.Cells)
}
