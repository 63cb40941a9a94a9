// Package camera provides a 2D camera for viewing a board grid.
package camera

import "math"

// Camera maps board cells to a screen viewport with pan and zoom.
// The board is bounded: the center is kept over the board.
type Camera struct {
	// Center of the view in cell units
	X, Y float32

	// Zoom is pixels per cell
	Zoom float32

	// Viewport rectangle on screen
	OriginX, OriginY     float32
	ViewportW, ViewportH float32

	// Board size in cells
	BoardW, BoardH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera that fits the whole board into the viewport.
func New(originX, originY, viewportW, viewportH float32, boardW, boardH int) *Camera {
	c := &Camera{
		OriginX:   originX,
		OriginY:   originY,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MaxZoom:   96,
	}
	c.SetBoard(boardW, boardH)
	return c
}

// FitZoom returns the zoom at which the whole board fills the viewport.
func (c *Camera) FitZoom() float32 {
	if c.BoardW <= 0 || c.BoardH <= 0 {
		return 1
	}
	return min(c.ViewportW/c.BoardW, c.ViewportH/c.BoardH)
}

// SetBoard updates the board size and resets the view to fit it.
func (c *Camera) SetBoard(boardW, boardH int) {
	c.BoardW = float32(boardW)
	c.BoardH = float32(boardH)
	c.MinZoom = c.FitZoom() / 2
	c.Reset()
}

// CellToScreen converts cell coordinates to screen coordinates.
func (c *Camera) CellToScreen(cx, cy float32) (sx, sy float32) {
	sx = c.OriginX + c.ViewportW/2 + (cx-c.X)*c.Zoom
	sy = c.OriginY + c.ViewportH/2 + (cy-c.Y)*c.Zoom
	return sx, sy
}

// ScreenToCell converts screen coordinates to fractional cell coordinates.
func (c *Camera) ScreenToCell(sx, sy float32) (cx, cy float32) {
	cx = c.X + (sx-c.OriginX-c.ViewportW/2)/c.Zoom
	cy = c.Y + (sy-c.OriginY-c.ViewportH/2)/c.Zoom
	return cx, cy
}

// CellAt returns the integer cell under a screen point. ok is false when the
// point is outside the viewport or the board.
func (c *Camera) CellAt(sx, sy float32) (x, y int, ok bool) {
	if sx < c.OriginX || sy < c.OriginY || sx >= c.OriginX+c.ViewportW || sy >= c.OriginY+c.ViewportH {
		return 0, 0, false
	}
	cx, cy := c.ScreenToCell(sx, sy)
	x = int(math.Floor(float64(cx)))
	y = int(math.Floor(float64(cy)))
	return x, y, x >= 0 && y >= 0 && float32(x) < c.BoardW && float32(y) < c.BoardH
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	c.X = clamp(c.X+dx/c.Zoom, 0, c.BoardW)
	c.Y = clamp(c.Y+dy/c.Zoom, 0, c.BoardH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomAt multiplies the zoom by factor, keeping the cell under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	before, beforeY := c.ScreenToCell(sx, sy)
	c.SetZoom(c.Zoom * factor)
	after, afterY := c.ScreenToCell(sx, sy)
	c.X = clamp(c.X+before-after, 0, c.BoardW)
	c.Y = clamp(c.Y+beforeY-afterY, 0, c.BoardH)
}

// Reset centers the board and fits it to the viewport.
func (c *Camera) Reset() {
	c.X = c.BoardW / 2
	c.Y = c.BoardH / 2
	c.Zoom = max(c.FitZoom(), c.MinZoom)
}

// VisibleCells returns the inclusive cell range on screen, clipped to the board.
// The range is empty (max < min) when nothing is visible.
func (c *Camera) VisibleCells() (minX, minY, maxX, maxY int) {
	x0, y0 := c.ScreenToCell(c.OriginX, c.OriginY)
	x1, y1 := c.ScreenToCell(c.OriginX+c.ViewportW, c.OriginY+c.ViewportH)

	minX = max(int(math.Floor(float64(x0))), 0)
	minY = max(int(math.Floor(float64(y0))), 0)
	maxX = min(int(math.Ceil(float64(x1))), int(c.BoardW)) - 1
	maxY = min(int(math.Ceil(float64(y1))), int(c.BoardH)) - 1
	return
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
