package game

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/systems"
)

// Layout glyphs.
const (
	glyphEmpty        = ' '
	glyphWall         = '#'
	glyphRoomFloor    = '.'
	glyphOutdoorFloor = ','
	glyphLampOn       = 'L'
	glyphLampOff      = 'l'
	glyphDoorClosed   = 'D'
	glyphDoorOpen     = 'd'
	glyphWindow       = 'W'
	glyphViewer       = '@'

	floorSeparator = "==="
)

// PlacedTile is a tile to spawn on the board.
type PlacedTile struct {
	Pos      components.BoardPosition
	Behavior components.Behavior
	Room     bool
}

// Layout is a parsed board description.
type Layout struct {
	Dims   systems.Dims
	Tiles  []PlacedTile
	Viewer components.Position
}

// LampSpec is the emission of lamps placed by a layout.
type LampSpec struct {
	Lumens float32
	Color  components.Color
}

// LoadLayout reads an ASCII layout file.
func LoadLayout(path string, lamp LampSpec) (*Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening layout: %w", err)
	}
	defer f.Close()

	layout, err := ParseLayout(f, lamp)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return layout, nil
}

// ParseLayout parses an ASCII layout. Columns are x, rows are y, and floors
// are separated by a line of "===". The viewer starts at '@' or the board center.
func ParseLayout(r io.Reader, lamp LampSpec) (*Layout, error) {
	floors := [][]string{nil}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == floorSeparator {
			floors = append(floors, nil)
			continue
		}
		z := len(floors) - 1
		floors[z] = append(floors[z], line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading layout: %w", err)
	}

	layout := &Layout{Dims: systems.Dims{Z: len(floors)}}
	for _, rows := range floors {
		layout.Dims.Y = max(layout.Dims.Y, len(rows))
		for _, row := range rows {
			layout.Dims.X = max(layout.Dims.X, len(row))
		}
	}
	if layout.Dims.Len() == 0 {
		return nil, fmt.Errorf("layout is empty")
	}

	viewerSet := false
	for z, rows := range floors {
		for y, row := range rows {
			for x, glyph := range []byte(row) {
				p := components.BoardPosition{X: x, Y: y, Z: z}
				tiles, err := glyphTiles(glyph, p, lamp)
				if err != nil {
					return nil, fmt.Errorf("floor %d line %d column %d: %w", z, y+1, x+1, err)
				}
				layout.Tiles = append(layout.Tiles, tiles...)
				if glyph == glyphViewer {
					if viewerSet {
						return nil, fmt.Errorf("floor %d line %d column %d: second viewer", z, y+1, x+1)
					}
					layout.Viewer = p.ToPosition()
					viewerSet = true
				}
			}
		}
	}
	if !viewerSet {
		layout.Viewer = components.Position{X: float32(layout.Dims.X / 2), Y: float32(layout.Dims.Y / 2)}
	}
	return layout, nil
}

func glyphTiles(glyph byte, p components.BoardPosition, lamp LampSpec) ([]PlacedTile, error) {
	room := func(b components.Behavior) PlacedTile {
		return PlacedTile{Pos: p, Behavior: b, Room: true}
	}
	switch glyph {
	case glyphEmpty:
		return nil, nil
	case glyphWall:
		return []PlacedTile{{Pos: p, Behavior: components.Wall()}}, nil
	case glyphRoomFloor, glyphViewer:
		return []PlacedTile{room(components.Floor())}, nil
	case glyphOutdoorFloor:
		return []PlacedTile{{Pos: p, Behavior: components.Floor()}}, nil
	case glyphLampOn, glyphLampOff:
		return []PlacedTile{
			room(components.Floor()),
			room(components.Lamp(lamp.Lumens, lamp.Color, glyph == glyphLampOn)),
		}, nil
	case glyphDoorClosed, glyphDoorOpen:
		return []PlacedTile{{Pos: p, Behavior: components.Door(glyph == glyphDoorOpen)}}, nil
	case glyphWindow:
		return []PlacedTile{{Pos: p, Behavior: components.Window()}}, nil
	}
	return nil, fmt.Errorf("unknown glyph %q", glyph)
}
