package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/systems"
)

// CellInfo is everything the inspector shows about one cell.
type CellInfo struct {
	Pos        components.BoardPosition
	Light      systems.LightCell
	Collision  systems.CollisionCell
	Visibility float32
	Room       bool
	Baked      *systems.PrebakedCell // nil outside prebaked mode
	Exposure   float64
}

// CellSections describes the inspector layout.
var CellSections = []SectionDescriptor{
	{
		ID:    "light",
		Title: "Light",
		Fields: []FieldDescriptor{
			{ID: "lux", Label: "Lux", Widget: WidgetText, Format: "%.4f", Getter: func(d any) float32 { return d.(CellInfo).Light.Lux }},
			{ID: "perceived", Label: "Perceived", Widget: WidgetBar, Getter: func(d any) float32 {
				c := d.(CellInfo)
				return c.Light.Lux * float32(c.Exposure) * c.Visibility / (1 + c.Light.Lux*float32(c.Exposure))
			}},
			{ID: "color", Label: "Color", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color { return ToRaylib(d.(CellInfo).Light.Color) }},
			{ID: "transmissivity", Label: "Transmit", Widget: WidgetCenteredBar, Range: FieldRange{Min: -1, Max: 1}, Getter: func(d any) float32 {
				return d.(CellInfo).Light.Transmissivity - 1
			}},
			{ID: "spectral", Label: "Non-visible", Widget: WidgetText, TextGetter: func(d any) string {
				s := d.(CellInfo).Light.Spectral
				return fmt.Sprintf("r %.2f ir %.2f uv %.2f", s.Red, s.Infrared, s.Ultraviolet)
			}},
		},
	},
	{
		ID:    "viewer",
		Title: "Viewer",
		Fields: []FieldDescriptor{
			{ID: "visibility", Label: "Visibility", Widget: WidgetBar, Getter: func(d any) float32 { return d.(CellInfo).Visibility }},
			{ID: "room", Label: "Room", Widget: WidgetText, TextGetter: func(d any) string { return yesNo(d.(CellInfo).Room) }},
		},
	},
	{
		ID:    "collision",
		Title: "Collision",
		Fields: []FieldDescriptor{
			{ID: "player", Label: "Walkable", Widget: WidgetText, TextGetter: func(d any) string { return yesNo(d.(CellInfo).Collision.PlayerFree) }},
			{ID: "ghost", Label: "Ghost free", Widget: WidgetText, TextGetter: func(d any) string { return yesNo(d.(CellInfo).Collision.GhostFree) }},
			{ID: "see", Label: "See-through", Widget: WidgetText, TextGetter: func(d any) string { return yesNo(d.(CellInfo).Collision.SeeThrough) }},
			{ID: "dynamic", Label: "Dynamic", Widget: WidgetText, TextGetter: func(d any) string { return yesNo(d.(CellInfo).Collision.Dynamic) }},
		},
	},
	{
		ID:      "prebake",
		Title:   "Prebake",
		Visible: func(d any) bool { return d.(CellInfo).Baked != nil },
		Fields: []FieldDescriptor{
			{ID: "owner", Label: "Source", Widget: WidgetText, TextGetter: func(d any) string {
				if src := d.(CellInfo).Baked.Source; src != 0 {
					return fmt.Sprintf("#%d", src)
				}
				return "-"
			}},
			{ID: "baked_lux", Label: "Baked lux", Widget: WidgetText, Format: "%.4f", Getter: func(d any) float32 { return d.(CellInfo).Baked.Lux }},
			{ID: "edge", Label: "Wave edge", Widget: WidgetText, TextGetter: func(d any) string {
				e := d.(CellInfo).Baked.Edge
				if e == nil {
					return "-"
				}
				return fmt.Sprintf("%.1f at d=%.1f", e.ResidualLux, e.DistanceTravelled)
			}},
		},
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ToRaylib converts a linear light color to an 8-bit display color.
func ToRaylib(c components.Color) rl.Color {
	return rl.Color{
		R: uint8(min(max(c.R, 0), 1) * 255),
		G: uint8(min(max(c.G, 0), 1) * 255),
		B: uint8(min(max(c.B, 0), 1) * 255),
		A: 255,
	}
}

// Inspector renders the cell inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// Draw renders the inspector panel for the given cell.
func (ins *Inspector) Draw(cell CellInfo) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	// Measure first so the panel fits its sections
	height := padding*2 + r.Theme.LineHeight + 4
	for _, sd := range CellSections {
		if sd.Visible != nil && !sd.Visible(cell) {
			continue
		}
		height += r.Theme.LineHeight*int32(len(sd.Fields)+1) + 2*int32(len(sd.Fields)) + 4
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	rl.DrawText(fmt.Sprintf("Cell (%d, %d, %d)", cell.Pos.X, cell.Pos.Y, cell.Pos.Z), ins.x+padding, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	for _, sd := range CellSections {
		y = r.DrawSection(ins.x+padding, y, sd, cell, contentWidth)
	}
	return y
}
