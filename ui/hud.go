package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/gloam/systems"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title    string
	Source   string // layout or snapshot path
	Mode     string
	Tick     int32
	FPS      int32
	Paused   bool
	Exposure float64
	Target   float64
	MeanLux  float64
	Sources  int
	Visible  int // cells with nonzero visibility
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD at (x, y).
func (h *HUD) Draw(x, y int32, data HUDData) int32 {
	rl.DrawText(data.Title, x, y, 20, rl.White)
	y += 25

	rl.DrawText(data.Source, x, y, 12, rl.Gray)
	y += 18

	rl.DrawText(
		fmt.Sprintf("Tick: %d | Mode: %s | FPS: %d", data.Tick, data.Mode, data.FPS),
		x, y, 14, rl.LightGray,
	)
	y += 18

	rl.DrawText(
		fmt.Sprintf("Exposure: %.3f -> %.3f | Mean lux: %.2f", data.Exposure, data.Target, data.MeanLux),
		x, y, 14, rl.LightGray,
	)
	y += 18

	rl.DrawText(
		fmt.Sprintf("Sources: %d | Visible cells: %d", data.Sources, data.Visible),
		x, y, 14, rl.LightGray,
	)
	y += 18

	if data.Paused {
		rl.DrawText("PAUSED", x, y, 16, rl.Yellow)
	}
	return y + 20
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	PhaseTimes map[string]time.Duration
	Total      time.Duration
	Registry   *systems.SystemRegistry
}

// PerfPanel renders the tick phase performance panel.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// Draw renders the performance panel in registry order.
func (p *PerfPanel) Draw(data PerfPanelData) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Total: %s", data.Total.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, info := range data.Registry.All() {
		avg := data.PhaseTimes[info.ID]
		pct := float64(0)
		if data.Total > 0 {
			pct = float64(avg) / float64(data.Total) * 100
		}

		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", info.Name, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
