// Field preview tool - interactive view of the light, visibility and prebake
// fields with sliders. Runs a live board from a layout or shows a saved snapshot.
//
// Usage: go run ./cmd/fieldpreview [-map rooms.txt | -snapshot snapshot_600.json]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/pthm-cable/gloam/camera"
	"github.com/pthm-cable/gloam/components"
	"github.com/pthm-cable/gloam/config"
	"github.com/pthm-cable/gloam/game"
	"github.com/pthm-cable/gloam/systems"
	"github.com/pthm-cable/gloam/telemetry"
	"github.com/pthm-cable/gloam/ui"
)

const (
	panelWidth = 330
	margin     = 10
)

// demoLayout is used when no layout file is given.
const demoLayout = `##############
#......#.....#
#..L...D..l..#
#......#.....#
###W####d#####
,,,,,,,,,,,,,,
,,,,,@,,,,,,,,`

// frame is the field data drawn this frame, from a live board or a snapshot.
type frame struct {
	dims     systems.Dims
	lux      []float32
	vis      []float32
	exposure float64
	viewer   components.BoardPosition
}

// preview holds the tool state.
type preview struct {
	cfg    config.Config
	layout *game.Layout
	board  *game.Board // nil in snapshot mode
	snap   *telemetry.Snapshot
	source string

	cam      *camera.Camera
	texture  rl.Texture2D
	texDims  systems.Dims
	pixels   []color.RGBA
	frame    frame
	floor    int
	luxScale float32
	torch    float32
	paused   bool

	overlays  *ui.OverlayRegistry
	controls  *ui.ControlsPanel
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	inspector *ui.Inspector
	registry  *systems.SystemRegistry
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	mapPath := flag.String("map", "", "ASCII layout file (empty = built-in demo)")
	snapshotPath := flag.String("snapshot", "", "Show a saved snapshot instead of a live board")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	p := &preview{
		cfg:      *config.Cfg(),
		luxScale: 100,
		overlays: ui.NewOverlayRegistry(),
		hud:      ui.NewHUD(),
		registry: systems.NewSystemRegistry(),
	}
	p.overlays.SetEnabled(ui.OverlayLux, true)

	if err := p.load(*mapPath, *snapshotPath); err != nil {
		slog.Error("failed to load", "error", err)
		os.Exit(1)
	}
	defer p.close()

	pc := p.cfg.Preview
	rl.InitWindow(int32(pc.Width), int32(pc.Height), "Light Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(pc.TargetFPS))

	panelX := int32(pc.Width - panelWidth)
	p.controls = ui.NewControlsPanel(margin, margin, 200)
	p.perfPanel = ui.NewPerfPanel(panelX+margin, int32(pc.Height)-130)
	p.inspector = ui.NewInspector(panelX-230, margin, 220)

	p.capture()
	p.fitCamera()

	for !rl.WindowShouldClose() {
		p.handleInput()

		if p.board != nil && !p.paused {
			p.board.Step()
		}
		p.capture()
		p.fitCamera()
		p.updateTexture()

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 12, G: 12, B: 16, A: 255})
		p.draw()
		rl.EndDrawing()

		if p.board != nil {
			p.board.Perf().RecordFrame()
		}
	}
}

// load creates the board or reads the snapshot.
func (p *preview) load(mapPath, snapshotPath string) error {
	if snapshotPath != "" {
		snap, err := telemetry.LoadSnapshot(snapshotPath)
		if err != nil {
			return err
		}
		p.snap = snap
		p.source = snapshotPath
		return nil
	}

	lampColor, err := components.ColorFromHex(p.cfg.Board.LampColor)
	if err != nil {
		return fmt.Errorf("lamp color: %w", err)
	}
	lamp := game.LampSpec{Lumens: float32(p.cfg.Board.LampLumens), Color: lampColor}

	if mapPath != "" {
		p.layout, err = game.LoadLayout(mapPath, lamp)
		p.source = mapPath
	} else {
		p.layout, err = game.ParseLayout(strings.NewReader(demoLayout), lamp)
		p.source = "built-in demo"
	}
	if err != nil {
		return err
	}
	return p.rebuildBoard()
}

// rebuildBoard creates a fresh board from the layout, keeping the viewer.
func (p *preview) rebuildBoard() error {
	viewer := p.layout.Viewer
	if p.board != nil {
		viewer = p.board.Viewer()
		p.board.Close()
	}
	cfg := p.cfg
	board, err := game.NewBoard(&cfg, p.layout, game.Options{})
	if err != nil {
		return err
	}
	board.MoveViewer(viewer)
	p.board = board
	return nil
}

func (p *preview) close() {
	if p.board != nil {
		p.board.Close()
	}
}

// capture copies the fields to draw into the frame.
func (p *preview) capture() {
	f := &p.frame
	if p.snap != nil {
		f.dims = systems.Dims{X: p.snap.Width, Y: p.snap.Height, Z: p.snap.Floors}
		f.lux = p.snap.Lux
		f.vis = p.snap.Visibility
		f.exposure = p.snap.Exposure
		f.viewer = components.BoardPosition{X: p.snap.ViewerX, Y: p.snap.ViewerY, Z: p.snap.ViewerZ}
		return
	}

	field := p.board.Light()
	vis := p.board.Visibility()
	f.dims = field.Dims
	f.lux = f.lux[:0]
	f.vis = f.vis[:0]
	for i := range field.Cells {
		f.lux = append(f.lux, field.Cells[i].Lux)
		f.vis = append(f.vis, vis.At(field.Dims.Pos(i)))
	}
	f.exposure = p.board.Exposure()
	f.viewer = p.board.Viewer().ToBoard()
}

// fitCamera creates or refits the camera when the board size changes.
func (p *preview) fitCamera() {
	d := p.frame.dims
	if p.cam == nil {
		pc := p.cfg.Preview
		p.cam = camera.New(margin, margin,
			float32(pc.Width-panelWidth-2*margin), float32(pc.Height-2*margin), d.X, d.Y)
		p.cam.MaxZoom = float32(pc.CellSize) * 4
		return
	}
	if int(p.cam.BoardW) != d.X || int(p.cam.BoardH) != d.Y {
		p.cam.SetBoard(d.X, d.Y)
	}
}

// cellUnderMouse returns the board cell under the cursor on the shown floor.
func (p *preview) cellUnderMouse() (components.BoardPosition, bool) {
	m := rl.GetMousePosition()
	x, y, ok := p.cam.CellAt(m.X, m.Y)
	return components.BoardPosition{X: x, Y: y, Z: p.floor}, ok
}

func (p *preview) handleInput() {
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		m := rl.GetMousePosition()
		p.cam.ZoomAt(m.X, m.Y, float32(math.Pow(1.15, float64(wheel))))
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		delta := rl.GetMouseDelta()
		p.cam.Pan(-delta.X, -delta.Y)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		p.cam.Reset()
	}
	if id, on, ok := p.overlays.HandleKeyPress(rl.GetKeyPressed()); ok {
		slog.Debug("overlay toggled", "overlay", id, "enabled", on)
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		p.controls.Toggle()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		p.paused = !p.paused
	}
	if p.board == nil {
		return
	}

	if p.paused && rl.IsKeyPressed(rl.KeyN) {
		p.board.Step()
	}
	if rl.IsKeyPressed(rl.KeyB) {
		p.board.Bake()
		p.board.RequestRebuild(systems.RebuildRequest{Lighting: true})
	}
	if rl.IsKeyPressed(rl.KeyM) {
		p.toggleMode()
	}
	if rl.IsKeyPressed(rl.KeyK) {
		p.saveSnapshot()
	}

	// Viewer movement, one cell per key press
	viewer := p.board.Viewer()
	moved := false
	for _, k := range []struct {
		keys   [2]int32
		dx, dy float32
	}{
		{[2]int32{rl.KeyLeft, rl.KeyA}, -1, 0},
		{[2]int32{rl.KeyRight, rl.KeyD}, 1, 0},
		{[2]int32{rl.KeyUp, rl.KeyW}, 0, -1},
		{[2]int32{rl.KeyDown, rl.KeyS}, 0, 1},
	} {
		if rl.IsKeyPressed(k.keys[0]) || rl.IsKeyPressed(k.keys[1]) {
			viewer.X += k.dx
			viewer.Y += k.dy
			moved = true
		}
	}
	if moved {
		p.board.MoveViewer(viewer)
	}

	if p.torch > 0 {
		p.board.SetHandheld([]components.HandheldLight{
			components.NewHandheld(components.GearFlashlight, p.board.Viewer(), p.torch, components.White),
		})
	} else {
		p.board.SetHandheld(nil)
	}

	// Click toggles the door or lamp under the cursor
	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		pos, ok := p.cellUnderMouse()
		if !ok {
			return
		}
		if open, err := p.board.ToggleDoor(pos); err == nil {
			slog.Info("door toggled", "pos", pos, "open", open)
			return
		}
		if on, isLamp := p.board.Lamps()[pos]; isLamp {
			if err := p.board.SetLamp(pos, !on); err != nil {
				slog.Warn("lamp toggle failed", "pos", pos, "error", err)
			}
		}
	}
}

func (p *preview) toggleMode() {
	if p.cfg.Lighting.Mode == config.ModePrebaked {
		p.cfg.Lighting.Mode = config.ModeFull
	} else {
		p.cfg.Lighting.Mode = config.ModePrebaked
	}
	if err := p.rebuildBoard(); err != nil {
		slog.Error("failed to switch mode", "error", err)
	}
}

func (p *preview) saveSnapshot() {
	path, err := p.board.SaveSnapshot("snapshots")
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path)
}

// heat returns the [0,1] heatmap value of flat cell i for the active field overlay.
func (p *preview) heat(i int) float32 {
	f := &p.frame
	lux := float64(f.lux[i])
	switch {
	case p.overlays.IsEnabled(ui.OverlayVisibility):
		return f.vis[i]
	case p.overlays.IsEnabled(ui.OverlayPerceived):
		seen := lux * f.exposure
		return float32(seen/(1+seen)) * f.vis[i]
	}
	return clamp01(float32(math.Log1p(lux) / math.Log1p(float64(p.luxScale))))
}

// updateTexture refreshes the heatmap texture for the shown floor.
func (p *preview) updateTexture() {
	d := p.frame.dims
	if d.X == 0 || d.Y == 0 {
		return
	}
	p.floor = min(p.floor, d.Z-1)

	if d != p.texDims {
		if p.texDims.X > 0 {
			rl.UnloadTexture(p.texture)
		}
		img := rl.GenImageColor(d.X, d.Y, rl.Black)
		p.texture = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		p.texDims = d
		p.pixels = make([]color.RGBA, d.X*d.Y)
	}

	for y := 0; y < d.Y; y++ {
		for x := 0; x < d.X; x++ {
			i := d.Index(components.BoardPosition{X: x, Y: y, Z: p.floor})
			p.pixels[y*d.X+x] = gradient(p.heat(i))
		}
	}
	rl.UpdateTexture(p.texture, p.pixels)
}

func (p *preview) draw() {
	d := p.frame.dims
	cs := p.cam.Zoom
	x0, y0 := p.cam.CellToScreen(0, 0)
	w, h := float32(d.X)*cs, float32(d.Y)*cs

	pc := p.cfg.Preview
	rl.BeginScissorMode(margin, margin, int32(pc.Width-panelWidth-2*margin), int32(pc.Height-2*margin))
	rl.DrawTexturePro(
		p.texture,
		rl.Rectangle{X: 0, Y: 0, Width: float32(d.X), Height: float32(d.Y)},
		rl.Rectangle{X: x0, Y: y0, Width: w, Height: h},
		rl.Vector2{X: 0, Y: 0},
		0,
		rl.White,
	)
	rl.DrawRectangleLines(int32(x0), int32(y0), int32(w), int32(h), rl.DarkGray)

	if p.board != nil {
		p.drawCellOverlays(cs)
	}

	// Viewer
	if p.frame.viewer.Z == p.floor {
		vx, vy := p.cam.CellToScreen(float32(p.frame.viewer.X)+0.5, float32(p.frame.viewer.Y)+0.5)
		rl.DrawCircle(int32(vx), int32(vy), cs/3, rl.Color{R: 120, G: 220, B: 255, A: 255})
	}
	rl.EndScissorMode()

	p.drawPanel()
	p.controls.Draw(p.overlays)

	if p.board != nil {
		if pos, ok := p.cellUnderMouse(); ok {
			p.inspector.Draw(p.cellInfo(pos))
		}
	}

	p.hud.DrawControls(int32(p.cfg.Preview.Height),
		"Arrows/WASD move | Click door/lamp | Wheel zoom | Right-drag pan | Home fit | Space pause | N step | B bake | M mode | K snapshot | Tab overlays")
}

// drawCellOverlays draws the debug and prebake overlays over the heatmap.
func (p *preview) drawCellOverlays(zoom float32) {
	collision := p.board.Collision()
	rooms := p.board.Rooms()
	baked := p.board.Baked()
	cs := int32(math.Ceil(float64(zoom)))
	minX, minY, maxX, maxY := p.cam.VisibleCells()

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			pos := components.BoardPosition{X: x, Y: y, Z: p.floor}
			sx, sy := p.cam.CellToScreen(float32(x), float32(y))
			px, py := int32(sx), int32(sy)

			if p.overlays.IsEnabled(ui.OverlayCollision) {
				if c, ok := collision.Get(pos); ok {
					switch {
					case c.Dynamic && !c.PlayerFree:
						rl.DrawRectangleLines(px, py, cs, cs, rl.Orange)
					case !c.PlayerFree && !c.SeeThrough:
						rl.DrawRectangle(px, py, cs, cs, rl.Color{R: 60, G: 60, B: 70, A: 180})
					case !c.PlayerFree:
						rl.DrawRectangleLines(px, py, cs, cs, rl.SkyBlue)
					}
				}
			}
			if p.overlays.IsEnabled(ui.OverlayRooms) && rooms.IsRoom(pos) {
				rl.DrawRectangle(px+cs/2-1, py+cs/2-1, 3, 3, rl.Color{R: 150, G: 150, B: 255, A: 200})
			}
			if baked == nil {
				continue
			}
			cell, ok := baked.Get(pos)
			if !ok {
				continue
			}
			if p.overlays.IsEnabled(ui.OverlayOwnership) && cell.Source != 0 {
				rl.DrawRectangle(px, py, cs, cs, sourceColor(cell.Source))
			}
			if p.overlays.IsEnabled(ui.OverlayWaveEdges) && cell.Edge != nil {
				rl.DrawRectangleLines(px+1, py+1, cs-2, cs-2, rl.Yellow)
			}
		}
	}
}

// cellInfo gathers the inspector data for pos.
func (p *preview) cellInfo(pos components.BoardPosition) ui.CellInfo {
	info := ui.CellInfo{
		Pos:        pos,
		Visibility: p.board.Visibility().At(pos),
		Room:       p.board.Rooms().IsRoom(pos),
		Exposure:   p.board.Exposure(),
	}
	info.Light, _ = p.board.Light().Get(pos)
	info.Collision, _ = p.board.Collision().Get(pos)
	if baked := p.board.Baked(); baked != nil && p.cfg.Lighting.Mode == config.ModePrebaked {
		if cell, ok := baked.Get(pos); ok {
			info.Baked = &cell
		}
	}
	return info
}

// drawPanel draws the HUD, sliders and buttons on the right.
func (p *preview) drawPanel() {
	panelX := float32(p.cfg.Preview.Width - panelWidth + margin)
	sliderW := float32(panelWidth - 90)

	data := ui.HUDData{
		Title:    "Light Field Preview",
		Source:   p.source,
		FPS:      rl.GetFPS(),
		Paused:   p.paused,
		Exposure: p.frame.exposure,
	}
	if p.snap != nil {
		data.Mode = p.snap.Mode
		data.Tick = p.snap.Tick
	} else {
		stats := p.board.LightingStats()
		data.Mode = p.cfg.Lighting.Mode
		data.Tick = p.board.Tick()
		data.Target = p.board.ExposureTarget()
		data.MeanLux = stats.MeanLux
		data.Sources = stats.Sources
		data.Visible = len(p.board.Visibility())
	}
	y := float32(p.hud.Draw(int32(panelX), margin, data))

	// Heatmap scale
	rl.DrawText("Lux scale (heatmap white point)", int32(panelX), int32(y), 14, rl.Gray)
	y += 18
	p.luxScale = gui.SliderBar(
		rl.Rectangle{X: panelX, Y: y, Width: sliderW, Height: 20},
		"1", "10k",
		p.luxScale, 1, 10000,
	)
	rl.DrawText(fmt.Sprintf("%.0f", p.luxScale), int32(panelX+sliderW+30), int32(y+2), 14, rl.LightGray)
	y += 35

	// Floor
	if p.frame.dims.Z > 1 {
		rl.DrawText("Floor", int32(panelX), int32(y), 14, rl.Gray)
		y += 18
		floor := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: y, Width: sliderW, Height: 20},
			"0", fmt.Sprintf("%d", p.frame.dims.Z-1),
			float32(p.floor), 0, float32(p.frame.dims.Z-1),
		)
		p.floor = int(floor + 0.5)
		y += 35
	}

	if p.board == nil {
		return
	}

	// Handheld torch
	rl.DrawText("Viewer torch power", int32(panelX), int32(y), 14, rl.Gray)
	y += 18
	p.torch = gui.SliderBar(
		rl.Rectangle{X: panelX, Y: y, Width: sliderW, Height: 20},
		"0", "500",
		p.torch, 0, 500,
	)
	rl.DrawText(fmt.Sprintf("%.0f", p.torch), int32(panelX+sliderW+30), int32(y+2), 14, rl.LightGray)
	y += 45

	// Buttons
	if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 140, Height: 30}, toggleText(p.paused, "Resume", "Pause")) {
		p.paused = !p.paused
	}
	if gui.Button(rl.Rectangle{X: panelX + 150, Y: y, Width: 140, Height: 30}, "Bake") {
		p.board.Bake()
		p.board.RequestRebuild(systems.RebuildRequest{Lighting: true})
	}
	y += 40

	modeLabel := "Use Prebaked"
	if p.cfg.Lighting.Mode == config.ModePrebaked {
		modeLabel = "Use Full"
	}
	if gui.Button(rl.Rectangle{X: panelX, Y: y, Width: 140, Height: 30}, modeLabel) {
		p.toggleMode()
	}
	if gui.Button(rl.Rectangle{X: panelX + 150, Y: y, Width: 140, Height: 30}, "Save Snapshot") {
		p.saveSnapshot()
	}

	perf := p.board.Perf().Stats()
	p.perfPanel.Draw(ui.PerfPanelData{
		PhaseTimes: perf.PhaseAvg,
		Total:      perf.AvgTickDuration,
		Registry:   p.registry,
	})
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// sourceColor gives each baked source a stable translucent hue.
func sourceColor(id int) rl.Color {
	c := colorful.Hsv(math.Mod(float64(id)*137.508, 360), 0.65, 0.95)
	r, g, b := c.RGB255()
	return rl.Color{R: r, G: g, B: b, A: 110}
}

// gradient maps [0,1] to dark blue -> amber -> white.
func gradient(v float32) color.RGBA {
	v = clamp01(v)
	var r, g, b float32
	switch {
	case v < 0.25:
		// Black to deep blue
		t := v / 0.25
		r, g, b = 5+t*20, 5+t*20, 10+t*70
	case v < 0.5:
		// Deep blue to dim amber
		t := (v - 0.25) / 0.25
		r, g, b = 25+t*115, 25+t*70, 80-t*40
	case v < 0.75:
		// Dim amber to warm light
		t := (v - 0.5) / 0.25
		r, g, b = 140+t*100, 95+t*100, 40+t*60
	default:
		// Warm light to white
		t := (v - 0.75) / 0.25
		r, g, b = 240+t*15, 195+t*60, 100+t*155
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}
