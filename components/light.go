package components

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a linear RGB triple. Components are not clamped to [0,1].
type Color struct {
	R, G, B float32
}

// White is the neutral light color.
var White = Color{R: 1, G: 1, B: 1}

// ColorFromHex parses an sRGB hex string such as "#ffd8a0" into linear RGB.
func ColorFromHex(hex string) (Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("parsing color %q: %w", hex, err)
	}
	r, g, b := c.LinearRgb()
	return Color{R: float32(r), G: float32(g), B: float32(b)}, nil
}

// MustColor is like ColorFromHex but panics on malformed input.
func MustColor(hex string) Color {
	c, err := ColorFromHex(hex)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) colorful() colorful.Color {
	return colorful.LinearRgb(float64(c.R), float64(c.G), float64(c.B))
}

// Hex returns the sRGB hex form of the color, clamped to the displayable range.
func (c Color) Hex() string {
	return c.colorful().Clamped().Hex()
}

// BlendColors mixes two colors weighted by their lux in linear space.
// Returns white when there is no light to weigh.
func BlendColors(c1 Color, lux1 float32, c2 Color, lux2 float32) Color {
	total := lux1 + lux2
	if total <= 0 {
		return White
	}
	t := float64(lux2 / total)
	r, g, b := c1.colorful().BlendLinearRgb(c2.colorful(), t).LinearRgb()
	return Color{R: float32(r), G: float32(g), B: float32(b)}
}

// LightType is the spectral band a light source emits in.
type LightType uint8

const (
	LightVisible LightType = iota
	LightRed
	LightInfrared
	LightUltraviolet
)

func (t LightType) String() string {
	switch t {
	case LightVisible:
		return "visible"
	case LightRed:
		return "red"
	case LightInfrared:
		return "infrared"
	case LightUltraviolet:
		return "ultraviolet"
	}
	return "unknown"
}

// Spectral is the per-band breakdown of the light reaching a cell.
type Spectral struct {
	Visible     float32
	Infrared    float32
	Ultraviolet float32
	Red         float32
}

// SpectralOf returns a breakdown with all lux in the band of t.
func SpectralOf(t LightType, lux float32) Spectral {
	switch t {
	case LightRed:
		return Spectral{Red: lux}
	case LightInfrared:
		return Spectral{Infrared: lux}
	case LightUltraviolet:
		return Spectral{Ultraviolet: lux}
	}
	return Spectral{Visible: lux}
}

// Add returns the band-wise sum.
func (s Spectral) Add(o Spectral) Spectral {
	return Spectral{
		Visible:     s.Visible + o.Visible,
		Infrared:    s.Infrared + o.Infrared,
		Ultraviolet: s.Ultraviolet + o.Ultraviolet,
		Red:         s.Red + o.Red,
	}
}

// Total returns the sum over all bands.
func (s Spectral) Total() float32 {
	return s.Visible + s.Infrared + s.Ultraviolet + s.Red
}
