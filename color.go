package tetragl

import (
	"math"

	"github.com/solarlune/tetragl/gpu"
)

// A Color represents a color, containing R, G, B, and A components, each expected to range from 0 to 1.
type Color struct {
	R, G, B, A float32
}

// NewColor returns a new Color, with the provided R, G, B, and A components expected to range from 0 to 1.
func NewColor(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// Commonly used colors.
var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorRed   = Color{1, 0, 0, 1}
	ColorGreen = Color{0, 1, 0, 1}
	ColorBlue  = Color{0, 0, 1, 1}
)

func (color *Color) SetRGBA(r, g, b, a float32) {
	color.R = r
	color.G = g
	color.B = b
	color.A = a
}

func (color *Color) AddRGB(value float32) {
	color.R += value
	color.G += value
	color.B += value
}

// RGB returns the color's red, green, and blue components.
func (color Color) RGB() [3]float32 {
	return [3]float32{color.R, color.G, color.B}
}

// RGBA returns all four components of the color.
func (color Color) RGBA() [4]float32 {
	return [4]float32{color.R, color.G, color.B, color.A}
}

// ToUniform converts the color for a shader uniform; vec3 uniforms receive the color's RGB
// components, anything else receives all four.
func (color Color) ToUniform(ctx gpu.Context, hint gpu.UniformType) (UniformValue, bool) {
	if hint == gpu.FloatVec3 {
		return Vec3Value(color.RGB()), true
	}
	return Vec4Value(color.RGBA()), true
}

// ConvertTosRGB converts the color from linear to sRGB space.
func (color *Color) ConvertTosRGB() {
	color.R = linearTosRGB(color.R)
	color.G = linearTosRGB(color.G)
	color.B = linearTosRGB(color.B)
}

func linearTosRGB(value float32) float32 {
	if value <= 0.0031308 {
		return value * 12.92
	}
	return float32(1.055*math.Pow(float64(value), 1/2.4) - 0.055)
}
