package tetragl

import "github.com/go-gl/mathgl/mgl32"

// LightType selects the lighting equation a shader applies for a light slot. The values are
// written as-is into the uLight[i].type uniform.
type LightType int32

const (
	LightNone               LightType = -1 // Unused light slot
	LightAmbient            LightType = 0
	LightDirectional        LightType = 1
	LightPoint              LightType = 2
	LightHemisphere         LightType = 3
	LightSphericalHarmonics LightType = 4
)

func (lightType LightType) String() string {
	switch lightType {
	case LightNone:
		return "none"
	case LightAmbient:
		return "ambient"
	case LightDirectional:
		return "directional"
	case LightPoint:
		return "point"
	case LightHemisphere:
		return "hemisphere"
	case LightSphericalHarmonics:
		return "sphericalHarmonics"
	}
	return "unknown"
}

// ParseLightType returns the LightType for a name as produced by LightType.String.
// Unrecognized names give LightNone and false.
func ParseLightType(name string) (LightType, bool) {
	for _, lightType := range []LightType{LightAmbient, LightDirectional, LightPoint, LightHemisphere, LightSphericalHarmonics, LightNone} {
		if lightType.String() == name {
			return lightType, true
		}
	}
	return LightNone, false
}

// MaxLights is the number of light slots the builtin shaders declare.
const MaxLights = 4

// Light is the payload that turns a Node into a light source. Its world position comes from the
// node it's attached to.
type Light struct {
	Type      LightType
	Direction mgl32.Vec3 // Used by directional lights
	Color     Color
	Intensity float32
}

// NewLight returns a new Light of the given type, black and with an intensity of 1.
func NewLight(lightType LightType) *Light {
	return &Light{
		Type:      lightType,
		Color:     ColorBlack,
		Intensity: 1,
	}
}

// NewAmbientLight returns a Node carrying an ambient light of the given color.
func NewAmbientLight(name string, color Color) *Node {
	node := NewNode(name)
	node.Light = NewLight(LightAmbient)
	node.Light.Color = color
	return node
}

// NewDirectionalLight returns a Node carrying a directional light shining along direction.
func NewDirectionalLight(name string, color Color, direction mgl32.Vec3) *Node {
	node := NewNode(name)
	node.Light = NewLight(LightDirectional)
	node.Light.Color = color
	node.Light.Direction = direction
	return node
}

// NewPointLight returns a Node carrying a point light; move the node to position it.
func NewPointLight(name string, color Color, intensity float32) *Node {
	node := NewNode(name)
	node.Light = NewLight(LightPoint)
	node.Light.Color = color
	node.Light.Intensity = intensity
	return node
}
