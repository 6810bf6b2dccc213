package tetragl

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solarlune/tetragl/gpu"
)

// UniformKind identifies what a UniformValue holds.
type UniformKind int

const (
	UniformInvalid UniformKind = iota
	UniformFloat
	UniformInt
	UniformBool
	UniformVec2
	UniformVec3
	UniformVec4
	UniformIVec2
	UniformIVec3
	UniformIVec4
	UniformMat2
	UniformMat3
	UniformMat4
	UniformTexture
	UniformCubeTexture
	UniformSourced // Resolved at bind time through a UniformSource
)

func (kind UniformKind) String() string {
	switch kind {
	case UniformFloat:
		return "float"
	case UniformInt:
		return "int"
	case UniformBool:
		return "bool"
	case UniformVec2:
		return "vec2"
	case UniformVec3:
		return "vec3"
	case UniformVec4:
		return "vec4"
	case UniformIVec2:
		return "ivec2"
	case UniformIVec3:
		return "ivec3"
	case UniformIVec4:
		return "ivec4"
	case UniformMat2:
		return "mat2"
	case UniformMat3:
		return "mat3"
	case UniformMat4:
		return "mat4"
	case UniformTexture:
		return "texture"
	case UniformCubeTexture:
		return "cubeTexture"
	case UniformSourced:
		return "source"
	}
	return "invalid"
}

// UniformSource is anything that can produce a uniform value when it's about to be bound, like
// a Color (whose value depends on the declared uniform type) or a Texture (which uploads itself
// on first use). hint is the type the program declares for the uniform. A false return means
// the source has nothing to bind yet, and the uniform is left alone.
type UniformSource interface {
	ToUniform(ctx gpu.Context, hint gpu.UniformType) (UniformValue, bool)
}

// UniformValue is a value that can be bound to a shader uniform. Create one with the ...Value
// constructors; the zero value is invalid and is never bound.
type UniformValue struct {
	kind    UniformKind
	floats  []float32
	ints    []int32
	texture gpu.Texture
	source  UniformSource
}

func FloatValue(v float32) UniformValue {
	return UniformValue{kind: UniformFloat, floats: []float32{v}}
}

func IntValue(v int32) UniformValue {
	return UniformValue{kind: UniformInt, ints: []int32{v}}
}

func BoolValue(v bool) UniformValue {
	i := int32(0)
	if v {
		i = 1
	}
	return UniformValue{kind: UniformBool, ints: []int32{i}}
}

func Vec2Value(v mgl32.Vec2) UniformValue {
	return UniformValue{kind: UniformVec2, floats: v[:]}
}

func Vec3Value(v mgl32.Vec3) UniformValue {
	return UniformValue{kind: UniformVec3, floats: v[:]}
}

func Vec4Value(v mgl32.Vec4) UniformValue {
	return UniformValue{kind: UniformVec4, floats: v[:]}
}

func IVec2Value(x, y int32) UniformValue {
	return UniformValue{kind: UniformIVec2, ints: []int32{x, y}}
}

func IVec3Value(x, y, z int32) UniformValue {
	return UniformValue{kind: UniformIVec3, ints: []int32{x, y, z}}
}

func IVec4Value(x, y, z, w int32) UniformValue {
	return UniformValue{kind: UniformIVec4, ints: []int32{x, y, z, w}}
}

func Mat2Value(m mgl32.Mat2) UniformValue {
	return UniformValue{kind: UniformMat2, floats: m[:]}
}

func Mat3Value(m mgl32.Mat3) UniformValue {
	return UniformValue{kind: UniformMat3, floats: m[:]}
}

func Mat4Value(m mgl32.Mat4) UniformValue {
	return UniformValue{kind: UniformMat4, floats: m[:]}
}

// TextureValue binds a 2D texture handle to a sampler2D uniform.
func TextureValue(texture gpu.Texture) UniformValue {
	return UniformValue{kind: UniformTexture, texture: texture}
}

// CubeTextureValue binds a cube map handle to a samplerCube uniform.
func CubeTextureValue(texture gpu.Texture) UniformValue {
	return UniformValue{kind: UniformCubeTexture, texture: texture}
}

// SourceValue defers the value to source, which is asked for it every time the uniform is bound.
func SourceValue(source UniformSource) UniformValue {
	if source == nil {
		return UniformValue{}
	}
	return UniformValue{kind: UniformSourced, source: source}
}

// Kind returns what the value holds.
func (value UniformValue) Kind() UniformKind {
	return value.kind
}

// Floats returns the float components of float, vector and matrix values.
func (value UniformValue) Floats() []float32 {
	return value.floats
}

// Ints returns the integer components of int, bool and integer vector values.
func (value UniformValue) Ints() []int32 {
	return value.ints
}

// Texture returns the handle of texture and cube texture values.
func (value UniformValue) Texture() gpu.Texture {
	return value.texture
}

// Source returns the UniformSource of a sourced value.
func (value UniformValue) Source() UniformSource {
	return value.source
}

// Resolve returns the concrete value to bind for a uniform of type hint, asking the source for
// sourced values.
func (value UniformValue) Resolve(ctx gpu.Context, hint gpu.UniformType) (UniformValue, bool) {
	if value.kind == UniformSourced {
		resolved, ok := value.source.ToUniform(ctx, hint)
		if !ok || resolved.kind == UniformSourced {
			return UniformValue{}, false
		}
		return resolved, true
	}
	return value, value.kind != UniformInvalid
}

// UniformSet is an ordered collection of named uniform values.
type UniformSet struct {
	names  []string
	values map[string]UniformValue
}

// NewUniformSet returns an empty UniformSet.
func NewUniformSet() *UniformSet {
	return &UniformSet{values: map[string]UniformValue{}}
}

// Set stores value under name, keeping the original position of names that are already set.
// It returns the set so calls can be chained.
func (set *UniformSet) Set(name string, value UniformValue) *UniformSet {
	if _, exists := set.values[name]; !exists {
		set.names = append(set.names, name)
	}
	set.values[name] = value
	return set
}

// Get returns the value stored under name.
func (set *UniformSet) Get(name string) (UniformValue, bool) {
	if set == nil {
		return UniformValue{}, false
	}
	value, ok := set.values[name]
	return value, ok
}

// Has returns true if a value is stored under name.
func (set *UniformSet) Has(name string) bool {
	_, ok := set.Get(name)
	return ok
}

// Delete removes name from the set.
func (set *UniformSet) Delete(name string) {
	if _, exists := set.values[name]; !exists {
		return
	}
	delete(set.values, name)
	for i, n := range set.names {
		if n == name {
			set.names = append(set.names[:i], set.names[i+1:]...)
			break
		}
	}
}

// Names returns the names in the set in the order they were first set.
func (set *UniformSet) Names() []string {
	if set == nil {
		return nil
	}
	return append([]string(nil), set.names...)
}

// Len returns the number of values in the set.
func (set *UniformSet) Len() int {
	if set == nil {
		return 0
	}
	return len(set.names)
}

// Clone returns a copy of the set. Values are copied; sources are shared.
func (set *UniformSet) Clone() *UniformSet {
	clone := NewUniformSet()
	if set == nil {
		return clone
	}
	for _, name := range set.names {
		clone.Set(name, set.values[name])
	}
	return clone
}
