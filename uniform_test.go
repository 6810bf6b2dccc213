package tetragl

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarlune/tetragl/gpu"
	"github.com/solarlune/tetragl/gpu/gputest"
)

func TestUniformSetOrder(t *testing.T) {

	set := NewUniformSet().
		Set("b", FloatValue(1)).
		Set("a", FloatValue(2)).
		Set("c", FloatValue(3))

	set.Set("b", FloatValue(4))

	assert.Equal(t, []string{"b", "a", "c"}, set.Names())
	assert.Equal(t, 3, set.Len())

	value, ok := set.Get("b")
	require.True(t, ok)
	assert.Equal(t, []float32{4}, value.Floats())

	set.Delete("a")
	set.Delete("missing")
	assert.Equal(t, []string{"b", "c"}, set.Names())
	assert.False(t, set.Has("a"))

}

func TestUniformSetClone(t *testing.T) {

	set := NewUniformSet().Set("color", Vec3Value(mgl32.Vec3{1, 0, 0}))
	clone := set.Clone()

	clone.Set("extra", IntValue(1))
	clone.Delete("color")

	assert.Equal(t, []string{"color"}, set.Names())
	assert.Equal(t, []string{"extra"}, clone.Names())

	var empty *UniformSet
	assert.Equal(t, 0, empty.Len())
	assert.False(t, empty.Has("anything"))
	assert.Equal(t, 0, empty.Clone().Len())

}

func TestUniformValueResolve(t *testing.T) {

	rec := gputest.NewRecorder()

	plain := FloatValue(2)
	resolved, ok := plain.Resolve(rec, gpu.Float)
	require.True(t, ok)
	assert.Equal(t, plain, resolved)

	_, ok = UniformValue{}.Resolve(rec, gpu.Float)
	assert.False(t, ok)

	_, ok = SourceValue(nil).Resolve(rec, gpu.Float)
	assert.False(t, ok)

	color := NewColor(0.5, 0.25, 1, 0.75)

	resolved, ok = SourceValue(color).Resolve(rec, gpu.FloatVec3)
	require.True(t, ok)
	assert.Equal(t, UniformVec3, resolved.Kind())
	assert.Equal(t, []float32{0.5, 0.25, 1}, resolved.Floats())

	resolved, ok = SourceValue(color).Resolve(rec, gpu.FloatVec4)
	require.True(t, ok)
	assert.Equal(t, UniformVec4, resolved.Kind())
	assert.Equal(t, []float32{0.5, 0.25, 1, 0.75}, resolved.Floats())

}

func TestUniformValueKinds(t *testing.T) {

	assert.Equal(t, []int32{0}, BoolValue(false).Ints())
	assert.Equal(t, []int32{1, 2, 3, 4}, IVec4Value(1, 2, 3, 4).Ints())
	assert.Len(t, Mat4Value(mgl32.Ident4()).Floats(), 16)
	assert.Equal(t, gpu.Texture(3), TextureValue(3).Texture())
	assert.Equal(t, UniformCubeTexture, CubeTextureValue(3).Kind())
	assert.Equal(t, "vec3", UniformVec3.String())
	assert.Equal(t, "invalid", UniformInvalid.String())

}

func TestColor(t *testing.T) {

	color := NewColor(0, 0.5, 1, 1)
	color.AddRGB(0.25)
	assert.Equal(t, NewColor(0.25, 0.75, 1.25, 1), color)

	color.SetRGBA(0.001, 0.5, 1, 0.5)
	color.ConvertTosRGB()

	assert.InDelta(t, 0.01292, color.R, 1e-6)
	assert.InDelta(t, 0.7354, color.G, 1e-3)
	assert.InDelta(t, 1, color.B, 1e-6)
	assert.Equal(t, float32(0.5), color.A)

}
