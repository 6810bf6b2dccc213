package tetragl

import (
	"image"
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarlune/tetragl/gpu"
	"github.com/solarlune/tetragl/gpu/gputest"
)

const binderFragmentSource = `
uniform float f;
uniform vec2 v2;
uniform vec3 v3;
uniform vec4 v4;
uniform int i;
uniform bool b;
uniform ivec3 iv3;
uniform mat3 m3;
uniform mat4 m4;
uniform sampler2D tex;
uniform samplerCube cube;
void main() {}
`

func newBinderProgram(t *testing.T, rec *gputest.Recorder, fragment string) (*UniformBinder, *Program) {
	t.Helper()
	cache := NewShaderCache(rec, NewShaderLibrary(nil), nil)
	program := cache.Program(NewShader(t.Name(), testVertexSource, fragment))
	require.True(t, program.Linked)
	rec.UseProgram(program.Handle)
	return NewUniformBinder(rec, nil), program
}

func TestSetValueDispatch(t *testing.T) {

	rec := gputest.NewRecorder()
	binder, program := newBinderProgram(t, rec, binderFragmentSource)
	handle := program.Handle

	binder.SetValue(program, "f", FloatValue(1.5))
	binder.SetValue(program, "v2", Vec2Value(mgl32.Vec2{1, 2}))
	binder.SetValue(program, "v3", Vec3Value(mgl32.Vec3{1, 2, 3}))
	binder.SetValue(program, "v4", Vec4Value(mgl32.Vec4{1, 2, 3, 4}))
	binder.SetValue(program, "i", IntValue(7))
	binder.SetValue(program, "b", BoolValue(true))
	binder.SetValue(program, "iv3", IVec3Value(4, 5, 6))
	binder.SetValue(program, "m3", Mat3Value(mgl32.Ident3()))
	binder.SetValue(program, "m4", Mat4Value(mgl32.Translate3D(1, 2, 3)))

	write, ok := rec.Uniform(handle, "f")
	require.True(t, ok)
	assert.Equal(t, []float32{1.5}, write.Floats)

	write, _ = rec.Uniform(handle, "v2")
	assert.Equal(t, []float32{1, 2}, write.Floats)

	write, _ = rec.Uniform(handle, "v3")
	assert.Equal(t, []float32{1, 2, 3}, write.Floats)

	write, _ = rec.Uniform(handle, "v4")
	assert.Equal(t, []float32{1, 2, 3, 4}, write.Floats)

	write, _ = rec.Uniform(handle, "i")
	assert.Equal(t, []int32{7}, write.Ints)

	write, _ = rec.Uniform(handle, "b")
	assert.Equal(t, []int32{1}, write.Ints)

	write, _ = rec.Uniform(handle, "iv3")
	assert.Equal(t, []int32{4, 5, 6}, write.Ints)

	ident := mgl32.Ident3()
	write, _ = rec.Uniform(handle, "m3")
	assert.Equal(t, ident[:], write.Floats)

	translate := mgl32.Translate3D(1, 2, 3)
	write, _ = rec.Uniform(handle, "m4")
	assert.Equal(t, translate[:], write.Floats)

}

func TestColorFollowsDeclaredType(t *testing.T) {

	rec := gputest.NewRecorder()
	binder, program := newBinderProgram(t, rec, binderFragmentSource)

	red := NewColor(1, 0, 0, 0.5)

	binder.SetValue(program, "v3", SourceValue(red))
	binder.SetValue(program, "v4", SourceValue(red))

	write, _ := rec.Uniform(program.Handle, "v3")
	assert.Equal(t, []float32{1, 0, 0}, write.Floats)

	write, _ = rec.Uniform(program.Handle, "v4")
	assert.Equal(t, []float32{1, 0, 0, 0.5}, write.Floats)

}

func TestUndeclaredUniformIsIgnored(t *testing.T) {

	rec := gputest.NewRecorder()
	logger, logs := newObservedLogger()
	binder, program := newBinderProgram(t, rec, binderFragmentSource)
	binder.Logger = logger

	set := NewUniformSet().Set("missing", FloatValue(1))
	binder.SetUniform("missing", program, set)
	binder.SetValue(program, "alsoMissing", Vec3Value(mgl32.Vec3{}))

	assert.False(t, rec.Written(program.Handle, "missing"))
	assert.Equal(t, 0, logs.Len())

}

func TestMismatchedValueWarns(t *testing.T) {

	rec := gputest.NewRecorder()
	logger, logs := newObservedLogger()
	binder, program := newBinderProgram(t, rec, binderFragmentSource)
	binder.Logger = logger

	binder.SetValue(program, "v3", IntValue(3))
	binder.SetValue(program, "tex", FloatValue(1))
	binder.SetValue(program, "cube", TextureValue(4))

	assert.False(t, rec.Written(program.Handle, "v3"))
	assert.False(t, rec.Written(program.Handle, "tex"))
	assert.False(t, rec.Written(program.Handle, "cube"))
	assert.Equal(t, 3, logs.FilterMessage("uniform value doesn't match the declared type").Len())

}

func TestSetTextures(t *testing.T) {

	rec := gputest.NewRecorder()
	binder, program := newBinderProgram(t, rec, binderFragmentSource)

	binder.SetValue(program, "tex", TextureValue(7))
	binder.SetValue(program, "cube", CubeTextureValue(9))

	texUnit := program.Uniform("tex").Unit
	cubeUnit := program.Uniform("cube").Unit
	require.NotEqual(t, texUnit, cubeUnit)

	assert.Equal(t, gpu.Texture(7), rec.BoundTexture(uint32(texUnit)))
	assert.Equal(t, gpu.Texture(9), rec.BoundTexture(uint32(cubeUnit)))

	write, _ := rec.Uniform(program.Handle, "tex")
	assert.Equal(t, []int32{int32(texUnit)}, write.Ints)

	write, _ = rec.Uniform(program.Handle, "cube")
	assert.Equal(t, []int32{int32(cubeUnit)}, write.Ints)

}

func TestTextureUploadsOnce(t *testing.T) {

	rec := gputest.NewRecorder()
	binder, program := newBinderProgram(t, rec, binderFragmentSource)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	texture := NewTextureFromImage("red", img, nil)

	binder.SetValue(program, "tex", SourceValue(texture))
	binder.SetValue(program, "tex", SourceValue(texture))

	require.NotZero(t, texture.Handle())
	assert.Equal(t, 1, rec.TextureUploads(texture.Handle()))
	assert.Equal(t, texture.Handle(), rec.BoundTexture(uint32(program.Uniform("tex").Unit)))

}

func TestSetAttributes(t *testing.T) {

	rec := gputest.NewRecorder()
	binder, program := newBinderProgram(t, rec, "void main() {}\n")

	geometry := NewGeometry()
	positions := geometry.AddArray(AttributePosition, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, 3)
	unused := geometry.AddArray("aUnused", []float32{1, 2, 3}, 1)
	normals := geometry.AddArray(AttributeNormal, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, 3)

	binder.SetAttributes(program, geometry)

	stream, ok := rec.VertexStream(program.Attributes[AttributePosition])
	require.True(t, ok)
	assert.Equal(t, positions.Buffer(), stream)

	stream, ok = rec.VertexStream(program.Attributes[AttributeNormal])
	require.True(t, ok)
	assert.Equal(t, normals.Buffer(), stream)

	assert.Equal(t, 9, rec.BufferLen(positions.Buffer()))
	assert.Equal(t, 3, rec.BufferLen(unused.Buffer()))

	pointers := 0
	for _, call := range rec.Calls {
		if len(call) > 19 && call[:19] == "VertexAttribPointer" {
			pointers++
		}
	}
	assert.Equal(t, 2, pointers)

}

func lightsProgram(t *testing.T, rec *gputest.Recorder) (*UniformBinder, *Program) {
	t.Helper()
	library := NewShaderLibrary(nil)
	cache := NewShaderCache(rec, library, nil)
	program := cache.Program(library.Fetch(BuiltinPhong))
	require.True(t, program.Linked)
	rec.UseProgram(program.Handle)
	return NewUniformBinder(rec, nil), program
}

func lightType(t *testing.T, rec *gputest.Recorder, program *Program, slot string) int32 {
	t.Helper()
	write, ok := rec.Uniform(program.Handle, "uLight["+slot+"].type")
	require.True(t, ok, "slot %s wasn't written", slot)
	return write.Ints[0]
}

func TestSetLightsFillsEmptySlots(t *testing.T) {

	rec := gputest.NewRecorder()
	binder, program := lightsProgram(t, rec)

	sun := NewDirectionalLight("sun", ColorWhite, mgl32.Vec3{0, -1, 0})
	lamp := NewPointLight("lamp", ColorRed, 2)
	lamp.Position = mgl32.Vec3{1, 2, 3}
	lamp.UpdateWorld(nil)
	lamp.UpdateWorldPosition()

	binder.SetLights(program, []*Node{sun, lamp})

	assert.Equal(t, int32(LightDirectional), lightType(t, rec, program, "0"))
	assert.Equal(t, int32(LightPoint), lightType(t, rec, program, "1"))
	assert.Equal(t, int32(LightNone), lightType(t, rec, program, "2"))
	assert.Equal(t, int32(LightNone), lightType(t, rec, program, "3"))

	write, _ := rec.Uniform(program.Handle, "uLight[0].direction")
	assert.Equal(t, []float32{0, -1, 0}, write.Floats)

	write, _ = rec.Uniform(program.Handle, "uLight[1].color")
	assert.Equal(t, []float32{1, 0, 0}, write.Floats)

	write, _ = rec.Uniform(program.Handle, "uLight[1].position")
	assert.Equal(t, []float32{1, 2, 3}, write.Floats)

	write, _ = rec.Uniform(program.Handle, "uLight[1].intensity")
	assert.Equal(t, []float32{2}, write.Floats)

}

func TestSetLightsDropsExtraLights(t *testing.T) {

	rec := gputest.NewRecorder()
	binder, program := lightsProgram(t, rec)

	lights := []*Node{}
	for i := 0; i < MaxLights+2; i++ {
		lights = append(lights, NewPointLight("lamp", ColorWhite, float32(i)))
	}
	lights[MaxLights].Light.Type = LightHemisphere

	binder.SetLights(program, lights)

	for _, slot := range []string{"0", "1", "2", "3"} {
		assert.Equal(t, int32(LightPoint), lightType(t, rec, program, slot))
	}

	write, _ := rec.Uniform(program.Handle, "uLight[3].intensity")
	assert.Equal(t, []float32{3}, write.Floats)
	assert.False(t, rec.Written(program.Handle, "uLight[4].type"))

}

func TestSetLightsWithoutLightArray(t *testing.T) {

	rec := gputest.NewRecorder()
	binder, program := newBinderProgram(t, rec, binderFragmentSource)

	assert.NotPanics(t, func() {
		binder.SetLights(program, []*Node{NewAmbientLight("ambient", ColorWhite)})
	})
	assert.False(t, rec.Written(program.Handle, "uLight[0].type"))

}
