package gputest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarlune/tetragl/gpu"
)

const recorderVertex = `
layout(location = 0) in vec3 aPosition;
in vec2 aUV;
uniform mat4 pMatrix;
uniform float uTime;
void main() {}
`

const recorderFragment = `
struct Light {
	vec3 position;
	vec4 color;
	int type;
};
uniform Light uLight[2];
uniform float uTime;
uniform vec3 weights[3];
uniform sampler2D tex;
void main() {}
`

func link(t *testing.T, rec *Recorder, vertex, fragment string) gpu.Program {
	t.Helper()
	program := rec.CreateProgram()
	for stage, src := range map[gpu.ShaderStage]string{gpu.VertexShader: vertex, gpu.FragmentShader: fragment} {
		shader := rec.CreateShader(stage)
		rec.ShaderSource(shader, src)
		rec.CompileShader(shader)
		rec.AttachShader(program, shader)
	}
	rec.LinkProgram(program)
	return program
}

func TestIntrospection(t *testing.T) {

	rec := NewRecorder()
	program := link(t, rec, recorderVertex, recorderFragment)
	require.True(t, rec.ProgramLinked(program))

	names := []string{}
	for _, info := range rec.ActiveUniforms(program) {
		names = append(names, info.Name)
	}

	assert.Equal(t, []string{
		"pMatrix",
		"uTime",
		"uLight[0].position",
		"uLight[0].color",
		"uLight[0].type",
		"uLight[1].position",
		"uLight[1].color",
		"uLight[1].type",
		"weights[0]",
		"tex",
	}, names)

	for _, info := range rec.ActiveUniforms(program) {
		if info.Name == "weights[0]" {
			assert.Equal(t, int32(3), info.Size)
			assert.Equal(t, gpu.FloatVec3, info.Type)
		}
	}

	// Array uniforms are found by their base name as well.
	assert.Equal(t, rec.UniformLocation(program, "weights[0]"), rec.UniformLocation(program, "weights"))
	assert.Equal(t, gpu.NoLocation, rec.UniformLocation(program, "missing"))

	attributes := rec.ActiveAttributes(program)
	require.Len(t, attributes, 2)
	assert.Equal(t, "aPosition", attributes[0].Name)
	assert.Equal(t, "aUV", attributes[1].Name)
	assert.Equal(t, int32(1), rec.AttribLocation(program, "aUV"))
	assert.Equal(t, int32(-1), rec.AttribLocation(program, "aNormal"))

}

func TestFailMarker(t *testing.T) {

	rec := NewRecorder()
	program := link(t, rec, recorderVertex, FailMarker+"\n"+recorderFragment)

	assert.False(t, rec.ProgramLinked(program))
	assert.Contains(t, rec.ProgramInfoLog(program), "did not compile")
	assert.Empty(t, rec.ActiveUniforms(program))
	assert.Equal(t, 2, rec.Compiles)
	assert.Equal(t, 1, rec.Links)

}

func TestUniformWrites(t *testing.T) {

	rec := NewRecorder()
	program := link(t, rec, recorderVertex, recorderFragment)
	rec.UseProgram(program)

	rec.Uniform1f(rec.UniformLocation(program, "uTime"), 2)
	rec.Uniform1f(rec.UniformLocation(program, "uTime"), 3)

	value, ok := rec.Uniform(program, "uTime")
	require.True(t, ok)
	assert.Equal(t, []float32{3}, value.Floats)
	assert.Equal(t, 2, value.Count)

	assert.False(t, rec.Written(program, "pMatrix"))

}
