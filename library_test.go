package tetragl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinShaders(t *testing.T) {

	library := NewShaderLibrary(nil)

	assert.Equal(t, []string{
		BuiltinGouraud,
		BuiltinLightmap,
		BuiltinNormal2Color,
		BuiltinPhong,
		BuiltinReflective,
		BuiltinSkybox,
		BuiltinToon,
	}, library.ShaderNames())

	assert.Equal(t, []string{IncludeCommon, IncludeLights, IncludeVertex}, library.IncludeNames())

	lights, ok := library.Include(IncludeLights)
	require.True(t, ok)
	assert.Contains(t, lights, "uLight[")

	phong := library.Fetch(BuiltinPhong)
	require.NotNil(t, phong)
	assert.True(t, phong.Static.Has("color"))
	assert.True(t, phong.Static.Has("hasColorTexture"))

	lightmap := library.Fetch(BuiltinLightmap)
	require.NotNil(t, lightmap)
	assert.NotNil(t, lightmap.OnSetup)

}

func TestFetchReturnsClones(t *testing.T) {

	library := NewShaderLibrary(nil)

	a := library.Fetch(BuiltinToon)
	b := library.Fetch(BuiltinToon)

	a.Set("uColorSampler", IntValue(1))
	a.Meta.Includes = append(a.Meta.Includes, "Extra")

	assert.NotEqual(t, a.Name, b.Name)
	assert.False(t, b.Uniforms.Has("uColorSampler"))
	assert.NotContains(t, b.Meta.Includes, "Extra")
	assert.False(t, library.Fetch(BuiltinToon).Uniforms.Has("uColorSampler"))

}

func TestFetchUnknownShader(t *testing.T) {

	logger, logs := newObservedLogger()
	library := NewShaderLibrary(logger)

	assert.Nil(t, library.Fetch("Chrome"))
	assert.False(t, library.Has("Chrome"))
	assert.Equal(t, 1, logs.FilterMessage("shader doesn't exist").Len())

	var none *ShaderLibrary
	assert.Nil(t, none.Fetch(BuiltinPhong))

}

func TestAddSource(t *testing.T) {

	library := NewShaderLibrary(nil)

	require.NoError(t, library.AddSource(testShaderFile))
	assert.True(t, library.Has("Glow"))

	require.NoError(t, library.AddSource("//#name Fog\nuniform float fogDensity;\n"))
	fog, ok := library.Include("Fog")
	require.True(t, ok)
	assert.Contains(t, fog, "fogDensity")

	assert.Error(t, library.AddSource("uniform float unnamed;\n"))
	assert.Error(t, library.AddSource("//#name Broken\n//#vertex\nvoid main() {}\n"))

}

func TestLoadFile(t *testing.T) {

	library := NewShaderLibrary(nil)

	path := filepath.Join(t.TempDir(), "glow.glsl")
	require.NoError(t, os.WriteFile(path, []byte(testShaderFile), 0o644))

	require.NoError(t, library.LoadFile(path))
	assert.True(t, library.Has("Glow"))

	assert.Error(t, library.LoadFile(filepath.Join(t.TempDir(), "missing.glsl")))

}
