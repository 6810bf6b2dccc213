package loader

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/solarlune/tetragl"
	"github.com/solarlune/tetragl/colors"
	"github.com/solarlune/tetragl/gpu"
	"github.com/solarlune/tetragl/gpu/gputest"
)

const testSceneYAML = `
ambient: {r: 0.2, g: 0.2, b: 0.2, a: 1}
background: {r: 0, g: 0, b: 0.5, a: 1}
materials:
  red:
    type: Phong
    color: {r: 1, g: 0, b: 0, a: 1}
    textureTile: [2, 2]
    shininess: 12
    specularIntensity: 0.5
    tint: [1, 0.5, 0.25]
    label: shiny
  plain:
    type: Gouraud
lights:
  sun:
    type: directional
    color: {r: 1, g: 1, b: 1, a: 1}
    direction: [0, -1, 0]
  bulb:
    type: 2
    color: {r: 1, g: 0.5, b: 0, a: 1}
    intensity: 3
cameras:
  main: {fov: 60, near: 0.5, far: 200}
meshes:
  tri:
    vertices: [0, 0, 0, 1, 0, 0, 0, 1, 0]
    tris: [0, 1, 2]
transforms:
  - uid: 1
    name: Room
    position: [0, 1, 0]
  - uid: 2
    name: Desk
    parent: 1
    renderer: red
    mesh: tri
    rotation: [0, 1.5, 0]
    static: true
  - uid: lamp
    name: Lamp
    parent: 2
    light: bulb
    position: [0, 2, 0]
  - uid: 4
    name: Sun
    light: sun
    enabled: false
  - uid: 5
    name: Eye
    camera: main
    position: [0, 0, 10]
    lightmap: 1
    lightmapTileOffset: [0.5, 0.5, 0, 0.5]
`

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestLoadSceneData(t *testing.T) {

	logger, logs := newObservedLogger()
	options := DefaultOptions()
	options.Logger = logger
	options.Aspect = 2

	result, err := LoadSceneData([]byte(testSceneYAML), nil, options)
	require.NoError(t, err)

	scene := result.Scene

	// The ambient light comes first, then the transforms without a parent.
	require.Equal(t, 4, scene.NumChildren())
	ambient := scene.ChildAt(0)
	assert.Equal(t, "Ambient", ambient.Name)
	require.NotNil(t, ambient.Light)
	assert.Equal(t, tetragl.LightAmbient, ambient.Light.Type)
	assert.Equal(t, tetragl.NewColor(0.2, 0.2, 0.2, 1), scene.Ambient)

	assert.True(t, result.HasClearColor)
	assert.Equal(t, tetragl.NewColor(0, 0, 0.5, 1), result.ClearColor)

	desk := scene.Find("Room/Desk")
	require.NotNil(t, desk)
	assert.Equal(t, "2", desk.UID)
	assert.True(t, desk.Static)
	assert.Equal(t, mgl32.Vec3{0, 1.5, 0}, desk.Rotation)
	require.NotNil(t, desk.Geometry)
	assert.Equal(t, 3, desk.Geometry.Size)
	assert.Same(t, result.Shaders["red"], desk.Shader)

	lamp := scene.Find("Room/Desk/Lamp")
	require.NotNil(t, lamp)
	require.NotNil(t, lamp.Light)
	assert.Equal(t, tetragl.LightPoint, lamp.Light.Type)
	assert.Equal(t, float32(3), lamp.Light.Intensity)

	sun := scene.Find("Sun")
	require.NotNil(t, sun)
	assert.False(t, sun.Enabled)
	assert.Equal(t, tetragl.LightDirectional, sun.Light.Type)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, sun.Light.Direction)
	assert.Equal(t, float32(1), sun.Light.Intensity)

	require.NotNil(t, result.Camera)
	assert.Equal(t, "Eye", result.Camera.Name)
	assert.Equal(t, 1, result.Camera.LightmapIndex)
	assert.Equal(t, mgl32.Vec4{0.5, 0.5, 0, 0.5}, result.Camera.LightmapTileOffset)
	camera := result.Camera.Camera
	assert.Equal(t, float32(60), camera.FieldOfView)
	assert.Equal(t, float32(2), camera.Aspect)
	assert.Equal(t, float32(0.5), camera.Near)
	assert.Equal(t, float32(200), camera.Far)

	entries := logs.FilterMessage("unsupported material property").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "label", entries[0].ContextMap()["property"])

}

func TestLoadedMaterials(t *testing.T) {

	result, err := LoadSceneData([]byte(testSceneYAML), nil, nil)
	require.NoError(t, err)

	rec := gputest.NewRecorder()

	red := result.Shaders["red"]
	require.NotNil(t, red)
	assert.Equal(t, mgl32.Vec2{2, 2}, red.TextureTile)

	value, ok := red.Uniforms.Get("color")
	require.True(t, ok)
	resolved, ok := value.Resolve(rec, gpu.FloatVec4)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0, 1}, resolved.Floats())

	value, ok = red.Uniforms.Get("shininess")
	require.True(t, ok)
	assert.Equal(t, []float32{12}, value.Floats())

	value, ok = red.Uniforms.Get("specularIntensity")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5}, value.Floats())

	value, ok = red.Uniforms.Get("tint")
	require.True(t, ok)
	assert.Equal(t, tetragl.UniformVec3, value.Kind())

	// Materials without a color keep the shader's own.
	plain := result.Shaders["plain"]
	require.NotNil(t, plain)
	assert.False(t, plain.Uniforms.Has("color"))
	assert.True(t, plain.Static.Has("color"))

}

func TestLoadSceneJSON(t *testing.T) {

	doc := `{
		"transforms": [
			{"uid": "a", "name": "A"},
			{"uid": "b", "name": "B", "parent": "a", "position": [1, 2, 3]}
		]
	}`

	result, err := LoadSceneData([]byte(doc), nil, nil)
	require.NoError(t, err)

	assert.False(t, result.HasClearColor)
	assert.Nil(t, result.Camera)

	b := result.Scene.Find("A/B")
	require.NotNil(t, b)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, b.Position)

	// Without an ambient color the ambient light is black.
	assert.Equal(t, tetragl.ColorBlack, result.Scene.ChildAt(0).Light.Color)

}

func TestLoadSceneNamedColors(t *testing.T) {

	doc := `
ambient: dark gray
background: sky_blue
lights:
  lamp: {type: point, color: orange}
transforms:
  - {uid: 1, name: Lamp, light: lamp}
`

	result, err := LoadSceneData([]byte(doc), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, colors.DarkGray(), result.Scene.Ambient)
	assert.Equal(t, colors.SkyBlue(), result.ClearColor)
	assert.Equal(t, colors.Orange(), result.Scene.Find("Lamp").Light.Color)

}

func TestLoadSceneExternalMeshes(t *testing.T) {

	logger, logs := newObservedLogger()
	options := DefaultOptions()
	options.Logger = logger

	doc := `
transforms:
  - {uid: 1, name: Floor, mesh: floor}
  - {uid: 2, name: Ghost, mesh: ghost}
`

	meshes := map[string]tetragl.MeshData{
		"floor": {tetragl.MeshVertices: {0, 0, 0, 1, 0, 0, 1, 0, 1}},
	}

	result, err := LoadSceneData([]byte(doc), meshes, options)
	require.NoError(t, err)

	assert.NotNil(t, result.Scene.Find("Floor").Geometry)
	assert.Nil(t, result.Scene.Find("Ghost").Geometry)
	assert.Equal(t, 1, logs.FilterMessage("transform uses unknown mesh").Len())

}

func TestLoadSceneErrors(t *testing.T) {

	for name, doc := range map[string]string{
		"unknown material":       "transforms: [{uid: 1, name: A, renderer: missing}]",
		"unknown light":          "transforms: [{uid: 1, name: A, light: missing}]",
		"unknown camera":         "transforms: [{uid: 1, name: A, camera: missing}]",
		"unknown parent":         "transforms: [{uid: 1, name: A, parent: 7}]",
		"unknown shader":         "materials: {m: {type: Chrome}}",
		"unknown texture":        "materials: {m: {type: Phong, colorTexture: missing}}",
		"texture without a file": "textures: {t: {}}",
		"unknown light type":     "lights: {l: {type: laser}}",
		"bad document":           "transforms: {",
		"unknown color":          "background: octarine",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadSceneData([]byte(doc), nil, nil)
			assert.Error(t, err)
		})
	}

}

func TestLoadSceneFileWithTextures(t *testing.T) {

	dir := t.TempDir()

	buf := bytes.Buffer{}
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wood.png"), buf.Bytes(), 0o644))

	doc := `
path: ` + dir + `/
textures:
  wood: {file: wood.png}
materials:
  desk: {type: Phong, colorTexture: wood}
transforms:
  - {uid: 1, name: Desk, renderer: desk}
`
	scenePath := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(scenePath, []byte(doc), 0o644))

	result, err := LoadSceneFile(scenePath, nil, nil)
	require.NoError(t, err)

	wood := result.Textures["wood"]
	require.NotNil(t, wood)
	require.NoError(t, wood.Wait())

	desk := result.Shaders["desk"]
	value, ok := desk.Uniforms.Get("hasColorTexture")
	require.True(t, ok)
	assert.Equal(t, []int32{1}, value.Ints())

	value, ok = desk.Uniforms.Get("colorTexture")
	require.True(t, ok)
	assert.Equal(t, wood, value.Source())

	_, err = LoadSceneFile(filepath.Join(dir, "missing.yaml"), nil, nil)
	assert.Error(t, err)

}

func TestLoadMeshFile(t *testing.T) {

	path := filepath.Join(t.TempDir(), "meshes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"quad": {"vertices": [0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0], "tris": [0, 1, 2, 0, 2, 3]}}`), 0o644))

	meshes, err := LoadMeshFile(path)
	require.NoError(t, err)
	require.Contains(t, meshes, "quad")
	assert.Len(t, meshes["quad"][tetragl.MeshVertices], 12)
	assert.Len(t, meshes["quad"][tetragl.MeshTris], 6)

}

func TestApply(t *testing.T) {

	result, err := LoadSceneData([]byte(testSceneYAML), nil, nil)
	require.NoError(t, err)

	rec := gputest.NewRecorder()
	engine := tetragl.NewEngine(rec, nil)
	result.Apply(engine)

	assert.Same(t, result.Scene, engine.Scene)
	assert.Same(t, result.Camera, engine.Camera)
	assert.Equal(t, [4]float32{0, 0, 0.5, 1}, rec.ClearRGBA)

	engine.Render()
	assert.Equal(t, 1, engine.Stats().DrawCalls)

}
