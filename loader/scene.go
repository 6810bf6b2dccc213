package loader

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/solarlune/tetragl"
	"github.com/solarlune/tetragl/colors"
)

type colorDoc struct {
	R float32 `yaml:"r"`
	G float32 `yaml:"g"`
	B float32 `yaml:"b"`
	A float32 `yaml:"a"`
}

// UnmarshalYAML accepts either an {r, g, b, a} mapping or the name of one of the colors package's colors.
func (c *colorDoc) UnmarshalYAML(value *yaml.Node) error {

	if value.Kind == yaml.ScalarNode {
		named, ok := colors.ByName(value.Value)
		if !ok {
			return errors.Errorf("unknown color %q at line %d", value.Value, value.Line)
		}
		*c = colorDoc{named.R, named.G, named.B, named.A}
		return nil
	}

	type plain colorDoc
	return value.Decode((*plain)(c))

}

func (c *colorDoc) color() tetragl.Color {
	if c == nil {
		return tetragl.ColorBlack
	}
	return tetragl.NewColor(c.R, c.G, c.B, c.A)
}

type textureDoc struct {
	File string `yaml:"file"`
}

type materialDoc struct {
	Type          string    `yaml:"type"`
	Color         *colorDoc `yaml:"color"`
	TextureTile   []float32 `yaml:"textureTile"`
	TextureOffset []float32 `yaml:"textureOffset"`
	ColorTexture  string    `yaml:"colorTexture"`
	// Anything else becomes a uniform of the same name.
	Uniforms map[string]interface{} `yaml:",inline"`
}

// lightTypeDoc accepts either a light type number or its name.
type lightTypeDoc tetragl.LightType

func (t *lightTypeDoc) UnmarshalYAML(value *yaml.Node) error {

	var number int32
	if err := value.Decode(&number); err == nil {
		*t = lightTypeDoc(number)
		return nil
	}

	lightType, ok := tetragl.ParseLightType(value.Value)
	if !ok {
		return errors.Errorf("unknown light type %q at line %d", value.Value, value.Line)
	}
	*t = lightTypeDoc(lightType)
	return nil

}

type lightDoc struct {
	Type      lightTypeDoc `yaml:"type"`
	Color     *colorDoc    `yaml:"color"`
	Direction []float32    `yaml:"direction"`
	Intensity *float32     `yaml:"intensity"`
}

type cameraDoc struct {
	FOV  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
}

// uidDoc reads a uid written as either a number or a string.
type uidDoc string

func (uid *uidDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return errors.Errorf("uid at line %d must be a number or a string", value.Line)
	}
	*uid = uidDoc(value.Value)
	return nil
}

type transformDoc struct {
	UID      uidDoc    `yaml:"uid"`
	Name     string    `yaml:"name"`
	Parent   *uidDoc   `yaml:"parent"`
	Position []float32 `yaml:"position"`
	Rotation []float32 `yaml:"rotation"`
	Scale    []float32 `yaml:"scale"`
	Renderer string    `yaml:"renderer"`
	Mesh     string    `yaml:"mesh"`
	Light    string    `yaml:"light"`
	Camera   string    `yaml:"camera"`
	Enabled  *bool     `yaml:"enabled"`
	Static   bool      `yaml:"static"`

	Lightmap           *int      `yaml:"lightmap"`
	LightmapTileOffset []float32 `yaml:"lightmapTileOffset"`
}

type sceneDoc struct {
	Path       string                      `yaml:"path"`
	Ambient    *colorDoc                   `yaml:"ambient"`
	Background *colorDoc                   `yaml:"background"`
	Textures   map[string]textureDoc       `yaml:"textures"`
	Materials  map[string]materialDoc      `yaml:"materials"`
	Lights     map[string]lightDoc         `yaml:"lights"`
	Cameras    map[string]cameraDoc        `yaml:"cameras"`
	Transforms []transformDoc              `yaml:"transforms"`
	Meshes     map[string]tetragl.MeshData `yaml:"meshes"`
}

// LoadSceneFile loads a scene description from the YAML or JSON file at path. meshes holds the mesh
// data transforms refer to by name, in addition to any the document holds itself; it may be nil.
func LoadSceneFile(path string, meshes map[string]tetragl.MeshData, options *Options) (*Result, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read scene file %s", path)
	}

	result, err := LoadSceneData(data, meshes, options)
	return result, errors.Wrapf(err, "failed to load scene file %s", path)

}

// LoadMeshFile reads a YAML or JSON table of named MeshData from path.
func LoadMeshFile(path string) (map[string]tetragl.MeshData, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read mesh file %s", path)
	}

	meshes := map[string]tetragl.MeshData{}
	if err := yaml.Unmarshal(data, &meshes); err != nil {
		return nil, errors.Wrapf(err, "failed to parse mesh file %s", path)
	}

	return meshes, nil

}

// LoadSceneData builds a scene from a scene description document. The document lists textures,
// materials, lights and cameras by name, then the transforms (nodes) that use them; a transform's
// parent is given by uid. An ambient light node is added for the document's ambient color, and a
// transform with a camera becomes the Result's camera.
func LoadSceneData(data []byte, meshes map[string]tetragl.MeshData, options *Options) (*Result, error) {

	options = options.normalize()
	logger := options.Logger

	doc := sceneDoc{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "failed to parse scene document")
	}

	result := newResult()

	ambient := tetragl.NewAmbientLight("Ambient", doc.Ambient.color())
	result.Scene.Ambient = ambient.Light.Color
	result.Scene.Add(ambient)

	if doc.Background != nil {
		result.ClearColor = doc.Background.color()
		result.HasClearColor = true
	}

	texturePath := options.TexturePath
	if texturePath == "" {
		texturePath = doc.Path
	}

	for _, name := range sortedKeys(doc.Textures) {
		file := doc.Textures[name].File
		if file == "" {
			return nil, errors.Errorf("texture %s has no file", name)
		}
		textureOptions := *options.TextureOptions
		result.Textures[name] = tetragl.LoadTexture(texturePath+file, &textureOptions)
	}

	for _, name := range sortedKeys(doc.Materials) {

		material := doc.Materials[name]

		shader := options.Library.Fetch(material.Type)
		if shader == nil {
			return nil, errors.Errorf("material %s uses unknown shader %q", name, material.Type)
		}

		if material.Color != nil {
			shader.Set("color", tetragl.SourceValue(material.Color.color()))
		}

		if len(material.TextureTile) >= 2 {
			shader.TextureTile = mgl32.Vec2{material.TextureTile[0], material.TextureTile[1]}
		}
		if len(material.TextureOffset) >= 2 {
			shader.TextureOffset = mgl32.Vec2{material.TextureOffset[0], material.TextureOffset[1]}
		}

		if material.ColorTexture != "" {
			texture, exists := result.Textures[material.ColorTexture]
			if !exists {
				return nil, errors.Errorf("material %s uses unknown texture %q", name, material.ColorTexture)
			}
			shader.Set("colorTexture", tetragl.SourceValue(texture))
			shader.Set("hasColorTexture", tetragl.BoolValue(true))
		}

		for _, uniform := range sortedKeys(material.Uniforms) {
			value, ok := uniformValue(material.Uniforms[uniform])
			if !ok {
				logger.Warn("unsupported material property", zap.String("material", name), zap.String("property", uniform))
				continue
			}
			shader.Set(uniform, value)
		}

		result.Shaders[name] = shader

	}

	lights := map[string]*tetragl.Light{}
	for _, name := range sortedKeys(doc.Lights) {
		l := doc.Lights[name]
		light := tetragl.NewLight(tetragl.LightType(l.Type))
		light.Color = l.Color.color()
		if v, ok := vec3(l.Direction); ok {
			light.Direction = v
		}
		if l.Intensity != nil {
			light.Intensity = *l.Intensity
		}
		lights[name] = light
	}

	cameras := map[string]*tetragl.Camera{}
	for _, name := range sortedKeys(doc.Cameras) {
		c := doc.Cameras[name]
		cameras[name] = tetragl.NewPerspectiveCamera(c.FOV, options.Aspect, c.Near, c.Far)
	}

	allMeshes := map[string]tetragl.MeshData{}
	for name, mesh := range meshes {
		allMeshes[name] = mesh
	}
	for name, mesh := range doc.Meshes {
		allMeshes[name] = mesh
	}

	nodes := make([]*tetragl.Node, len(doc.Transforms))
	byUID := map[string]*tetragl.Node{}

	for i, t := range doc.Transforms {

		node := tetragl.NewNode(t.Name)
		node.UID = string(t.UID)
		node.Static = t.Static

		if t.Enabled != nil {
			node.Enabled = *t.Enabled
		}
		if v, ok := vec3(t.Position); ok {
			node.Position = v
		}
		if v, ok := vec3(t.Rotation); ok {
			node.Rotation = v
		}
		if v, ok := vec3(t.Scale); ok {
			node.Scale = v
		}

		if t.Renderer != "" {
			shader, exists := result.Shaders[t.Renderer]
			if !exists {
				return nil, errors.Errorf("transform %s uses unknown material %q", t.Name, t.Renderer)
			}
			node.Shader = shader
		}

		if t.Mesh != "" {
			data, exists := allMeshes[t.Mesh]
			if !exists {
				logger.Warn("transform uses unknown mesh", zap.String("transform", t.Name), zap.String("mesh", t.Mesh))
			} else {
				node.Geometry = tetragl.NewMesh(data, logger).Geometry
			}
		}

		if t.Light != "" {
			light, exists := lights[t.Light]
			if !exists {
				return nil, errors.Errorf("transform %s uses unknown light %q", t.Name, t.Light)
			}
			node.Light = light
		}

		if t.Camera != "" {
			camera, exists := cameras[t.Camera]
			if !exists {
				return nil, errors.Errorf("transform %s uses unknown camera %q", t.Name, t.Camera)
			}
			node.Camera = camera
			result.Cameras = append(result.Cameras, node)
			result.Camera = node
		}

		if t.Lightmap != nil {
			node.LightmapIndex = *t.Lightmap
		}
		if len(t.LightmapTileOffset) >= 4 {
			node.LightmapTileOffset = mgl32.Vec4{t.LightmapTileOffset[0], t.LightmapTileOffset[1], t.LightmapTileOffset[2], t.LightmapTileOffset[3]}
		}

		nodes[i] = node
		if node.UID != "" {
			byUID[node.UID] = node
		}

	}

	for i, t := range doc.Transforms {
		if t.Parent == nil {
			result.Scene.Add(nodes[i])
			continue
		}
		parent, exists := byUID[string(*t.Parent)]
		if !exists {
			return nil, errors.Errorf("transform %s has unknown parent %q", t.Name, string(*t.Parent))
		}
		parent.Add(nodes[i])
	}

	return result, nil

}

// uniformValue converts a number, boolean or list of 2 to 4 numbers into a uniform value.
func uniformValue(value interface{}) (tetragl.UniformValue, bool) {

	switch v := value.(type) {
	case int:
		return tetragl.FloatValue(float32(v)), true
	case float64:
		return tetragl.FloatValue(float32(v)), true
	case bool:
		return tetragl.BoolValue(v), true
	case []interface{}:
		floats := make([]float32, 0, len(v))
		for _, element := range v {
			switch n := element.(type) {
			case int:
				floats = append(floats, float32(n))
			case float64:
				floats = append(floats, float32(n))
			default:
				return tetragl.UniformValue{}, false
			}
		}
		switch len(floats) {
		case 2:
			return tetragl.Vec2Value(mgl32.Vec2{floats[0], floats[1]}), true
		case 3:
			return tetragl.Vec3Value(mgl32.Vec3{floats[0], floats[1], floats[2]}), true
		case 4:
			return tetragl.Vec4Value(mgl32.Vec4{floats[0], floats[1], floats[2], floats[3]}), true
		}
	}

	return tetragl.UniformValue{}, false

}

func vec3(values []float32) (mgl32.Vec3, bool) {
	if len(values) < 3 {
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{values[0], values[1], values[2]}, true
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// resolvePath joins name onto dir unless name is absolute.
func resolvePath(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}
