package tetragl

import (
	"embed"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Names of the builtin shaders.
const (
	BuiltinPhong        = "Phong"
	BuiltinGouraud      = "Gouraud"
	BuiltinLightmap     = "Lightmap"
	BuiltinSkybox       = "Skybox"
	BuiltinNormal2Color = "Normal2Color"
	BuiltinReflective   = "Reflective"
	BuiltinToon         = "Toon"
)

// Names of the builtin include snippets.
const (
	IncludeCommon = "CommonInclude"
	IncludeVertex = "VertexInclude"
	IncludeLights = "Lights"
)

//go:embed shaders/*.glsl
var builtinShaderFiles embed.FS

// ShaderLibrary holds named include snippets and named shaders. Shaders fetched from the library
// are clones, so each one can carry its own uniform values.
type ShaderLibrary struct {
	Logger   *zap.Logger
	includes map[string]string
	shaders  map[string]*Shader
}

// NewShaderLibrary returns a ShaderLibrary holding the builtin shaders and includes.
func NewShaderLibrary(logger *zap.Logger) *ShaderLibrary {

	if logger == nil {
		logger = zap.NewNop()
	}

	library := &ShaderLibrary{
		Logger:   logger,
		includes: map[string]string{},
		shaders:  map[string]*Shader{},
	}

	if err := library.loadBuiltins(); err != nil {
		logger.Error("failed to load builtin shaders", zap.Error(err))
	}

	return library

}

func (library *ShaderLibrary) loadBuiltins() error {

	entries, err := builtinShaderFiles.ReadDir("shaders")
	if err != nil {
		return errors.Wrap(err, "failed to list builtin shaders")
	}

	for _, entry := range entries {

		data, err := builtinShaderFiles.ReadFile(path.Join("shaders", entry.Name()))
		if err != nil {
			return errors.Wrapf(err, "failed to read builtin shader %s", entry.Name())
		}

		if err := library.AddSource(string(data)); err != nil {
			return errors.Wrapf(err, "failed to parse builtin shader %s", entry.Name())
		}

	}

	if phong := library.shaders[BuiltinPhong]; phong != nil {
		phong.SetStatic("color", SourceValue(ColorWhite))
		phong.SetStatic("hasColorTexture", BoolValue(false))
	}

	if gouraud := library.shaders[BuiltinGouraud]; gouraud != nil {
		gouraud.SetStatic("color", SourceValue(ColorWhite))
		gouraud.SetStatic("hasColorTexture", BoolValue(false))
	}

	if lightmap := library.shaders[BuiltinLightmap]; lightmap != nil {
		lightmap.SetStatic("color", SourceValue(ColorWhite))
		lightmap.OnSetup = setupLightmap
	}

	return nil

}

// setupLightmap binds the node's lightmap texture and its tile / offset inside the lightmap atlas.
func setupLightmap(ctx *DrawContext, program *Program, node *Node) {

	ctx.Binder.SetValue(program, "lightmapAtlas", Vec4Value(node.LightmapTileOffset))

	if !program.HasUniform("lightmapTexture") {
		return
	}

	if node.LightmapIndex < 0 || node.LightmapIndex >= len(ctx.Lightmaps) {
		ctx.Logger.Warn("node has no lightmap", zap.String("node", node.Name), zap.Int("index", node.LightmapIndex))
		return
	}

	ctx.Binder.SetValue(program, "lightmapTexture", SourceValue(ctx.Lightmaps[node.LightmapIndex]))

}

// AddSource parses source and adds it to the library: as a shader if it has stage sections, or
// else as an include snippet named by its "//#name" directive.
func (library *ShaderLibrary) AddSource(source string) error {

	if strings.Contains(source, directiveVertex) || strings.Contains(source, directiveFragment) {
		shader, err := ParseGLSL(source)
		if err != nil {
			return err
		}
		library.Add(shader)
		return nil
	}

	name, body := ParseInclude(source)
	if name == "" {
		return errors.New("include snippet has no //#name directive")
	}
	library.AddInclude(name, body)
	return nil

}

// LoadFile reads a .glsl file from disk and adds it to the library.
func (library *ShaderLibrary) LoadFile(filepath string) error {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return errors.Wrapf(err, "failed to read shader file %s", filepath)
	}
	return errors.Wrapf(library.AddSource(string(data)), "failed to load shader file %s", filepath)
}

// Add registers shader under its name, replacing any shader already registered with that name.
func (library *ShaderLibrary) Add(shader *Shader) {
	library.shaders[shader.Name] = shader
}

// AddInclude registers an include snippet.
func (library *ShaderLibrary) AddInclude(name, body string) {
	library.includes[name] = body
}

// Include returns the source of the named include snippet.
func (library *ShaderLibrary) Include(name string) (string, bool) {
	if library == nil {
		return "", false
	}
	body, ok := library.includes[name]
	return body, ok
}

// Fetch returns a clone of the named shader, or nil (logging an error) if there's no such shader.
func (library *ShaderLibrary) Fetch(name string) *Shader {
	if library == nil {
		return nil
	}
	shader, ok := library.shaders[name]
	if !ok {
		library.Logger.Error("shader doesn't exist", zap.String("shader", name))
		return nil
	}
	return shader.Clone()
}

// Has returns true if the library holds a shader called name.
func (library *ShaderLibrary) Has(name string) bool {
	_, ok := library.shaders[name]
	return ok
}

// ShaderNames returns the names of the shaders in the library, sorted.
func (library *ShaderLibrary) ShaderNames() []string {
	names := make([]string, 0, len(library.shaders))
	for name := range library.shaders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IncludeNames returns the names of the include snippets in the library, sorted.
func (library *ShaderLibrary) IncludeNames() []string {
	names := make([]string, 0, len(library.includes))
	for name := range library.includes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
