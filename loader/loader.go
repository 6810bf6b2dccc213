// Package loader builds tetragl scenes from files: scene description documents (YAML or JSON)
// and glTF 2.0 files.
package loader

import (
	"go.uber.org/zap"

	"github.com/solarlune/tetragl"
)

// Options controls how a file is loaded. Passing nil to a loader uses DefaultOptions.
type Options struct {
	Logger *zap.Logger
	// Library provides the shaders materials are drawn with. A library holding the builtin
	// shaders is made if nil.
	Library *tetragl.ShaderLibrary
	// TextureOptions are used for every texture the file refers to.
	TextureOptions *tetragl.TextureOptions
	// TexturePath is prepended to texture file names. If empty, scene documents use their own
	// "path" field and glTF files use the directory they were loaded from.
	TexturePath string
	// Aspect ratio of loaded perspective cameras. If zero, the file's own aspect ratio (or 1) is
	// used.
	Aspect float32
}

// DefaultOptions returns a set of Options with a builtin shader library and the default texture
// options.
func DefaultOptions() *Options {
	return &Options{
		Logger:         zap.NewNop(),
		TextureOptions: tetragl.DefaultTextureOptions(),
	}
}

func (options *Options) normalize() *Options {

	if options == nil {
		options = DefaultOptions()
	}

	normalized := *options

	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	if normalized.Library == nil {
		normalized.Library = tetragl.NewShaderLibrary(normalized.Logger)
	}
	if normalized.TextureOptions == nil {
		normalized.TextureOptions = tetragl.DefaultTextureOptions()
	}
	if normalized.TextureOptions.Logger == nil {
		textureOptions := *normalized.TextureOptions
		textureOptions.Logger = normalized.Logger
		normalized.TextureOptions = &textureOptions
	}

	return &normalized

}

// Result is a loaded scene, along with what the file said about how to view it.
type Result struct {
	Scene *tetragl.Scene
	// Camera is the node to view the scene from, or nil. Scene documents use the last transform
	// with a camera, glTF files the first camera node.
	Camera     *tetragl.Node
	Cameras    []*tetragl.Node
	ClearColor tetragl.Color
	// HasClearColor is true if the file set a background color.
	HasClearColor bool

	Textures map[string]*tetragl.Texture
	Shaders  map[string]*tetragl.Shader
}

func newResult() *Result {
	return &Result{
		Scene:    tetragl.NewScene(),
		Cameras:  []*tetragl.Node{},
		Textures: map[string]*tetragl.Texture{},
		Shaders:  map[string]*tetragl.Shader{},
	}
}

// Apply makes engine draw the loaded scene from the loaded camera, clearing to the loaded
// background color if there was one.
func (result *Result) Apply(engine *tetragl.Engine) {
	engine.Scene = result.Scene
	if result.Camera != nil {
		engine.Camera = result.Camera
	}
	if result.HasClearColor {
		engine.SetClearColor(result.ClearColor)
	}
}
