package tetragl

import (
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/solarlune/tetragl/gpu"
)

// DrawContext is what a Shader gets to work with while a node is being drawn.
type DrawContext struct {
	GPU       gpu.Context
	Binder    *UniformBinder
	Clock     *Clock
	Camera    *Node
	Lightmaps []UniformSource // Lightmap textures, indexed by Node.LightmapIndex
	Logger    *zap.Logger
}

// DrawMode is the primitive topology a Shader draws with. The zero value draws triangle lists.
type DrawMode int

const (
	DrawTriangles DrawMode = iota
	DrawTriangleStrip
	DrawTriangleFan
	DrawLines
	DrawLineStrip
	DrawLineLoop
	DrawPoints
)

// GPU returns the gpu.DrawMode for the topology. Unknown values draw triangles.
func (mode DrawMode) GPU() gpu.DrawMode {
	switch mode {
	case DrawTriangleStrip:
		return gpu.TriangleStrip
	case DrawTriangleFan:
		return gpu.TriangleFan
	case DrawLines:
		return gpu.Lines
	case DrawLineStrip:
		return gpu.LineStrip
	case DrawLineLoop:
		return gpu.LineLoop
	case DrawPoints:
		return gpu.Points
	}
	return gpu.Triangles
}

// SetupFunc is a custom setup step for a Shader, run after its uniforms are bound.
type SetupFunc func(ctx *DrawContext, program *Program, node *Node)

// Shader describes how a node is drawn: the GLSL sources of a program, the uniform values to bind
// into it, and per-draw pipeline overrides. Shaders sharing a Name share a compiled program.
type Shader struct {
	Name           string
	VertexSource   string
	FragmentSource string
	Meta           ShaderMeta

	// Uniforms are bound on every draw.
	Uniforms *UniformSet
	// Static uniforms are bound once into the program, then again only when this Shader is
	// cloned or another Shader uses the same program. Sampler uniforms found here are bound on
	// every draw once their texture is available, since texture units are shared between programs.
	Static *UniformSet

	OnSetup SetupFunc

	CullFace gpu.Face // Face to cull; 0 culls back faces
	DrawMode DrawMode // Primitive topology; the zero value draws triangles

	TextureTile   mgl32.Vec2
	TextureOffset mgl32.Vec2

	reloadStatic bool
}

// NewShader returns a Shader drawing triangles from the given vertex and fragment sources.
func NewShader(name, vertexSource, fragmentSource string) *Shader {
	return &Shader{
		Name:           name,
		VertexSource:   vertexSource,
		FragmentSource: fragmentSource,
		Uniforms:       NewUniformSet(),
		Static:         NewUniformSet(),
		TextureTile:    mgl32.Vec2{1, 1},
		reloadStatic:   true,
	}
}

var shaderCloneID uint64

// Clone returns a copy of the Shader with a new unique name, so it gets a program of its own.
// Uniform sets are copied; the values they hold, like textures, are shared.
func (shader *Shader) Clone() *Shader {
	clone := *shader
	clone.Name = shader.Name + "#" + strconv.FormatUint(atomic.AddUint64(&shaderCloneID, 1), 10)
	clone.Meta = shader.Meta.Clone()
	clone.Uniforms = shader.Uniforms.Clone()
	clone.Static = shader.Static.Clone()
	clone.reloadStatic = true
	return &clone
}

// Set stores a per-draw uniform value and returns the Shader so calls can be chained.
func (shader *Shader) Set(name string, value UniformValue) *Shader {
	if shader.Uniforms == nil {
		shader.Uniforms = NewUniformSet()
	}
	shader.Uniforms.Set(name, value)
	return shader
}

// SetStatic stores a static uniform value and returns the Shader so calls can be chained.
func (shader *Shader) SetStatic(name string, value UniformValue) *Shader {
	if shader.Static == nil {
		shader.Static = NewUniformSet()
	}
	shader.Static.Set(name, value)
	shader.reloadStatic = true
	return shader
}

// ReloadStatic makes the next draw bind the static uniforms again.
func (shader *Shader) ReloadStatic() {
	shader.reloadStatic = true
}

// lookupUniform returns the value stored for a declared uniform. Arrays are reported as "name[0]",
// so a value stored under the bare "name" is found as well.
func lookupUniform(set *UniformSet, name string) (UniformValue, bool) {
	if value, ok := set.Get(name); ok {
		return value, true
	}
	if base, ok := strings.CutSuffix(name, "[0]"); ok {
		return set.Get(base)
	}
	return UniformValue{}, false
}

// Setup binds the Shader's uniforms into program for drawing node: uTime, then for every uniform
// the program declares the per-draw value if there is one, else the static value. OnSetup runs
// last.
func (shader *Shader) Setup(ctx *DrawContext, program *Program, node *Node) {

	binder := ctx.Binder

	reload := shader.reloadStatic || program.staticOwner != shader
	program.staticOwner = shader

	if ctx.Clock != nil {
		binder.SetValue(program, "uTime", FloatValue(ctx.Clock.Time()))
	}

	for _, name := range program.UniformNames {

		if value, ok := lookupUniform(shader.Uniforms, name); ok {
			binder.SetValue(program, name, value)
			continue
		}

		value, ok := lookupUniform(shader.Static, name)
		if !ok {
			continue
		}

		if reload || program.Uniforms[name].Type.IsSampler() {
			binder.SetValue(program, name, value)
		}

	}

	shader.reloadStatic = false

	if shader.OnSetup != nil {
		shader.OnSetup(ctx, program, node)
	}

}
