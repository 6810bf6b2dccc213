package tetragl

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/solarlune/tetragl/gpu"
)

// DefaultShaderPrelude starts every stage's source.
const DefaultShaderPrelude = "#version 410 core\n"

// UniformInfo describes one active uniform of a linked program.
type UniformInfo struct {
	Name     string
	Type     gpu.UniformType
	Size     int32
	Location gpu.Location
	Unit     int // Texture unit for samplers, -1 otherwise
}

// Program is a compiled and linked shader program, along with what introspection found in it.
type Program struct {
	Name   string
	Handle gpu.Program
	Linked bool

	Uniforms     map[string]*UniformInfo
	UniformNames []string          // Active uniforms in the order the driver reported them
	Attributes   map[string]uint32 // Active vertex attributes by name
	TextureUnits []string          // Sampler uniform name per texture unit

	staticOwner *Shader // Shader whose static uniforms were last bound into the program
}

// Uniform returns the active uniform called name, or nil if the program doesn't have it. Array
// uniforms can be looked up with or without their "[0]" suffix.
func (program *Program) Uniform(name string) *UniformInfo {
	if program == nil {
		return nil
	}
	if info, ok := program.Uniforms[name]; ok {
		return info
	}
	return nil
}

// HasUniform returns true if the program has an active uniform called name.
func (program *Program) HasUniform(name string) bool {
	return program.Uniform(name) != nil
}

// Location returns the location of the named uniform, or gpu.NoLocation.
func (program *Program) Location(name string) gpu.Location {
	if info := program.Uniform(name); info != nil {
		return info.Location
	}
	return gpu.NoLocation
}

// ShaderCache compiles and links one Program per Shader name, the first time the name is asked
// for. Compile and link failures are logged and don't stop rendering; the broken program is
// cached like any other so it isn't rebuilt every frame.
type ShaderCache struct {
	GPU     gpu.Context
	Library *ShaderLibrary // Resolves "//#include" names; may be nil
	Logger  *zap.Logger
	Prelude string

	programs map[string]*Program
	builds   int
}

// NewShaderCache returns an empty ShaderCache.
func NewShaderCache(ctx gpu.Context, library *ShaderLibrary, logger *zap.Logger) *ShaderCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShaderCache{
		GPU:      ctx,
		Library:  library,
		Logger:   logger,
		Prelude:  DefaultShaderPrelude,
		programs: map[string]*Program{},
	}
}

// Program returns the Program for shader, building it on first use. It returns nil for a nil
// shader.
func (cache *ShaderCache) Program(shader *Shader) *Program {

	if shader == nil {
		cache.Logger.Error("can't build a program without a shader")
		return nil
	}

	if program, exists := cache.programs[shader.Name]; exists {
		return program
	}

	program, err := cache.build(shader)
	if err != nil {
		cache.Logger.Error("failed to build shader program", zap.String("shader", shader.Name), zap.Error(err))
	}

	cache.programs[shader.Name] = program
	cache.builds++

	return program

}

// Has returns true if a program for the named shader has been built.
func (cache *ShaderCache) Has(name string) bool {
	_, ok := cache.programs[name]
	return ok
}

// Len returns how many programs the cache holds.
func (cache *ShaderCache) Len() int {
	return len(cache.programs)
}

// Compiles returns how many programs the cache has built.
func (cache *ShaderCache) Compiles() int {
	return cache.builds
}

// Source assembles the full source of one stage of shader: the prelude, the common section and
// includes shared by both stages, the stage's own includes, then the stage's body.
func (cache *ShaderCache) Source(shader *Shader, stage gpu.ShaderStage) string {

	var src strings.Builder

	src.WriteString(cache.Prelude)
	src.WriteString(shader.Meta.Common)
	cache.writeIncludes(&src, shader, shader.Meta.Includes)

	if stage == gpu.VertexShader {
		cache.writeIncludes(&src, shader, shader.Meta.VertexIncludes)
		src.WriteString(shader.VertexSource)
	} else {
		cache.writeIncludes(&src, shader, shader.Meta.FragmentIncludes)
		src.WriteString(shader.FragmentSource)
	}

	return src.String()

}

func (cache *ShaderCache) writeIncludes(src *strings.Builder, shader *Shader, names []string) {
	for _, name := range names {
		body, ok := cache.Library.Include(name)
		if !ok {
			cache.Logger.Warn("shader include not found", zap.String("shader", shader.Name), zap.String("include", name))
			continue
		}
		src.WriteString(body)
		src.WriteString("\n")
	}
}

// build compiles, links and introspects shader. A Program is always returned; the error reports
// the first compile or link failure.
func (cache *ShaderCache) build(shader *Shader) (*Program, error) {

	var buildErr error

	vertex, err := cache.compile(shader, gpu.VertexShader)
	if err != nil {
		buildErr = err
	}

	fragment, err := cache.compile(shader, gpu.FragmentShader)
	if err != nil && buildErr == nil {
		buildErr = err
	}

	handle := cache.GPU.CreateProgram()
	cache.GPU.AttachShader(handle, vertex)
	cache.GPU.AttachShader(handle, fragment)
	cache.GPU.LinkProgram(handle)

	program := &Program{
		Name:       shader.Name,
		Handle:     handle,
		Linked:     cache.GPU.ProgramLinked(handle),
		Uniforms:   map[string]*UniformInfo{},
		Attributes: map[string]uint32{},
	}

	if !program.Linked && buildErr == nil {
		buildErr = errors.Errorf("failed to link program: %q", cache.GPU.ProgramInfoLog(handle))
	}

	cache.GPU.UseProgram(handle)
	cache.introspect(program)

	return program, buildErr

}

func (cache *ShaderCache) compile(shader *Shader, stage gpu.ShaderStage) (gpu.Shader, error) {

	handle := cache.GPU.CreateShader(stage)
	cache.GPU.ShaderSource(handle, cache.Source(shader, stage))
	cache.GPU.CompileShader(handle)

	if !cache.GPU.ShaderCompiled(handle) {
		return handle, errors.Errorf("failed to compile %s shader: %q", stage, cache.GPU.ShaderInfoLog(handle))
	}

	return handle, nil

}

// introspect records the program's active uniforms and attributes. Samplers are given texture
// units in the order they're reported, starting from 0. Attribute arrays are enabled up front.
func (cache *ShaderCache) introspect(program *Program) {

	for _, active := range cache.GPU.ActiveUniforms(program.Handle) {

		info := &UniformInfo{
			Name:     active.Name,
			Type:     active.Type,
			Size:     active.Size,
			Location: cache.GPU.UniformLocation(program.Handle, active.Name),
			Unit:     -1,
		}

		if active.Type.IsSampler() {
			info.Unit = len(program.TextureUnits)
			program.TextureUnits = append(program.TextureUnits, active.Name)
		}

		program.Uniforms[active.Name] = info
		program.UniformNames = append(program.UniformNames, active.Name)

		// Arrays are reported as "name[0]"; make them reachable by their plain name too.
		if base := strings.TrimSuffix(active.Name, "[0]"); base != active.Name && !strings.Contains(base, "[") {
			if _, taken := program.Uniforms[base]; !taken {
				program.Uniforms[base] = info
			}
		}

	}

	for _, active := range cache.GPU.ActiveAttributes(program.Handle) {
		location := cache.GPU.AttribLocation(program.Handle, active.Name)
		if location < 0 {
			continue
		}
		program.Attributes[active.Name] = uint32(location)
		cache.GPU.EnableVertexAttribArray(uint32(location))
	}

}
