// Package gputest provides a gpu.Context that records every call instead of talking to a driver.
// Compilation, linking and program introspection are simulated by scanning the GLSL source for
// uniform and vertex input declarations, which is enough to drive the renderer in tests.
package gputest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/solarlune/tetragl/gpu"
)

// FailMarker makes a shader fail to compile when it appears anywhere in its source.
const FailMarker = "#error"

// Draw is a recorded draw call along with the pipeline state it was issued under.
type Draw struct {
	Program   gpu.Program
	Mode      gpu.DrawMode
	Count     int32
	First     int32
	Indexed   bool
	Blend     bool
	BlendSrc  gpu.BlendFactor
	BlendDst  gpu.BlendFactor
	DepthTest bool
	DepthMask bool
	CullFace  gpu.Face
	Textures  map[uint32]gpu.Texture // Texture unit index to bound texture
}

// UniformWrite is the last value written to a uniform.
type UniformWrite struct {
	Ints   []int32
	Floats []float32
	Count  int // How many times the uniform has been written
}

type shaderObject struct {
	stage    gpu.ShaderStage
	source   string
	compiled bool
	log      string
}

type programObject struct {
	shaders    []gpu.Shader
	linked     bool
	log        string
	uniforms   []gpu.ActiveInfo
	attributes []gpu.ActiveInfo
	locations  map[string]gpu.Location
	attribs    map[string]int32
	values     map[string]*UniformWrite
}

type textureObject struct {
	width, height int32
	parameters    map[gpu.TextureParameter]int32
	mipmapped     bool
	uploads       int
}

// Recorder is an in-memory gpu.Context. The zero value is not usable; create one with NewRecorder.
type Recorder struct {
	Calls []string // Every state changing call, formatted as "Name(args)"
	Draws []Draw

	Compiles int // Number of CompileShader calls
	Links    int // Number of LinkProgram calls
	Clears   int

	Blend      bool
	BlendSrc   gpu.BlendFactor
	BlendDst   gpu.BlendFactor
	DepthTest  bool
	DepthWrite bool
	CullTest   bool
	Cull       gpu.Face
	Winding    gpu.Winding
	ClearRGBA  [4]float32
	ViewportXY [4]int32

	nextID       uint32
	nextLocation gpu.Location
	current      gpu.Program
	activeUnit   uint32

	shaders   map[gpu.Shader]*shaderObject
	programs  map[gpu.Program]*programObject
	locations map[gpu.Location]string

	buffers       map[gpu.Buffer]int // Buffer to element count
	boundBuffers  map[gpu.BufferTarget]gpu.Buffer
	vertexStreams map[uint32]gpu.Buffer
	enabledArrays map[uint32]bool

	textures     map[gpu.Texture]*textureObject
	unitBindings map[uint32]gpu.Texture
	boundTexture map[gpu.TextureTarget]gpu.Texture
}

// NewRecorder returns a Recorder with the default GL state: depth writes on, back face culling,
// counter-clockwise front faces, and blending factors ONE, ZERO.
func NewRecorder() *Recorder {
	return &Recorder{
		BlendSrc:   gpu.One,
		BlendDst:   gpu.Zero,
		DepthWrite: true,
		Cull:       gpu.Back,
		Winding:    gpu.CCW,

		shaders:   map[gpu.Shader]*shaderObject{},
		programs:  map[gpu.Program]*programObject{},
		locations: map[gpu.Location]string{},

		buffers:       map[gpu.Buffer]int{},
		boundBuffers:  map[gpu.BufferTarget]gpu.Buffer{},
		vertexStreams: map[uint32]gpu.Buffer{},
		enabledArrays: map[uint32]bool{},

		textures:     map[gpu.Texture]*textureObject{},
		unitBindings: map[uint32]gpu.Texture{},
		boundTexture: map[gpu.TextureTarget]gpu.Texture{},
	}
}

var _ gpu.Context = (*Recorder)(nil)

func (rec *Recorder) id() uint32 {
	rec.nextID++
	return rec.nextID
}

func (rec *Recorder) record(format string, args ...interface{}) {
	rec.Calls = append(rec.Calls, fmt.Sprintf(format, args...))
}

func (rec *Recorder) CreateShader(stage gpu.ShaderStage) gpu.Shader {
	shader := gpu.Shader(rec.id())
	rec.shaders[shader] = &shaderObject{stage: stage}
	return shader
}

func (rec *Recorder) ShaderSource(shader gpu.Shader, source string) {
	if obj, ok := rec.shaders[shader]; ok {
		obj.source = source
	}
}

func (rec *Recorder) CompileShader(shader gpu.Shader) {
	rec.Compiles++
	obj, ok := rec.shaders[shader]
	if !ok {
		return
	}
	if strings.Contains(obj.source, FailMarker) {
		obj.compiled = false
		obj.log = "ERROR: 0:1: '" + FailMarker + "' : user defined error"
		return
	}
	obj.compiled = true
	obj.log = ""
}

func (rec *Recorder) ShaderCompiled(shader gpu.Shader) bool {
	obj, ok := rec.shaders[shader]
	return ok && obj.compiled
}

func (rec *Recorder) ShaderInfoLog(shader gpu.Shader) string {
	if obj, ok := rec.shaders[shader]; ok {
		return obj.log
	}
	return ""
}

// ShaderSourceOf returns the full source last given to a shader object.
func (rec *Recorder) ShaderSourceOf(shader gpu.Shader) string {
	if obj, ok := rec.shaders[shader]; ok {
		return obj.source
	}
	return ""
}

// ProgramSource returns the source of the shader attached to program for the given stage.
func (rec *Recorder) ProgramSource(program gpu.Program, stage gpu.ShaderStage) string {
	prog, ok := rec.programs[program]
	if !ok {
		return ""
	}
	for _, shader := range prog.shaders {
		if obj := rec.shaders[shader]; obj != nil && obj.stage == stage {
			return obj.source
		}
	}
	return ""
}

func (rec *Recorder) CreateProgram() gpu.Program {
	program := gpu.Program(rec.id())
	rec.programs[program] = &programObject{
		locations: map[string]gpu.Location{},
		attribs:   map[string]int32{},
		values:    map[string]*UniformWrite{},
	}
	return program
}

func (rec *Recorder) AttachShader(program gpu.Program, shader gpu.Shader) {
	if prog, ok := rec.programs[program]; ok {
		prog.shaders = append(prog.shaders, shader)
	}
}

func (rec *Recorder) LinkProgram(program gpu.Program) {
	rec.Links++
	prog, ok := rec.programs[program]
	if !ok {
		return
	}

	prog.linked = false
	prog.uniforms = nil
	prog.attributes = nil

	var vertex, fragment *shaderObject
	for _, shader := range prog.shaders {
		obj := rec.shaders[shader]
		if obj == nil {
			continue
		}
		switch obj.stage {
		case gpu.VertexShader:
			vertex = obj
		case gpu.FragmentShader:
			fragment = obj
		}
	}

	if vertex == nil || fragment == nil {
		prog.log = "error: program needs both a vertex and a fragment shader"
		return
	}
	if !vertex.compiled || !fragment.compiled {
		prog.log = "error: attached shaders did not compile"
		return
	}

	prog.linked = true
	prog.log = ""

	seen := map[string]bool{}
	for _, src := range []string{vertex.source, fragment.source} {
		for _, info := range parseUniforms(src) {
			if seen[info.Name] {
				continue
			}
			seen[info.Name] = true
			prog.uniforms = append(prog.uniforms, info)
			loc := rec.nextLocation
			rec.nextLocation++
			prog.locations[info.Name] = loc
			rec.locations[loc] = info.Name
		}
	}

	for i, info := range parseAttributes(vertex.source) {
		prog.attributes = append(prog.attributes, info)
		prog.attribs[info.Name] = int32(i)
	}
}

func (rec *Recorder) ProgramLinked(program gpu.Program) bool {
	prog, ok := rec.programs[program]
	return ok && prog.linked
}

func (rec *Recorder) ProgramInfoLog(program gpu.Program) string {
	if prog, ok := rec.programs[program]; ok {
		return prog.log
	}
	return ""
}

func (rec *Recorder) UseProgram(program gpu.Program) {
	rec.current = program
	rec.record("UseProgram(%d)", program)
}

// CurrentProgram returns the program last passed to UseProgram.
func (rec *Recorder) CurrentProgram() gpu.Program { return rec.current }

func (rec *Recorder) ActiveUniforms(program gpu.Program) []gpu.ActiveInfo {
	if prog, ok := rec.programs[program]; ok {
		return append([]gpu.ActiveInfo(nil), prog.uniforms...)
	}
	return nil
}

func (rec *Recorder) ActiveAttributes(program gpu.Program) []gpu.ActiveInfo {
	if prog, ok := rec.programs[program]; ok {
		return append([]gpu.ActiveInfo(nil), prog.attributes...)
	}
	return nil
}

func (rec *Recorder) UniformLocation(program gpu.Program, name string) gpu.Location {
	prog, ok := rec.programs[program]
	if !ok {
		return gpu.NoLocation
	}
	if loc, ok := prog.locations[name]; ok {
		return loc
	}
	// GL accepts the array base name for element 0.
	if loc, ok := prog.locations[name+"[0]"]; ok {
		return loc
	}
	return gpu.NoLocation
}

func (rec *Recorder) AttribLocation(program gpu.Program, name string) int32 {
	if prog, ok := rec.programs[program]; ok {
		if index, ok := prog.attribs[name]; ok {
			return index
		}
	}
	return -1
}

func (rec *Recorder) EnableVertexAttribArray(index uint32) {
	rec.enabledArrays[index] = true
}

// ArrayEnabled returns whether EnableVertexAttribArray was called for the attribute index.
func (rec *Recorder) ArrayEnabled(index uint32) bool { return rec.enabledArrays[index] }

func (rec *Recorder) write(location gpu.Location, ints []int32, floats []float32) {
	if location == gpu.NoLocation {
		return
	}
	name, ok := rec.locations[location]
	if !ok {
		return
	}
	prog, ok := rec.programs[rec.current]
	if !ok {
		return
	}
	value, ok := prog.values[name]
	if !ok {
		value = &UniformWrite{}
		prog.values[name] = value
	}
	value.Ints = append([]int32(nil), ints...)
	value.Floats = append([]float32(nil), floats...)
	value.Count++
}

func (rec *Recorder) Uniform1i(location gpu.Location, v int32) {
	rec.write(location, []int32{v}, nil)
}
func (rec *Recorder) Uniform1f(location gpu.Location, v float32) {
	rec.write(location, nil, []float32{v})
}
func (rec *Recorder) Uniform2iv(location gpu.Location, v []int32)   { rec.write(location, v, nil) }
func (rec *Recorder) Uniform3iv(location gpu.Location, v []int32)   { rec.write(location, v, nil) }
func (rec *Recorder) Uniform4iv(location gpu.Location, v []int32)   { rec.write(location, v, nil) }
func (rec *Recorder) Uniform2fv(location gpu.Location, v []float32) { rec.write(location, nil, v) }
func (rec *Recorder) Uniform3fv(location gpu.Location, v []float32) { rec.write(location, nil, v) }
func (rec *Recorder) Uniform4fv(location gpu.Location, v []float32) { rec.write(location, nil, v) }
func (rec *Recorder) UniformMatrix2fv(location gpu.Location, v []float32) {
	rec.write(location, nil, v)
}
func (rec *Recorder) UniformMatrix3fv(location gpu.Location, v []float32) {
	rec.write(location, nil, v)
}
func (rec *Recorder) UniformMatrix4fv(location gpu.Location, v []float32) {
	rec.write(location, nil, v)
}

// Uniform returns the last value written to the named uniform of program.
func (rec *Recorder) Uniform(program gpu.Program, name string) (UniformWrite, bool) {
	prog, ok := rec.programs[program]
	if !ok {
		return UniformWrite{}, false
	}
	value, ok := prog.values[name]
	if !ok {
		return UniformWrite{}, false
	}
	return *value, true
}

// Written returns whether the named uniform of program has been written at all.
func (rec *Recorder) Written(program gpu.Program, name string) bool {
	_, ok := rec.Uniform(program, name)
	return ok
}

func (rec *Recorder) CreateBuffer() gpu.Buffer {
	buffer := gpu.Buffer(rec.id())
	rec.buffers[buffer] = 0
	return buffer
}

func (rec *Recorder) BindBuffer(target gpu.BufferTarget, buffer gpu.Buffer) {
	rec.boundBuffers[target] = buffer
}

func (rec *Recorder) BufferFloat32(target gpu.BufferTarget, data []float32, usage gpu.BufferUsage) {
	rec.buffers[rec.boundBuffers[target]] = len(data)
	rec.record("BufferData(%d, %d)", rec.boundBuffers[target], len(data))
}

func (rec *Recorder) BufferUint16(target gpu.BufferTarget, data []uint16, usage gpu.BufferUsage) {
	rec.buffers[rec.boundBuffers[target]] = len(data)
	rec.record("BufferData(%d, %d)", rec.boundBuffers[target], len(data))
}

func (rec *Recorder) BufferUint32(target gpu.BufferTarget, data []uint32, usage gpu.BufferUsage) {
	rec.buffers[rec.boundBuffers[target]] = len(data)
	rec.record("BufferData(%d, %d)", rec.boundBuffers[target], len(data))
}

// BufferLen returns the element count last uploaded into buffer.
func (rec *Recorder) BufferLen(buffer gpu.Buffer) int { return rec.buffers[buffer] }

func (rec *Recorder) VertexAttribPointer(index uint32, size int32, dataType gpu.DataType, normalized bool, stride int32, offset int) {
	rec.vertexStreams[index] = rec.boundBuffers[gpu.ArrayBuffer]
	rec.record("VertexAttribPointer(%d, %d)", index, size)
}

// VertexStream returns the buffer that feeds the attribute index, and whether one was set.
func (rec *Recorder) VertexStream(index uint32) (gpu.Buffer, bool) {
	buffer, ok := rec.vertexStreams[index]
	return buffer, ok
}

func (rec *Recorder) CreateTexture() gpu.Texture {
	texture := gpu.Texture(rec.id())
	rec.textures[texture] = &textureObject{parameters: map[gpu.TextureParameter]int32{}}
	return texture
}

func (rec *Recorder) ActiveTexture(unit uint32) {
	rec.activeUnit = unit - gpu.Texture0
}

func (rec *Recorder) BindTexture(target gpu.TextureTarget, texture gpu.Texture) {
	rec.boundTexture[target] = texture
	rec.unitBindings[rec.activeUnit] = texture
	rec.record("BindTexture(%d, %d)", rec.activeUnit, texture)
}

func (rec *Recorder) uploadTarget(target gpu.TextureTarget) gpu.TextureTarget {
	if target >= gpu.TextureCubeMapPositiveX && target <= gpu.TextureCubeMapNegativeZ {
		return gpu.TextureCubeMap
	}
	return target
}

func (rec *Recorder) TexImage2D(target gpu.TextureTarget, width, height int32, rgba []byte) {
	if tex, ok := rec.textures[rec.boundTexture[rec.uploadTarget(target)]]; ok {
		tex.width, tex.height = width, height
		tex.uploads++
	}
}

func (rec *Recorder) TexParameteri(target gpu.TextureTarget, parameter gpu.TextureParameter, value int32) {
	if tex, ok := rec.textures[rec.boundTexture[target]]; ok {
		tex.parameters[parameter] = value
	}
}

func (rec *Recorder) GenerateMipmap(target gpu.TextureTarget) {
	if tex, ok := rec.textures[rec.boundTexture[target]]; ok {
		tex.mipmapped = true
	}
}

// TextureParameter returns the value last set for a sampler parameter of texture.
func (rec *Recorder) TextureParameter(texture gpu.Texture, parameter gpu.TextureParameter) int32 {
	if tex, ok := rec.textures[texture]; ok {
		return tex.parameters[parameter]
	}
	return 0
}

// TextureUploads returns how many images were uploaded into texture (each cube face counts once).
func (rec *Recorder) TextureUploads(texture gpu.Texture) int {
	if tex, ok := rec.textures[texture]; ok {
		return tex.uploads
	}
	return 0
}

// TextureMipmapped returns whether GenerateMipmap ran while texture was bound.
func (rec *Recorder) TextureMipmapped(texture gpu.Texture) bool {
	if tex, ok := rec.textures[texture]; ok {
		return tex.mipmapped
	}
	return false
}

// BoundTexture returns the texture bound to a texture unit index (0 based).
func (rec *Recorder) BoundTexture(unit uint32) gpu.Texture { return rec.unitBindings[unit] }

func (rec *Recorder) Enable(capability gpu.Capability) {
	rec.setCapability(capability, true)
	rec.record("Enable(%s)", capabilityName(capability))
}

func (rec *Recorder) Disable(capability gpu.Capability) {
	rec.setCapability(capability, false)
	rec.record("Disable(%s)", capabilityName(capability))
}

func (rec *Recorder) setCapability(capability gpu.Capability, on bool) {
	switch capability {
	case gpu.Blend:
		rec.Blend = on
	case gpu.DepthTest:
		rec.DepthTest = on
	case gpu.CullFaceTest:
		rec.CullTest = on
	}
}

func capabilityName(capability gpu.Capability) string {
	switch capability {
	case gpu.Blend:
		return "BLEND"
	case gpu.DepthTest:
		return "DEPTH_TEST"
	case gpu.CullFaceTest:
		return "CULL_FACE"
	}
	return strconv.Itoa(int(capability))
}

func (rec *Recorder) DepthMask(write bool) {
	rec.DepthWrite = write
	rec.record("DepthMask(%t)", write)
}

func (rec *Recorder) BlendFunc(src, dst gpu.BlendFactor) {
	rec.BlendSrc, rec.BlendDst = src, dst
	rec.record("BlendFunc(%#x, %#x)", uint32(src), uint32(dst))
}

func (rec *Recorder) CullFace(face gpu.Face) {
	rec.Cull = face
}

func (rec *Recorder) FrontFace(winding gpu.Winding) {
	rec.Winding = winding
}

func (rec *Recorder) Viewport(x, y, width, height int32) {
	rec.ViewportXY = [4]int32{x, y, width, height}
}

func (rec *Recorder) ClearColor(r, g, b, a float32) {
	rec.ClearRGBA = [4]float32{r, g, b, a}
}

func (rec *Recorder) Clear(mask gpu.ClearMask) {
	rec.Clears++
	rec.record("Clear(%#x)", uint32(mask))
}

func (rec *Recorder) snapshot(mode gpu.DrawMode) Draw {
	textures := make(map[uint32]gpu.Texture, len(rec.unitBindings))
	for unit, tex := range rec.unitBindings {
		textures[unit] = tex
	}
	return Draw{
		Program:   rec.current,
		Mode:      mode,
		Blend:     rec.Blend,
		BlendSrc:  rec.BlendSrc,
		BlendDst:  rec.BlendDst,
		DepthTest: rec.DepthTest,
		DepthMask: rec.DepthWrite,
		CullFace:  rec.Cull,
		Textures:  textures,
	}
}

func (rec *Recorder) DrawArrays(mode gpu.DrawMode, first, count int32) {
	draw := rec.snapshot(mode)
	draw.First = first
	draw.Count = count
	rec.Draws = append(rec.Draws, draw)
	rec.record("DrawArrays(%d, %d)", first, count)
}

func (rec *Recorder) DrawElements(mode gpu.DrawMode, count int32, dataType gpu.DataType, offset int) {
	draw := rec.snapshot(mode)
	draw.Count = count
	draw.Indexed = true
	rec.Draws = append(rec.Draws, draw)
	rec.record("DrawElements(%d)", count)
}

// Reset forgets recorded calls and draws but keeps GPU objects and state.
func (rec *Recorder) Reset() {
	rec.Calls = nil
	rec.Draws = nil
}

var (
	structPattern    = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	fieldPattern     = regexp.MustCompile(`(\w+)\s+(\w+)\s*;`)
	uniformPattern   = regexp.MustCompile(`(?m)^\s*uniform\s+(\w+)\s+(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*;`)
	attributePattern = regexp.MustCompile(`(?m)^\s*(?:layout\s*\([^)]*\)\s*)?(?:in|attribute)\s+(\w+)\s+(\w+)\s*;`)
)

var glslTypes = map[string]gpu.UniformType{
	"float":       gpu.Float,
	"vec2":        gpu.FloatVec2,
	"vec3":        gpu.FloatVec3,
	"vec4":        gpu.FloatVec4,
	"int":         gpu.Int,
	"ivec2":       gpu.IntVec2,
	"ivec3":       gpu.IntVec3,
	"ivec4":       gpu.IntVec4,
	"uint":        gpu.UnsignedInt,
	"bool":        gpu.Bool,
	"bvec2":       gpu.BoolVec2,
	"bvec3":       gpu.BoolVec3,
	"bvec4":       gpu.BoolVec4,
	"mat2":        gpu.FloatMat2,
	"mat3":        gpu.FloatMat3,
	"mat4":        gpu.FloatMat4,
	"sampler2D":   gpu.Sampler2D,
	"samplerCube": gpu.SamplerCube,
}

// parseUniforms lists the uniforms declared in src the way GL reports them: struct arrays are
// expanded to one entry per element field, plain arrays are named after their first element.
func parseUniforms(src string) []gpu.ActiveInfo {
	structs := map[string][][2]string{}
	for _, match := range structPattern.FindAllStringSubmatch(src, -1) {
		fields := [][2]string{}
		for _, field := range fieldPattern.FindAllStringSubmatch(match[2], -1) {
			fields = append(fields, [2]string{field[1], field[2]})
		}
		structs[match[1]] = fields
	}

	infos := []gpu.ActiveInfo{}
	for _, match := range uniformPattern.FindAllStringSubmatch(src, -1) {
		typeName, name := match[1], match[2]
		size := 1
		isArray := match[3] != ""
		if isArray {
			size, _ = strconv.Atoi(match[3])
		}

		if fields, ok := structs[typeName]; ok {
			for i := 0; i < size; i++ {
				prefix := name
				if isArray {
					prefix = fmt.Sprintf("%s[%d]", name, i)
				}
				for _, field := range fields {
					if t, ok := glslTypes[field[0]]; ok {
						infos = append(infos, gpu.ActiveInfo{Name: prefix + "." + field[1], Type: t, Size: 1})
					}
				}
			}
			continue
		}

		t, ok := glslTypes[typeName]
		if !ok {
			continue
		}
		if isArray {
			name += "[0]"
		}
		infos = append(infos, gpu.ActiveInfo{Name: name, Type: t, Size: int32(size)})
	}
	return infos
}

func parseAttributes(src string) []gpu.ActiveInfo {
	infos := []gpu.ActiveInfo{}
	for _, match := range attributePattern.FindAllStringSubmatch(src, -1) {
		t, ok := glslTypes[match[1]]
		if !ok {
			continue
		}
		infos = append(infos, gpu.ActiveInfo{Name: match[2], Type: t, Size: 1})
	}
	return infos
}
