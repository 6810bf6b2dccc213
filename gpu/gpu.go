// Package gpu defines the graphics context contract that tetragl drives. It is shaped after
// the OpenGL / WebGL programmable pipeline: shader objects are compiled and linked into programs,
// programs are introspected for their active uniforms and attributes, and draw calls are issued
// against the currently bound program and buffers.
//
// A Context is passed explicitly to everything that needs GPU access; there is no global
// context. Enum values match their OpenGL counterparts so backends can pass them through.
package gpu

// Handles to GPU objects. Zero is never a valid object.
type (
	Shader  uint32
	Program uint32
	Buffer  uint32
	Texture uint32
)

// Location is a uniform location inside a linked program. -1 means the uniform isn't active.
type Location int32

// NoLocation is returned for uniforms the program doesn't declare (or optimized away).
const NoLocation Location = -1

// ShaderStage identifies the pipeline stage a shader object is compiled for.
type ShaderStage uint32

const (
	FragmentShader ShaderStage = 0x8B30
	VertexShader   ShaderStage = 0x8B31
)

func (stage ShaderStage) String() string {
	switch stage {
	case VertexShader:
		return "vertex"
	case FragmentShader:
		return "fragment"
	}
	return "unknown"
}

// UniformType is the declared type of an active uniform or attribute, as reported by the
// program introspection.
type UniformType uint32

const (
	Byte          UniformType = 0x1400
	UnsignedByte  UniformType = 0x1401
	Short         UniformType = 0x1402
	UnsignedShort UniformType = 0x1403
	Int           UniformType = 0x1404
	UnsignedInt   UniformType = 0x1405
	Float         UniformType = 0x1406
	FloatVec2     UniformType = 0x8B50
	FloatVec3     UniformType = 0x8B51
	FloatVec4     UniformType = 0x8B52
	IntVec2       UniformType = 0x8B53
	IntVec3       UniformType = 0x8B54
	IntVec4       UniformType = 0x8B55
	Bool          UniformType = 0x8B56
	BoolVec2      UniformType = 0x8B57
	BoolVec3      UniformType = 0x8B58
	BoolVec4      UniformType = 0x8B59
	FloatMat2     UniformType = 0x8B5A
	FloatMat3     UniformType = 0x8B5B
	FloatMat4     UniformType = 0x8B5C
	Sampler2D     UniformType = 0x8B5E
	SamplerCube   UniformType = 0x8B60
)

// IsSampler returns true for the texture sampler types, which need a texture unit.
func (t UniformType) IsSampler() bool {
	return t == Sampler2D || t == SamplerCube
}

// ActiveInfo describes one active uniform or attribute of a linked program.
type ActiveInfo struct {
	Name string
	Type UniformType
	Size int32 // Number of array elements; 1 for non-arrays
}

// Capability is a piece of fixed-function state toggled with Enable / Disable.
type Capability uint32

const (
	CullFaceTest Capability = 0x0B44
	DepthTest    Capability = 0x0B71
	Blend        Capability = 0x0BE2
)

// BlendFactor is a source or destination blending factor.
type BlendFactor uint32

const (
	Zero             BlendFactor = 0
	One              BlendFactor = 1
	SrcColor         BlendFactor = 0x0300
	OneMinusSrcColor BlendFactor = 0x0301
	SrcAlpha         BlendFactor = 0x0302
	OneMinusSrcAlpha BlendFactor = 0x0303
	DstAlpha         BlendFactor = 0x0304
	OneMinusDstAlpha BlendFactor = 0x0305
	DstColor         BlendFactor = 0x0306
	OneMinusDstColor BlendFactor = 0x0307
)

// Face selects front or back facing polygons for culling.
type Face uint32

const (
	Front        Face = 0x0404
	Back         Face = 0x0405
	FrontAndBack Face = 0x0408
)

// Winding is the vertex order considered front facing.
type Winding uint32

const (
	CW  Winding = 0x0900
	CCW Winding = 0x0901
)

// DrawMode is the primitive topology of a draw call.
type DrawMode uint32

const (
	Points        DrawMode = 0x0000
	Lines         DrawMode = 0x0001
	LineLoop      DrawMode = 0x0002
	LineStrip     DrawMode = 0x0003
	Triangles     DrawMode = 0x0004
	TriangleStrip DrawMode = 0x0005
	TriangleFan   DrawMode = 0x0006
)

// DataType is the component type of vertex or index data.
type DataType uint32

const (
	TypeUnsignedByte  DataType = 0x1401
	TypeUnsignedShort DataType = 0x1403
	TypeUnsignedInt   DataType = 0x1405
	TypeFloat         DataType = 0x1406
)

// BufferTarget is the binding point of a buffer object.
type BufferTarget uint32

const (
	ArrayBuffer        BufferTarget = 0x8892
	ElementArrayBuffer BufferTarget = 0x8893
)

// BufferUsage is the expected update pattern of a buffer's contents.
type BufferUsage uint32

const (
	StreamDraw  BufferUsage = 0x88E0
	StaticDraw  BufferUsage = 0x88E4
	DynamicDraw BufferUsage = 0x88E8
)

// TextureTarget is a texture binding point, or one of the cube map faces for uploads.
type TextureTarget uint32

const (
	Texture2D               TextureTarget = 0x0DE1
	TextureCubeMap          TextureTarget = 0x8513
	TextureCubeMapPositiveX TextureTarget = 0x8515
	TextureCubeMapNegativeX TextureTarget = 0x8516
	TextureCubeMapPositiveY TextureTarget = 0x8517
	TextureCubeMapNegativeY TextureTarget = 0x8518
	TextureCubeMapPositiveZ TextureTarget = 0x8519
	TextureCubeMapNegativeZ TextureTarget = 0x851A
)

// TextureParameter names a sampler parameter set with TexParameteri.
type TextureParameter uint32

const (
	TextureMagFilter TextureParameter = 0x2800
	TextureMinFilter TextureParameter = 0x2801
	TextureWrapS     TextureParameter = 0x2802
	TextureWrapT     TextureParameter = 0x2803
)

// Filter and wrap values for TexParameteri.
const (
	Nearest              int32 = 0x2600
	Linear               int32 = 0x2601
	NearestMipmapNearest int32 = 0x2700
	LinearMipmapNearest  int32 = 0x2701
	NearestMipmapLinear  int32 = 0x2702
	LinearMipmapLinear   int32 = 0x2703
	Repeat               int32 = 0x2901
	ClampToEdge          int32 = 0x812F
	MirroredRepeat       int32 = 0x8370
)

// Texture0 is the first texture unit; unit n is Texture0 + n.
const Texture0 uint32 = 0x84C0

// ClearMask selects the buffers cleared by Clear.
type ClearMask uint32

const (
	DepthBufferBit ClearMask = 0x00000100
	ColorBufferBit ClearMask = 0x00004000
)

// Context is the set of GPU operations the renderer needs. Implementations are not expected
// to be safe for concurrent use; all calls happen on the render thread.
type Context interface {
	// Shaders and programs
	CreateShader(stage ShaderStage) Shader
	ShaderSource(shader Shader, source string)
	CompileShader(shader Shader)
	ShaderCompiled(shader Shader) bool
	ShaderInfoLog(shader Shader) string
	CreateProgram() Program
	AttachShader(program Program, shader Shader)
	LinkProgram(program Program)
	ProgramLinked(program Program) bool
	ProgramInfoLog(program Program) string
	UseProgram(program Program)

	// Introspection
	ActiveUniforms(program Program) []ActiveInfo
	ActiveAttributes(program Program) []ActiveInfo
	UniformLocation(program Program, name string) Location
	AttribLocation(program Program, name string) int32
	EnableVertexAttribArray(index uint32)

	// Uniform writes against the program in use
	Uniform1i(location Location, v int32)
	Uniform1f(location Location, v float32)
	Uniform2iv(location Location, v []int32)
	Uniform3iv(location Location, v []int32)
	Uniform4iv(location Location, v []int32)
	Uniform2fv(location Location, v []float32)
	Uniform3fv(location Location, v []float32)
	Uniform4fv(location Location, v []float32)
	UniformMatrix2fv(location Location, v []float32)
	UniformMatrix3fv(location Location, v []float32)
	UniformMatrix4fv(location Location, v []float32)

	// Buffers and vertex streams
	CreateBuffer() Buffer
	BindBuffer(target BufferTarget, buffer Buffer)
	BufferFloat32(target BufferTarget, data []float32, usage BufferUsage)
	BufferUint16(target BufferTarget, data []uint16, usage BufferUsage)
	BufferUint32(target BufferTarget, data []uint32, usage BufferUsage)
	VertexAttribPointer(index uint32, size int32, dataType DataType, normalized bool, stride int32, offset int)

	// Textures
	CreateTexture() Texture
	ActiveTexture(unit uint32)
	BindTexture(target TextureTarget, texture Texture)
	TexImage2D(target TextureTarget, width, height int32, rgba []byte)
	TexParameteri(target TextureTarget, parameter TextureParameter, value int32)
	GenerateMipmap(target TextureTarget)

	// Fixed-function state
	Enable(capability Capability)
	Disable(capability Capability)
	DepthMask(write bool)
	BlendFunc(src, dst BlendFactor)
	CullFace(face Face)
	FrontFace(winding Winding)
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)

	// Drawing
	DrawArrays(mode DrawMode, first, count int32)
	DrawElements(mode DrawMode, count int32, dataType DataType, offset int)
}
