// Package glcore implements gpu.Context on top of an OpenGL 4.1 core profile context through
// go-gl. The caller owns the window and must make its GL context current on the calling thread
// before calling New; every method must then be called from that same thread.
package glcore

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"

	"github.com/solarlune/tetragl/gpu"
)

// Context is a gpu.Context backed by the current OpenGL context.
type Context struct {
	vao uint32
}

var _ gpu.Context = (*Context)(nil)

// New loads the GL function pointers and binds the single vertex array object that core profile
// requires for any vertex attribute setup.
func New() (*Context, error) {
	if err := gl.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize OpenGL")
	}
	ctx := &Context{}
	gl.GenVertexArrays(1, &ctx.vao)
	gl.BindVertexArray(ctx.vao)
	return ctx, nil
}

// Version returns the GL_VERSION string of the current context.
func (ctx *Context) Version() string {
	return gl.GoStr(gl.GetString(gl.VERSION))
}

func (ctx *Context) CreateShader(stage gpu.ShaderStage) gpu.Shader {
	return gpu.Shader(gl.CreateShader(uint32(stage)))
}

func (ctx *Context) ShaderSource(shader gpu.Shader, source string) {
	csource, free := gl.Strs(source + "\x00")
	defer free()
	gl.ShaderSource(uint32(shader), 1, csource, nil)
}

func (ctx *Context) CompileShader(shader gpu.Shader) {
	gl.CompileShader(uint32(shader))
}

func (ctx *Context) ShaderCompiled(shader gpu.Shader) bool {
	var success int32
	gl.GetShaderiv(uint32(shader), gl.COMPILE_STATUS, &success)
	return success != gl.FALSE
}

func (ctx *Context) ShaderInfoLog(shader gpu.Shader) string {
	var logSize int32
	gl.GetShaderiv(uint32(shader), gl.INFO_LOG_LENGTH, &logSize)
	if logSize == 0 {
		return ""
	}
	buf := make([]uint8, logSize+1)
	gl.GetShaderInfoLog(uint32(shader), int32(len(buf)), &logSize, &buf[0])
	return string(buf[:logSize])
}

func (ctx *Context) CreateProgram() gpu.Program {
	return gpu.Program(gl.CreateProgram())
}

func (ctx *Context) AttachShader(program gpu.Program, shader gpu.Shader) {
	gl.AttachShader(uint32(program), uint32(shader))
}

func (ctx *Context) LinkProgram(program gpu.Program) {
	gl.LinkProgram(uint32(program))
}

func (ctx *Context) ProgramLinked(program gpu.Program) bool {
	var isLinked int32
	gl.GetProgramiv(uint32(program), gl.LINK_STATUS, &isLinked)
	return isLinked != gl.FALSE
}

func (ctx *Context) ProgramInfoLog(program gpu.Program) string {
	var logSize int32
	gl.GetProgramiv(uint32(program), gl.INFO_LOG_LENGTH, &logSize)
	if logSize == 0 {
		return ""
	}
	buf := make([]uint8, logSize+1)
	gl.GetProgramInfoLog(uint32(program), int32(len(buf)), &logSize, &buf[0])
	return string(buf[:logSize])
}

func (ctx *Context) UseProgram(program gpu.Program) {
	gl.UseProgram(uint32(program))
}

type activeGetter func(program, index uint32, bufSize int32, length, size *int32, xtype *uint32, name *uint8)

func activeInfos(program gpu.Program, countParam, lengthParam uint32, get activeGetter) []gpu.ActiveInfo {
	var count, maxLength int32
	gl.GetProgramiv(uint32(program), countParam, &count)
	gl.GetProgramiv(uint32(program), lengthParam, &maxLength)

	infos := make([]gpu.ActiveInfo, 0, count)
	buf := make([]uint8, maxLength+1)
	for i := int32(0); i < count; i++ {
		var length, size int32
		var xtype uint32
		get(uint32(program), uint32(i), int32(len(buf)), &length, &size, &xtype, &buf[0])
		infos = append(infos, gpu.ActiveInfo{
			Name: string(buf[:length]),
			Type: gpu.UniformType(xtype),
			Size: size,
		})
	}
	return infos
}

func (ctx *Context) ActiveUniforms(program gpu.Program) []gpu.ActiveInfo {
	return activeInfos(program, gl.ACTIVE_UNIFORMS, gl.ACTIVE_UNIFORM_MAX_LENGTH, gl.GetActiveUniform)
}

func (ctx *Context) ActiveAttributes(program gpu.Program) []gpu.ActiveInfo {
	return activeInfos(program, gl.ACTIVE_ATTRIBUTES, gl.ACTIVE_ATTRIBUTE_MAX_LENGTH, gl.GetActiveAttrib)
}

func (ctx *Context) UniformLocation(program gpu.Program, name string) gpu.Location {
	return gpu.Location(gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00")))
}

func (ctx *Context) AttribLocation(program gpu.Program, name string) int32 {
	return gl.GetAttribLocation(uint32(program), gl.Str(name+"\x00"))
}

func (ctx *Context) EnableVertexAttribArray(index uint32) {
	gl.EnableVertexAttribArray(index)
}

func (ctx *Context) Uniform1i(location gpu.Location, v int32) {
	gl.Uniform1i(int32(location), v)
}

func (ctx *Context) Uniform1f(location gpu.Location, v float32) {
	gl.Uniform1f(int32(location), v)
}

func (ctx *Context) Uniform2iv(location gpu.Location, v []int32) {
	gl.Uniform2iv(int32(location), int32(len(v)/2), &v[0])
}

func (ctx *Context) Uniform3iv(location gpu.Location, v []int32) {
	gl.Uniform3iv(int32(location), int32(len(v)/3), &v[0])
}

func (ctx *Context) Uniform4iv(location gpu.Location, v []int32) {
	gl.Uniform4iv(int32(location), int32(len(v)/4), &v[0])
}

func (ctx *Context) Uniform2fv(location gpu.Location, v []float32) {
	gl.Uniform2fv(int32(location), int32(len(v)/2), &v[0])
}

func (ctx *Context) Uniform3fv(location gpu.Location, v []float32) {
	gl.Uniform3fv(int32(location), int32(len(v)/3), &v[0])
}

func (ctx *Context) Uniform4fv(location gpu.Location, v []float32) {
	gl.Uniform4fv(int32(location), int32(len(v)/4), &v[0])
}

func (ctx *Context) UniformMatrix2fv(location gpu.Location, v []float32) {
	gl.UniformMatrix2fv(int32(location), int32(len(v)/4), false, &v[0])
}

func (ctx *Context) UniformMatrix3fv(location gpu.Location, v []float32) {
	gl.UniformMatrix3fv(int32(location), int32(len(v)/9), false, &v[0])
}

func (ctx *Context) UniformMatrix4fv(location gpu.Location, v []float32) {
	gl.UniformMatrix4fv(int32(location), int32(len(v)/16), false, &v[0])
}

func (ctx *Context) CreateBuffer() gpu.Buffer {
	var buffer uint32
	gl.GenBuffers(1, &buffer)
	return gpu.Buffer(buffer)
}

func (ctx *Context) BindBuffer(target gpu.BufferTarget, buffer gpu.Buffer) {
	gl.BindBuffer(uint32(target), uint32(buffer))
}

func (ctx *Context) BufferFloat32(target gpu.BufferTarget, data []float32, usage gpu.BufferUsage) {
	if len(data) == 0 {
		gl.BufferData(uint32(target), 0, nil, uint32(usage))
		return
	}
	gl.BufferData(uint32(target), len(data)*4, gl.Ptr(data), uint32(usage))
}

func (ctx *Context) BufferUint16(target gpu.BufferTarget, data []uint16, usage gpu.BufferUsage) {
	if len(data) == 0 {
		gl.BufferData(uint32(target), 0, nil, uint32(usage))
		return
	}
	gl.BufferData(uint32(target), len(data)*2, gl.Ptr(data), uint32(usage))
}

func (ctx *Context) BufferUint32(target gpu.BufferTarget, data []uint32, usage gpu.BufferUsage) {
	if len(data) == 0 {
		gl.BufferData(uint32(target), 0, nil, uint32(usage))
		return
	}
	gl.BufferData(uint32(target), len(data)*4, gl.Ptr(data), uint32(usage))
}

func (ctx *Context) VertexAttribPointer(index uint32, size int32, dataType gpu.DataType, normalized bool, stride int32, offset int) {
	gl.VertexAttribPointer(index, size, uint32(dataType), normalized, stride, gl.PtrOffset(offset))
}

func (ctx *Context) CreateTexture() gpu.Texture {
	var texture uint32
	gl.GenTextures(1, &texture)
	return gpu.Texture(texture)
}

func (ctx *Context) ActiveTexture(unit uint32) {
	gl.ActiveTexture(unit)
}

func (ctx *Context) BindTexture(target gpu.TextureTarget, texture gpu.Texture) {
	gl.BindTexture(uint32(target), uint32(texture))
}

func (ctx *Context) TexImage2D(target gpu.TextureTarget, width, height int32, rgba []byte) {
	if len(rgba) == 0 {
		gl.TexImage2D(uint32(target), 0, gl.RGBA, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
		return
	}
	gl.TexImage2D(uint32(target), 0, gl.RGBA, width, height, 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
}

func (ctx *Context) TexParameteri(target gpu.TextureTarget, parameter gpu.TextureParameter, value int32) {
	gl.TexParameteri(uint32(target), uint32(parameter), value)
}

func (ctx *Context) GenerateMipmap(target gpu.TextureTarget) {
	gl.GenerateMipmap(uint32(target))
}

func (ctx *Context) Enable(capability gpu.Capability) {
	gl.Enable(uint32(capability))
}

func (ctx *Context) Disable(capability gpu.Capability) {
	gl.Disable(uint32(capability))
}

func (ctx *Context) DepthMask(write bool) {
	gl.DepthMask(write)
}

func (ctx *Context) BlendFunc(src, dst gpu.BlendFactor) {
	gl.BlendFunc(uint32(src), uint32(dst))
}

func (ctx *Context) CullFace(face gpu.Face) {
	gl.CullFace(uint32(face))
}

func (ctx *Context) FrontFace(winding gpu.Winding) {
	gl.FrontFace(uint32(winding))
}

func (ctx *Context) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (ctx *Context) ClearColor(r, g, b, a float32) {
	gl.ClearColor(r, g, b, a)
}

func (ctx *Context) Clear(mask gpu.ClearMask) {
	gl.Clear(uint32(mask))
}

func (ctx *Context) DrawArrays(mode gpu.DrawMode, first, count int32) {
	gl.DrawArrays(uint32(mode), first, count)
}

func (ctx *Context) DrawElements(mode gpu.DrawMode, count int32, dataType gpu.DataType, offset int) {
	gl.DrawElements(uint32(mode), count, uint32(dataType), gl.PtrOffset(offset))
}
