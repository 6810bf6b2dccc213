package tetragl

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/solarlune/tetragl/gpu"
)

// UniformBinder writes uniform values, textures, vertex attributes and lights into linked programs.
// It only touches what a program actually declares; anything else is silently skipped.
type UniformBinder struct {
	GPU       gpu.Context
	Logger    *zap.Logger
	MaxLights int // Number of uLight slots written by SetLights
}

// NewUniformBinder returns a UniformBinder writing through ctx. A nil logger discards warnings.
func NewUniformBinder(ctx gpu.Context, logger *zap.Logger) *UniformBinder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UniformBinder{
		GPU:       ctx,
		Logger:    logger,
		MaxLights: MaxLights,
	}
}

// SetUniform binds the value stored under name in set to the same-named uniform of program.
// Nothing happens if the program doesn't declare the uniform or the set has no such value.
func (binder *UniformBinder) SetUniform(name string, program *Program, set *UniformSet) {
	if program == nil {
		return
	}
	info := program.Uniform(name)
	if info == nil {
		return
	}
	value, ok := set.Get(name)
	if !ok {
		return
	}
	binder.bind(info, program, value)
}

// SetValue binds value to the named uniform of program, if the program declares it.
func (binder *UniformBinder) SetValue(program *Program, name string, value UniformValue) {
	if program == nil {
		return
	}
	if info := program.Uniform(name); info != nil {
		binder.bind(info, program, value)
	}
}

func (binder *UniformBinder) bind(info *UniformInfo, program *Program, value UniformValue) {

	// Textures upload on first use, which binds them to the active unit.
	if info.Type.IsSampler() && info.Unit >= 0 {
		binder.GPU.ActiveTexture(gpu.Texture0 + uint32(info.Unit))
	}

	value, ok := value.Resolve(binder.GPU, info.Type)
	if !ok {
		return
	}

	loc := info.Location

	switch info.Type {

	case gpu.Byte, gpu.UnsignedByte, gpu.Short, gpu.UnsignedShort, gpu.Int, gpu.UnsignedInt, gpu.Bool:
		if ints, ok := binder.intComponents(info, value, 1); ok {
			binder.GPU.Uniform1i(loc, ints[0])
		}

	case gpu.IntVec2, gpu.BoolVec2:
		if ints, ok := binder.intComponents(info, value, 2); ok {
			binder.GPU.Uniform2iv(loc, ints)
		}
	case gpu.IntVec3, gpu.BoolVec3:
		if ints, ok := binder.intComponents(info, value, 3); ok {
			binder.GPU.Uniform3iv(loc, ints)
		}
	case gpu.IntVec4, gpu.BoolVec4:
		if ints, ok := binder.intComponents(info, value, 4); ok {
			binder.GPU.Uniform4iv(loc, ints)
		}

	case gpu.Float:
		if floats, ok := binder.floatComponents(info, value, 1); ok {
			binder.GPU.Uniform1f(loc, floats[0])
		}
	case gpu.FloatVec2:
		if floats, ok := binder.floatComponents(info, value, 2); ok {
			binder.GPU.Uniform2fv(loc, floats)
		}
	case gpu.FloatVec3:
		if floats, ok := binder.floatComponents(info, value, 3); ok {
			binder.GPU.Uniform3fv(loc, floats)
		}
	case gpu.FloatVec4:
		if floats, ok := binder.floatComponents(info, value, 4); ok {
			binder.GPU.Uniform4fv(loc, floats)
		}

	case gpu.FloatMat2:
		if floats, ok := binder.floatComponents(info, value, 4); ok {
			binder.GPU.UniformMatrix2fv(loc, floats)
		}
	case gpu.FloatMat3:
		if floats, ok := binder.floatComponents(info, value, 9); ok {
			binder.GPU.UniformMatrix3fv(loc, floats)
		}
	case gpu.FloatMat4:
		if floats, ok := binder.floatComponents(info, value, 16); ok {
			binder.GPU.UniformMatrix4fv(loc, floats)
		}

	case gpu.Sampler2D:
		if value.Kind() != UniformTexture {
			binder.mismatch(info, value)
			return
		}
		binder.SetTexture(program, info.Unit, info.Name, value.Texture())

	case gpu.SamplerCube:
		if value.Kind() != UniformCubeTexture {
			binder.mismatch(info, value)
			return
		}
		binder.SetTextureCube(program, info.Unit, info.Name, value.Texture())

	default:
		binder.Logger.Warn("unknown uniform type",
			zap.String("program", program.Name),
			zap.String("uniform", info.Name),
			zap.String("type", fmt.Sprintf("%#x", uint32(info.Type))),
		)

	}

}

func (binder *UniformBinder) intComponents(info *UniformInfo, value UniformValue, count int) ([]int32, bool) {
	switch value.Kind() {
	case UniformInt, UniformBool, UniformIVec2, UniformIVec3, UniformIVec4:
		if len(value.Ints()) >= count {
			return value.Ints()[:count], true
		}
	}
	binder.mismatch(info, value)
	return nil, false
}

func (binder *UniformBinder) floatComponents(info *UniformInfo, value UniformValue, count int) ([]float32, bool) {
	switch value.Kind() {
	case UniformFloat, UniformVec2, UniformVec3, UniformVec4, UniformMat2, UniformMat3, UniformMat4:
		if len(value.Floats()) >= count {
			return value.Floats()[:count], true
		}
	}
	binder.mismatch(info, value)
	return nil, false
}

func (binder *UniformBinder) mismatch(info *UniformInfo, value UniformValue) {
	binder.Logger.Warn("uniform value doesn't match the declared type",
		zap.String("uniform", info.Name),
		zap.String("type", fmt.Sprintf("%#x", uint32(info.Type))),
		zap.Stringer("value", value.Kind()),
	)
}

// SetTexture binds a 2D texture to texture unit unit and points the named sampler at it.
func (binder *UniformBinder) SetTexture(program *Program, unit int, name string, texture gpu.Texture) {
	binder.setTexture(program, unit, name, gpu.Texture2D, texture)
}

// SetTextureCube binds a cube map to texture unit unit and points the named sampler at it.
func (binder *UniformBinder) SetTextureCube(program *Program, unit int, name string, texture gpu.Texture) {
	binder.setTexture(program, unit, name, gpu.TextureCubeMap, texture)
}

func (binder *UniformBinder) setTexture(program *Program, unit int, name string, target gpu.TextureTarget, texture gpu.Texture) {
	info := program.Uniform(name)
	if info == nil || unit < 0 {
		return
	}
	binder.GPU.ActiveTexture(gpu.Texture0 + uint32(unit))
	binder.GPU.BindTexture(target, texture)
	binder.GPU.Uniform1i(info.Location, int32(unit))
}

// SetAttributes uploads geometry's pending vertex data and points every attribute the program
// declares at the same-named array. Arrays the program doesn't use are skipped.
func (binder *UniformBinder) SetAttributes(program *Program, geometry *Geometry) {

	if program == nil || geometry == nil {
		return
	}

	geometry.Upload(binder.GPU)

	for _, array := range geometry.Arrays() {
		index, ok := program.Attributes[array.Name]
		if !ok {
			continue
		}
		binder.GPU.BindBuffer(gpu.ArrayBuffer, array.buffer)
		binder.GPU.VertexAttribPointer(index, int32(array.ItemSize), gpu.TypeFloat, false, 0, 0)
	}

}

// SetLights writes up to MaxLights lights into the program's uLight array. Slots without a light
// get the type LightNone; lights beyond the last slot are ignored. Programs without a light array
// are left untouched.
func (binder *UniformBinder) SetLights(program *Program, lights []*Node) {

	if program == nil {
		return
	}

	for i := 0; i < binder.MaxLights; i++ {

		prefix := fmt.Sprintf("uLight[%d].", i)

		typeInfo := program.Uniform(prefix + "type")
		if typeInfo == nil {
			continue
		}

		if i >= len(lights) || lights[i] == nil || lights[i].Light == nil {
			binder.GPU.Uniform1i(typeInfo.Location, int32(LightNone))
			continue
		}

		node := lights[i]
		light := node.Light

		binder.GPU.Uniform1i(typeInfo.Location, int32(light.Type))

		if info := program.Uniform(prefix + "direction"); info != nil {
			binder.GPU.Uniform3fv(info.Location, light.Direction[:])
		}
		if info := program.Uniform(prefix + "color"); info != nil {
			rgb := light.Color.RGB()
			binder.GPU.Uniform3fv(info.Location, rgb[:])
		}
		if info := program.Uniform(prefix + "position"); info != nil {
			binder.GPU.Uniform3fv(info.Location, node.WorldPosition[:])
		}
		if info := program.Uniform(prefix + "intensity"); info != nil {
			binder.GPU.Uniform1f(info.Location, light.Intensity)
		}

	}

}
