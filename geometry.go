package tetragl

import (
	"math"

	"github.com/solarlune/tetragl/gpu"
)

// RenderMode selects the pass a Geometry is drawn in.
type RenderMode int

const (
	RenderOpaque RenderMode = iota
	RenderTransparent
)

// Standard vertex attribute names. A program receives an array if it declares an attribute of the
// same name.
const (
	AttributePosition  = "aVertexPosition"
	AttributeNormal    = "aVertexNormal"
	AttributeColor     = "aVertexColor"
	AttributeTexCoord  = "aTextureCoord"
	AttributeTexCoord2 = "aTextureCoord2"
)

// VertexArray is a named stream of float vertex data. Its contents are uploaded to the GPU
// the next time the owning Geometry is drawn after they change.
type VertexArray struct {
	Name     string
	Data     []float32
	ItemSize int // Components per vertex
	Usage    gpu.BufferUsage

	buffer gpu.Buffer
	dirty  bool
}

// Size returns the number of vertices in the array.
func (array *VertexArray) Size() int {
	if array.ItemSize <= 0 {
		return len(array.Data)
	}
	return len(array.Data) / array.ItemSize
}

// Buffer returns the GPU buffer holding the array, or 0 if it hasn't been uploaded yet.
func (array *VertexArray) Buffer() gpu.Buffer {
	return array.buffer
}

func (array *VertexArray) upload(ctx gpu.Context) {
	if array.buffer == 0 {
		array.buffer = ctx.CreateBuffer()
	}
	ctx.BindBuffer(gpu.ArrayBuffer, array.buffer)
	ctx.BufferFloat32(gpu.ArrayBuffer, array.Data, array.Usage)
	array.dirty = false
}

// ElementArray holds the vertex indices of an indexed Geometry.
type ElementArray struct {
	Data  []uint32
	Usage gpu.BufferUsage

	buffer   gpu.Buffer
	dataType gpu.DataType
	dirty    bool
}

// Size returns the number of indices.
func (elements *ElementArray) Size() int {
	return len(elements.Data)
}

// DataType returns the index type the elements were uploaded as: 16-bit if every index fits,
// 32-bit otherwise.
func (elements *ElementArray) DataType() gpu.DataType {
	return elements.dataType
}

func (elements *ElementArray) upload(ctx gpu.Context) {

	if elements.buffer == 0 {
		elements.buffer = ctx.CreateBuffer()
	}

	ctx.BindBuffer(gpu.ElementArrayBuffer, elements.buffer)

	wide := false
	for _, index := range elements.Data {
		if index > math.MaxUint16 {
			wide = true
			break
		}
	}

	if wide {
		elements.dataType = gpu.TypeUnsignedInt
		ctx.BufferUint32(gpu.ElementArrayBuffer, elements.Data, elements.Usage)
	} else {
		short := make([]uint16, len(elements.Data))
		for i, index := range elements.Data {
			short[i] = uint16(index)
		}
		elements.dataType = gpu.TypeUnsignedShort
		ctx.BufferUint16(gpu.ElementArrayBuffer, short, elements.Usage)
	}

	elements.dirty = false

}

// Geometry is a set of vertex arrays, optionally indexed, along with how it blends.
type Geometry struct {
	RenderMode RenderMode
	Elements   *ElementArray
	Size       int // Vertex count of the last array added; used by non-indexed draws

	srcFactor, dstFactor gpu.BlendFactor
	blendSet             bool

	arrays []*VertexArray
}

// NewGeometry returns an empty, opaque Geometry.
func NewGeometry() *Geometry {
	return &Geometry{arrays: []*VertexArray{}}
}

// SetTransparency moves the Geometry into the transparent pass, or back into the opaque pass. Going
// back to opaque forgets any blend factors.
func (geometry *Geometry) SetTransparency(transparent bool) {
	if transparent {
		geometry.RenderMode = RenderTransparent
		return
	}
	geometry.RenderMode = RenderOpaque
	geometry.blendSet = false
}

// SetBlendFunc makes the Geometry transparent and sets the factors it blends with.
func (geometry *Geometry) SetBlendFunc(src, dst gpu.BlendFactor) {
	geometry.RenderMode = RenderTransparent
	geometry.srcFactor = src
	geometry.dstFactor = dst
	geometry.blendSet = true
}

// BlendFunc returns the blend factors set with SetBlendFunc, or SRC_ALPHA, ONE if none were set.
func (geometry *Geometry) BlendFunc() (src, dst gpu.BlendFactor) {
	if !geometry.blendSet {
		return gpu.SrcAlpha, gpu.One
	}
	return geometry.srcFactor, geometry.dstFactor
}

// AddArray adds a named vertex array with itemSize components per vertex, and sets the Geometry's
// Size to its vertex count.
func (geometry *Geometry) AddArray(name string, data []float32, itemSize int) *VertexArray {
	array := &VertexArray{
		Name:     name,
		Data:     data,
		ItemSize: itemSize,
		Usage:    gpu.StaticDraw,
		dirty:    true,
	}
	geometry.arrays = append(geometry.arrays, array)
	geometry.Size = array.Size()
	return array
}

// ReplaceArray swaps the contents of array, which is uploaded again before the next draw.
func (geometry *Geometry) ReplaceArray(array *VertexArray, data []float32) {
	array.Data = data
	array.dirty = true
}

// AddElements makes the Geometry indexed.
func (geometry *Geometry) AddElements(indices []uint32) *ElementArray {
	geometry.Elements = &ElementArray{
		Data:  indices,
		Usage: gpu.StaticDraw,
		dirty: true,
	}
	return geometry.Elements
}

// HasElements returns true for indexed Geometry.
func (geometry *Geometry) HasElements() bool {
	return geometry.Elements != nil
}

// Arrays returns the Geometry's vertex arrays in the order they were added.
func (geometry *Geometry) Arrays() []*VertexArray {
	return geometry.arrays
}

// Array returns the vertex array called name, or nil.
func (geometry *Geometry) Array(name string) *VertexArray {
	for _, array := range geometry.arrays {
		if array.Name == name {
			return array
		}
	}
	return nil
}

// Upload sends every array (and the elements) changed since the last upload to the GPU.
func (geometry *Geometry) Upload(ctx gpu.Context) {
	for _, array := range geometry.arrays {
		if array.dirty {
			array.upload(ctx)
		}
	}
	if geometry.Elements != nil && geometry.Elements.dirty {
		geometry.Elements.upload(ctx)
	}
}
