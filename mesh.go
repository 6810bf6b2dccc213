package tetragl

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Keys understood in MeshData.
const (
	MeshVertices = "vertices"
	MeshColors   = "colors"
	MeshNormals  = "normals"
	MeshUV1      = "uv1"
	MeshUV2      = "uv2"
	MeshTris     = "tris"
)

var meshKeyOrder = []string{MeshVertices, MeshColors, MeshNormals, MeshUV1, MeshUV2, MeshTris}

// MeshData is raw mesh data keyed by stream name: "vertices" (3 components), "colors" (4),
// "normals" (3), "uv1" and "uv2" (2 each), and "tris" (triangle indices).
type MeshData map[string][]float32

// Dimensions represents the minimum and maximum spatial dimensions of a Mesh.
type Dimensions [2]mgl32.Vec3

// Max returns the largest extent out of the width, height, and depth.
func (dim Dimensions) Max() float32 {
	return float32(math.Max(math.Max(float64(dim.Width()), float64(dim.Height())), float64(dim.Depth())))
}

// Center returns the center point inbetween the two corners of the dimension set.
func (dim Dimensions) Center() mgl32.Vec3 {
	return dim[0].Add(dim[1]).Mul(0.5)
}

func (dim Dimensions) Width() float32 {
	return dim[1][0] - dim[0][0]
}

func (dim Dimensions) Height() float32 {
	return dim[1][1] - dim[0][1]
}

func (dim Dimensions) Depth() float32 {
	return dim[1][2] - dim[0][2]
}

// Mesh is a Geometry built from MeshData, keeping track of its position and normal arrays.
type Mesh struct {
	*Geometry
	Positions  *VertexArray
	Normals    *VertexArray
	HasUV1     bool
	Dimensions Dimensions
}

// NewMesh builds a Mesh from data. Empty normal and uv1 streams are filled with zeroes; other
// empty streams are skipped. Unknown keys are logged and ignored.
func NewMesh(data MeshData, logger *zap.Logger) *Mesh {

	if logger == nil {
		logger = zap.NewNop()
	}

	mesh := &Mesh{Geometry: NewGeometry()}

	for _, key := range meshKeyOrder {

		values, exists := data[key]
		if !exists {
			continue
		}

		switch key {
		case MeshVertices:
			mesh.Positions = mesh.AddArray(AttributePosition, values, 3)
		case MeshColors:
			if len(values) > 0 {
				mesh.AddArray(AttributeColor, values, 4)
			}
		case MeshNormals:
			if len(values) == 0 {
				values = make([]float32, mesh.Size*3)
			}
			mesh.Normals = mesh.AddArray(AttributeNormal, values, 3)
		case MeshUV1:
			if len(values) == 0 {
				values = make([]float32, mesh.Size*2)
			}
			mesh.AddArray(AttributeTexCoord, values, 2)
			mesh.HasUV1 = true
		case MeshUV2:
			if len(values) > 0 {
				mesh.AddArray(AttributeTexCoord2, values, 2)
			}
		case MeshTris:
			if len(values) > 0 {
				indices := make([]uint32, len(values))
				for i, v := range values {
					indices[i] = uint32(v)
				}
				mesh.AddElements(indices)
			}
		}

	}

	unknown := []string{}
	for key := range data {
		known := false
		for _, k := range meshKeyOrder {
			if k == key {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		logger.Warn("unknown mesh attribute", zap.String("attribute", key))
	}

	mesh.UpdateDimensions()

	return mesh

}

// UpdateDimensions recalculates the Mesh's bounding box from its positions.
func (mesh *Mesh) UpdateDimensions() {

	if mesh.Positions == nil || len(mesh.Positions.Data) < 3 {
		mesh.Dimensions = Dimensions{}
		return
	}

	data := mesh.Positions.Data
	lo := mgl32.Vec3{data[0], data[1], data[2]}
	hi := lo

	for i := 3; i+2 < len(data); i += 3 {
		for axis := 0; axis < 3; axis++ {
			v := data[i+axis]
			if v < lo[axis] {
				lo[axis] = v
			}
			if v > hi[axis] {
				hi[axis] = v
			}
		}
	}

	mesh.Dimensions = Dimensions{lo, hi}

}

// Flip turns the Mesh inside out by swapping the Y and Z coordinate of every vertex and negating
// every normal. It returns the Mesh.
func (mesh *Mesh) Flip() *Mesh {

	if mesh.Positions != nil {
		src := mesh.Positions.Data
		flipped := make([]float32, len(src))
		for i := 0; i+2 < len(src); i += 3 {
			flipped[i] = src[i]
			flipped[i+1] = src[i+2]
			flipped[i+2] = src[i+1]
		}
		mesh.ReplaceArray(mesh.Positions, flipped)
	}

	if mesh.Normals != nil {
		src := mesh.Normals.Data
		flipped := make([]float32, len(src))
		for i, v := range src {
			flipped[i] = -v
		}
		mesh.ReplaceArray(mesh.Normals, flipped)
	}

	mesh.UpdateDimensions()

	return mesh

}
