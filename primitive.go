package tetragl

import "github.com/go-gl/mathgl/mgl32"

type meshBuilder struct {
	vertices, normals, uvs, tris []float32
}

// addQuad adds two triangles spanning p1..p4, sharing a flat normal, with UVs covering
// minU..maxU and minV..maxV.
func (builder *meshBuilder) addQuad(p1, p2, p3, p4 mgl32.Vec3, minU, maxU, minV, maxV float32) {

	n := p1.Sub(p2).Cross(p2.Sub(p3)).Normalize()
	p := float32(len(builder.vertices) / 3)

	for _, v := range []mgl32.Vec3{p1, p2, p3, p4} {
		builder.vertices = append(builder.vertices, v[0], v[1], v[2])
		builder.normals = append(builder.normals, n[0], n[1], n[2])
	}

	builder.uvs = append(builder.uvs, minU, maxV, maxU, maxV, maxU, minV, minU, minV)
	builder.tris = append(builder.tris, p, p+1, p+2, p, p+2, p+3)

}

func (builder *meshBuilder) mesh() *Mesh {
	return NewMesh(MeshData{
		MeshVertices: builder.vertices,
		MeshNormals:  builder.normals,
		MeshUV1:      builder.uvs,
		MeshTris:     builder.tris,
	}, nil)
}

// NewCube returns a box Mesh centered on the origin, w wide, h high and d deep.
func NewCube(w, h, d float32) *Mesh {

	w *= 0.5
	h *= 0.5
	d *= 0.5

	builder := &meshBuilder{}

	builder.addQuad(mgl32.Vec3{-w, h, d}, mgl32.Vec3{w, h, d}, mgl32.Vec3{w, -h, d}, mgl32.Vec3{-w, -h, d}, 0, 1, 0, 1)
	builder.addQuad(mgl32.Vec3{w, h, -d}, mgl32.Vec3{-w, h, -d}, mgl32.Vec3{-w, -h, -d}, mgl32.Vec3{w, -h, -d}, 0, 1, 0, 1)

	builder.addQuad(mgl32.Vec3{-w, h, -d}, mgl32.Vec3{-w, h, d}, mgl32.Vec3{-w, -h, d}, mgl32.Vec3{-w, -h, -d}, 0, 1, 0, 1)
	builder.addQuad(mgl32.Vec3{w, h, d}, mgl32.Vec3{w, h, -d}, mgl32.Vec3{w, -h, -d}, mgl32.Vec3{w, -h, d}, 0, 1, 0, 1)

	builder.addQuad(mgl32.Vec3{w, h, d}, mgl32.Vec3{-w, h, d}, mgl32.Vec3{-w, h, -d}, mgl32.Vec3{w, h, -d}, 0, 1, 0, 1)
	builder.addQuad(mgl32.Vec3{w, -h, d}, mgl32.Vec3{w, -h, -d}, mgl32.Vec3{-w, -h, -d}, mgl32.Vec3{-w, -h, d}, 0, 1, 0, 1)

	return builder.mesh()

}

// NewPlane returns a Mesh lying on the XY plane, w wide and h high, split into wd by hd quads.
func NewPlane(w, h float32, wd, hd int) *Mesh {

	if wd < 1 {
		wd = 1
	}
	if hd < 1 {
		hd = 1
	}

	w *= 0.5
	h *= 0.5

	wb := (w * 2) / float32(wd)
	hb := (h * 2) / float32(hd)

	builder := &meshBuilder{}

	for i := 0; i < wd; i++ {
		for j := 0; j < hd; j++ {

			left := -w + float32(i)*wb
			right := left + wb
			top := h - float32(j)*hb
			bottom := top - hb

			minU := float32(i) / float32(wd)
			maxU := float32(i+1) / float32(wd)
			minV := 1 - float32(j+1)/float32(hd)
			maxV := 1 - float32(j)/float32(hd)

			builder.addQuad(
				mgl32.Vec3{left, top, 0},
				mgl32.Vec3{right, top, 0},
				mgl32.Vec3{right, bottom, 0},
				mgl32.Vec3{left, bottom, 0},
				minU, maxU, minV, maxV,
			)

		}
	}

	return builder.mesh()

}

// NewFullScreenQuad returns a non-indexed Geometry of two triangles covering clip space, with
// 2D positions and texture coordinates.
func NewFullScreenQuad() *Geometry {
	geometry := NewGeometry()
	geometry.AddArray(AttributePosition, []float32{-1, 1, 1, 1, 1, -1, -1, 1, 1, -1, -1, -1}, 2)
	geometry.AddArray(AttributeTexCoord, []float32{0, 1, 1, 1, 1, 0, 0, 1, 1, 0, 0, 0}, 2)
	return geometry
}
