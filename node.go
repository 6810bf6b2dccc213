package tetragl

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Node is an element of the scene graph: a local position, rotation and scale, the matrices derived
// from them, and ordered children. A Node becomes something visible by carrying a Shader and a
// Geometry, a light by carrying a Light, or a point of view by carrying a Camera.
type Node struct {
	Name string
	UID  string // External identifier, used by loaders to resolve parents

	Position mgl32.Vec3
	Rotation mgl32.Vec3 // Euler angles in radians, applied in Z, X, Y order
	Scale    mgl32.Vec3

	Matrix        mgl32.Mat4 // Local transform
	WorldMatrix   mgl32.Mat4 // Parent's WorldMatrix times Matrix
	NormalMatrix  mgl32.Mat3 // Inverse transpose of the upper 3x3 of WorldMatrix
	WorldPosition mgl32.Vec3 // Only refreshed for lights and cameras
	InverseMatrix mgl32.Mat4 // Inverse of WorldMatrix; only refreshed for cameras

	// Disabled nodes aren't drawn and don't light anything, but their matrices (and their
	// children's) keep updating.
	Enabled bool
	// Static nodes compute their matrices once and then keep them, regardless of later changes
	// to their position, rotation, scale, or parent.
	Static bool
	locked bool

	Shader   *Shader
	Geometry *Geometry
	Light    *Light
	Camera   *Camera

	// Texture tile and offset for this node. They override the Shader's own unless they are left
	// at the defaults (a tile of 1, 1 and an offset of 0, 0).
	TextureTile   mgl32.Vec2
	TextureOffset mgl32.Vec2

	LightmapIndex      int
	LightmapTileOffset mgl32.Vec4 // Tile in XY, offset in ZW

	children []*Node
	parent   *Node
}

// NewNode returns a new, enabled Node with identity matrices and a scale of 1.
func NewNode(name string) *Node {
	return &Node{
		Name:               name,
		Scale:              mgl32.Vec3{1, 1, 1},
		Matrix:             mgl32.Ident4(),
		WorldMatrix:        mgl32.Ident4(),
		NormalMatrix:       mgl32.Ident3(),
		InverseMatrix:      mgl32.Ident4(),
		Enabled:            true,
		TextureTile:        mgl32.Vec2{1, 1},
		LightmapTileOffset: mgl32.Vec4{1, 1, 0, 0},
		children:           []*Node{},
	}
}

// NewModel returns a Node that draws geometry with shader.
func NewModel(name string, geometry *Geometry, shader *Shader) *Node {
	node := NewNode(name)
	node.Geometry = geometry
	node.Shader = shader
	return node
}

// Add appends child to the node's children and returns it. Cycles aren't checked for.
func (node *Node) Add(child *Node) *Node {
	node.children = append(node.children, child)
	child.parent = node
	return child
}

// Remove detaches child from the node, returning true if it was a child.
func (node *Node) Remove(child *Node) bool {
	for i, c := range node.children {
		if c == child {
			node.children = append(node.children[:i], node.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Parent returns the node this node was added to, or nil for top-level nodes.
func (node *Node) Parent() *Node {
	return node.parent
}

// Children returns the node's children. The returned slice must not be modified.
func (node *Node) Children() []*Node {
	return node.children
}

// NumChildren returns how many children the node has.
func (node *Node) NumChildren() int {
	return len(node.children)
}

// ChildAt returns the child at index i, or nil if i is out of range.
func (node *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(node.children) {
		return nil
	}
	return node.children[i]
}

// Locked returns true once a Static node has computed its matrices.
func (node *Node) Locked() bool {
	return node.locked
}

// LocalMatrix builds the local transform from the node's position, rotation and scale:
// translate, then rotate around Z, X and Y, then scale.
func (node *Node) LocalMatrix() mgl32.Mat4 {
	m := mgl32.Translate3D(node.Position[0], node.Position[1], node.Position[2])
	m = m.Mul4(mgl32.HomogRotate3DZ(node.Rotation[2]))
	m = m.Mul4(mgl32.HomogRotate3DX(node.Rotation[0]))
	m = m.Mul4(mgl32.HomogRotate3DY(node.Rotation[1]))
	return m.Mul4(mgl32.Scale3D(node.Scale[0], node.Scale[1], node.Scale[2]))
}

// UpdateWorld recomputes the node's local, world and normal matrices, composing with parent's world
// matrix if parent isn't nil. Once a Static node has been updated, this does nothing.
func (node *Node) UpdateWorld(parent *Node) {

	if node.locked {
		return
	}

	node.Matrix = node.LocalMatrix()

	if parent != nil {
		node.WorldMatrix = parent.WorldMatrix.Mul4(node.Matrix)
	} else {
		node.WorldMatrix = node.Matrix
	}

	node.NormalMatrix = node.WorldMatrix.Mat3().Inv().Transpose()

	if node.Static {
		node.locked = true
	}

}

// UpdateWorldPosition sets WorldPosition to the world space origin of the node.
func (node *Node) UpdateWorldPosition() {
	node.WorldPosition = node.WorldMatrix.Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
}

// UpdateInverse recomputes InverseMatrix (the view matrix, for cameras) and the world position.
func (node *Node) UpdateInverse() {
	node.InverseMatrix = node.WorldMatrix.Inv()
	node.UpdateWorldPosition()
}

// Forward returns the node's local +Z axis in world space.
func (node *Node) Forward() mgl32.Vec3 {
	return node.NormalMatrix.Mul3x1(mgl32.Vec3{0, 0, 1}).Normalize()
}

// Left returns the node's local +X axis in world space.
func (node *Node) Left() mgl32.Vec3 {
	return node.NormalMatrix.Mul3x1(mgl32.Vec3{1, 0, 0}).Normalize()
}

// TileOffset returns the texture tile (XY) and offset (ZW) to draw the node with. The node's own
// values win unless they're the defaults, in which case the Shader's are used.
func (node *Node) TileOffset() mgl32.Vec4 {

	tile := node.TextureTile
	offset := node.TextureOffset

	if node.Shader != nil {
		if tile == (mgl32.Vec2{1, 1}) {
			tile = node.Shader.TextureTile
		}
		if offset == (mgl32.Vec2{}) {
			offset = node.Shader.TextureOffset
		}
	}

	return mgl32.Vec4{tile[0], tile[1], offset[0], offset[1]}

}

// Find searches the node's children using a path of names separated by forward slashes ('/').
// At each level the first child with a matching name is followed; nil is returned as soon as
// a name isn't found.
func (node *Node) Find(path string) *Node {
	return findPath(node.children, splitPath(path))
}

func splitPath(path string) []string {
	split := []string{}
	for _, s := range strings.Split(path, "/") {
		if len(s) > 0 {
			split = append(split, s)
		}
	}
	return split
}

func findPath(children []*Node, path []string) *Node {

	if len(path) == 0 {
		return nil
	}

	for _, child := range children {
		if child.Name == path[0] {
			if len(path) == 1 {
				return child
			}
			return findPath(child.children, path[1:])
		}
	}

	return nil

}

// Clone returns a copy of the node's transform, flags and payloads. Payloads are shared, not
// copied, and children aren't cloned.
func (node *Node) Clone() *Node {
	clone := NewNode(node.Name)
	clone.Position = node.Position
	clone.Rotation = node.Rotation
	clone.Scale = node.Scale
	clone.Static = node.Static
	clone.Enabled = node.Enabled
	clone.Shader = node.Shader
	clone.Geometry = node.Geometry
	clone.Camera = node.Camera
	clone.Light = node.Light
	clone.TextureTile = node.TextureTile
	clone.TextureOffset = node.TextureOffset
	clone.LightmapIndex = node.LightmapIndex
	clone.LightmapTileOffset = node.LightmapTileOffset
	return clone
}
