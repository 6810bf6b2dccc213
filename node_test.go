package tetragl

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertVec3 compares component by component with an absolute tolerance; mgl32's
// ApproxEqualThreshold is far stricter when one side is exactly zero.
func assertVec3(t *testing.T, expected, actual mgl32.Vec3) {
	t.Helper()
	assert.InDeltaSlice(t, expected[:], actual[:], 1e-5, "expected %v, got %v", expected, actual)
}

func assertMat4(t *testing.T, expected, actual mgl32.Mat4) {
	t.Helper()
	assert.InDeltaSlice(t, expected[:], actual[:], 1e-5, "expected %v, got %v", expected, actual)
}

func assertMat3(t *testing.T, expected, actual mgl32.Mat3) {
	t.Helper()
	assert.InDeltaSlice(t, expected[:], actual[:], 1e-5, "expected %v, got %v", expected, actual)
}

func TestRootWorldMatrixIsLocal(t *testing.T) {

	node := NewNode("root")
	node.Position = mgl32.Vec3{1, 2, 3}
	node.Rotation = mgl32.Vec3{0.3, 0.5, -0.2}
	node.Scale = mgl32.Vec3{2, 2, 2}

	node.UpdateWorld(nil)

	assertMat4(t, node.LocalMatrix(), node.WorldMatrix)
	assertMat4(t, node.Matrix, node.WorldMatrix)

}

func TestChildWorldPosition(t *testing.T) {

	scene := NewScene()
	parent := scene.Add(NewNode("parent"))
	parent.Position = mgl32.Vec3{1, 0, 0}

	child := parent.Add(NewNode("child"))
	child.Position = mgl32.Vec3{0, 2, 0}

	BuildRenderQueues(scene)
	child.UpdateWorldPosition()

	assertVec3(t, mgl32.Vec3{1, 2, 0}, child.WorldPosition)

}

func TestChildOfRotatedParent(t *testing.T) {

	parent := NewNode("parent")
	parent.Rotation = mgl32.Vec3{0, math.Pi / 2, 0}

	child := parent.Add(NewNode("child"))
	child.Position = mgl32.Vec3{0, 0, 1}

	parent.UpdateWorld(nil)
	child.UpdateWorld(parent)
	child.UpdateWorldPosition()

	assertVec3(t, mgl32.Vec3{1, 0, 0}, child.WorldPosition)

}

func TestRotationOrder(t *testing.T) {

	node := NewNode("node")
	node.Rotation = mgl32.Vec3{0.4, 0.7, 1.1}

	expected := mgl32.HomogRotate3DZ(1.1).Mul4(mgl32.HomogRotate3DX(0.4)).Mul4(mgl32.HomogRotate3DY(0.7))
	assertMat4(t, expected, node.LocalMatrix())

}

func TestNormalMatrix(t *testing.T) {

	node := NewNode("node")
	node.Scale = mgl32.Vec3{2, 1, 4}
	node.UpdateWorld(nil)

	expected := mgl32.Diag3(mgl32.Vec3{0.5, 1, 0.25})
	assertMat3(t, expected, node.NormalMatrix)

}

func TestStaticNodeLocks(t *testing.T) {

	node := NewNode("static")
	node.Static = true
	node.Position = mgl32.Vec3{5, 0, 0}

	require.False(t, node.Locked())
	node.UpdateWorld(nil)
	require.True(t, node.Locked())

	before := node.WorldMatrix

	node.Position = mgl32.Vec3{-5, 3, 0}
	node.UpdateWorld(nil)

	assert.Equal(t, before, node.WorldMatrix)

	parent := NewNode("parent")
	parent.Position = mgl32.Vec3{0, 100, 0}
	parent.UpdateWorld(nil)
	node.UpdateWorld(parent)

	assert.Equal(t, before, node.WorldMatrix)

}

func TestDisabledNodesStillUpdate(t *testing.T) {

	scene := NewScene()
	parent := scene.Add(NewNode("parent"))
	parent.Enabled = false
	parent.Position = mgl32.Vec3{0, 0, 4}

	child := parent.Add(NewNode("child"))

	BuildRenderQueues(scene)
	child.UpdateWorldPosition()

	assertVec3(t, mgl32.Vec3{0, 0, 4}, child.WorldPosition)

}

func TestFind(t *testing.T) {

	scene := NewScene()
	room := scene.Add(NewNode("Room"))
	desk := room.Add(NewNode("Desk"))
	cup := desk.Add(NewNode("Cup"))
	room.Add(NewNode("Desk")) // Only the first match is followed

	assert.Equal(t, cup, scene.Find("Room/Desk/Cup"))
	assert.Equal(t, cup, scene.Find("/Room/Desk/Cup/"))
	assert.Equal(t, cup, room.Find("Desk/Cup"))
	assert.Equal(t, desk, room.Find("Desk"))
	assert.Nil(t, scene.Find("Room/Chair"))
	assert.Nil(t, scene.Find(""))
	assert.Nil(t, scene.Find("Desk"))

}

func TestAddRemove(t *testing.T) {

	parent := NewNode("parent")
	a := parent.Add(NewNode("a"))
	b := parent.Add(NewNode("b"))

	require.Equal(t, 2, parent.NumChildren())
	assert.Equal(t, parent, a.Parent())
	assert.Equal(t, b, parent.ChildAt(1))
	assert.Nil(t, parent.ChildAt(2))

	assert.True(t, parent.Remove(a))
	assert.False(t, parent.Remove(a))
	assert.Nil(t, a.Parent())
	assert.Equal(t, []*Node{b}, parent.Children())

}

func TestTileOffset(t *testing.T) {

	shader := NewShader("tiled", "", "")
	shader.TextureTile = mgl32.Vec2{2, 3}
	shader.TextureOffset = mgl32.Vec2{0.5, 0}

	node := NewModel("model", NewGeometry(), shader)
	assert.Equal(t, mgl32.Vec4{2, 3, 0.5, 0}, node.TileOffset())

	node.TextureTile = mgl32.Vec2{4, 4}
	assert.Equal(t, mgl32.Vec4{4, 4, 0.5, 0}, node.TileOffset())

	node.TextureOffset = mgl32.Vec2{0.25, 0.25}
	assert.Equal(t, mgl32.Vec4{4, 4, 0.25, 0.25}, node.TileOffset())

}

func TestCameraInverse(t *testing.T) {

	camera := NewCameraNode("camera", NewPerspectiveCamera(60, 1, 0.1, 100))
	camera.Position = mgl32.Vec3{0, 1, 10}
	camera.UpdateWorld(nil)
	camera.UpdateInverse()

	assertVec3(t, mgl32.Vec3{0, 1, 10}, camera.WorldPosition)
	assertMat4(t, mgl32.Ident4(), camera.InverseMatrix.Mul4(camera.WorldMatrix))
	assert.InDelta(t, 50.05, camera.Camera.Mid(), 1e-4)

}

func TestClone(t *testing.T) {

	geometry := NewGeometry()
	node := NewNode("original")
	node.Geometry = geometry
	node.Position = mgl32.Vec3{1, 2, 3}
	node.Add(NewNode("child"))

	clone := node.Clone()
	assert.Equal(t, node.Position, clone.Position)
	assert.Same(t, geometry, clone.Geometry)
	assert.Equal(t, 0, clone.NumChildren())

}

func BenchmarkBuildRenderQueues(b *testing.B) {

	scene := NewScene()
	shader := NewShader("bench", "", "")
	geometry := NewCube(1, 1, 1).Geometry

	for i := 0; i < 100; i++ {
		parent := scene.Add(NewModel("parent", geometry, shader))
		for j := 0; j < 10; j++ {
			parent.Add(NewModel("child", geometry, shader))
		}
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		BuildRenderQueues(scene)
	}

}
