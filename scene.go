package tetragl

// Scene is the root of a scene graph: an ordered list of top-level nodes, an ambient color and
// an optional skybox that is drawn behind everything else.
type Scene struct {
	Ambient  Color
	Skybox   *Node
	children []*Node
}

// NewScene returns an empty Scene with a black ambient color.
func NewScene() *Scene {
	return &Scene{
		Ambient:  ColorBlack,
		children: []*Node{},
	}
}

// Add appends nodes to the top level of the scene and returns the first one (or nil if none
// were given).
func (scene *Scene) Add(nodes ...*Node) *Node {
	var first *Node
	for _, node := range nodes {
		if first == nil {
			first = node
		}
		node.parent = nil
		scene.children = append(scene.children, node)
	}
	return first
}

// Children returns the scene's top-level nodes. The returned slice must not be modified.
func (scene *Scene) Children() []*Node {
	return scene.children
}

// NumChildren returns how many top-level nodes the scene has.
func (scene *Scene) NumChildren() int {
	return len(scene.children)
}

// ChildAt returns the top-level node at index i, or nil if i is out of range.
func (scene *Scene) ChildAt(i int) *Node {
	if i < 0 || i >= len(scene.children) {
		return nil
	}
	return scene.children[i]
}

// Find searches the scene using a path of node names separated by forward slashes ('/'), like
// "Room/Desk/Cup". It returns nil if any part of the path doesn't match.
func (scene *Scene) Find(path string) *Node {
	return findPath(scene.children, splitPath(path))
}

// AddSkybox creates the scene's skybox: an inside-out unit cube drawn with the builtin Skybox
// shader, sampling cubemap. The skybox isn't one of the scene's children. If the library doesn't
// provide the Skybox shader, no skybox is created and nil is returned.
func (scene *Scene) AddSkybox(cubemap UniformSource, library *ShaderLibrary) *Node {

	shader := library.Fetch(BuiltinSkybox)
	if shader == nil {
		return nil
	}
	shader.Uniforms.Set("uCubemap", SourceValue(cubemap))

	skybox := NewNode("Skybox")
	skybox.Shader = shader
	skybox.Geometry = NewCube(1, 1, 1).Flip().Geometry
	scene.Skybox = skybox

	return skybox

}
