package tetragl

// RenderQueues are the nodes a frame draws and lights with, in the order they were found.
type RenderQueues struct {
	Opaque      []*Node
	Transparent []*Node
	Lights      []*Node
}

// BuildRenderQueues walks the scene depth-first, updating every node's matrices (disabled nodes
// included) and sorting enabled nodes into the queues. A node is queued after its children.
func BuildRenderQueues(scene *Scene) RenderQueues {
	queues := RenderQueues{
		Opaque:      []*Node{},
		Transparent: []*Node{},
		Lights:      []*Node{},
	}
	if scene == nil {
		return queues
	}
	for _, node := range scene.Children() {
		queues.visit(node, nil)
	}
	return queues
}

func (queues *RenderQueues) visit(node *Node, parent *Node) {

	node.UpdateWorld(parent)

	for _, child := range node.children {
		queues.visit(child, node)
	}

	if !node.Enabled {
		return
	}

	if node.Shader != nil && node.Geometry != nil {
		if node.Geometry.RenderMode == RenderTransparent {
			queues.Transparent = append(queues.Transparent, node)
		} else {
			queues.Opaque = append(queues.Opaque, node)
		}
	}

	if node.Light != nil {
		queues.Lights = append(queues.Lights, node)
	}

}

// Len returns the number of nodes in all queues.
func (queues RenderQueues) Len() int {
	return len(queues.Opaque) + len(queues.Transparent) + len(queues.Lights)
}
