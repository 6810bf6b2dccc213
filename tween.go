package tetragl

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates the three components of one of a Node's transform vectors at once. Create one
// with TweenPosition, TweenRotation or TweenScale, and call Update every frame.
type TweenGroup struct {
	tweens [3]*gween.Tween
	field  *mgl32.Vec3
	target *Node
	Done   bool
}

func newTweenGroup(node *Node, field *mgl32.Vec3, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{field: field, target: node}
	for i := range g.tweens {
		g.tweens[i] = gween.New(field[i], to[i], duration, fn)
	}
	return g
}

// Update advances the tweens by dt seconds and writes the values to the node. Static nodes that
// have already been locked are left alone and the group finishes at once.
func (g *TweenGroup) Update(dt float32) {

	if g.Done {
		return
	}

	if g.target != nil && g.target.Locked() {
		g.Done = true
		return
	}

	allDone := true
	for i, tween := range g.tweens {
		val, finished := tween.Update(dt)
		g.field[i] = val
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone

}

// Reset rewinds the group to its start.
func (g *TweenGroup) Reset() {
	for i, tween := range g.tweens {
		tween.Reset()
		g.field[i], _ = tween.Update(0)
	}
	g.Done = false
}

// TweenPosition animates node.Position to the given position over duration seconds.
func TweenPosition(node *Node, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, &node.Position, to, duration, fn)
}

// TweenRotation animates node.Rotation (Euler angles in radians) to the given angles.
func TweenRotation(node *Node, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, &node.Rotation, to, duration, fn)
}

// TweenScale animates node.Scale to the given scale.
func TweenScale(node *Node, to mgl32.Vec3, duration float32, fn ease.TweenFunc) *TweenGroup {
	return newTweenGroup(node, &node.Scale, to, duration, fn)
}
