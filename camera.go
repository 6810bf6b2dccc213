package tetragl

import "github.com/go-gl/mathgl/mgl32"

// Camera is the payload that turns a Node into a point of view. The node's world transform places
// the camera; the Camera itself only holds the projection.
type Camera struct {
	Projection  mgl32.Mat4
	Near, Far   float32
	Perspective bool
	FieldOfView float32 // Vertical field of view in degrees, for perspective cameras
	Aspect      float32
}

// NewPerspectiveCamera returns a perspective Camera. Zero values fall back to a 45 degree field
// of view, an aspect ratio of 1, a near plane of 1 and a far plane of 1000.
func NewPerspectiveCamera(fieldOfView, aspect, near, far float32) *Camera {

	if fieldOfView <= 0 {
		fieldOfView = 45
	}
	if aspect <= 0 {
		aspect = 1
	}
	if near <= 0 {
		near = 1
	}
	if far <= 0 {
		far = 1000
	}

	return &Camera{
		Projection:  mgl32.Perspective(mgl32.DegToRad(fieldOfView), aspect, near, far),
		Near:        near,
		Far:         far,
		Perspective: true,
		FieldOfView: fieldOfView,
		Aspect:      aspect,
	}

}

// NewOrthoCamera returns an orthographic Camera covering the given view volume.
func NewOrthoCamera(left, right, bottom, top, near, far float32) *Camera {
	return &Camera{
		Projection: mgl32.Ortho(left, right, bottom, top, near, far),
		Near:       near,
		Far:        far,
	}
}

// SetAspect updates the aspect ratio of a perspective camera and rebuilds its projection.
func (camera *Camera) SetAspect(aspect float32) {
	if !camera.Perspective || aspect <= 0 {
		return
	}
	camera.Aspect = aspect
	camera.Projection = mgl32.Perspective(mgl32.DegToRad(camera.FieldOfView), aspect, camera.Near, camera.Far)
}

// Mid returns the distance halfway between the near and far planes.
func (camera *Camera) Mid() float32 {
	return camera.Near + (camera.Far-camera.Near)/2
}

// NewCameraNode returns a Node carrying the given Camera.
func NewCameraNode(name string, camera *Camera) *Node {
	node := NewNode(name)
	node.Camera = camera
	return node
}
