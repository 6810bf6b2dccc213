package loader

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/lightspunctual"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/solarlune/tetragl"
	"github.com/solarlune/tetragl/gpu"
)

// LoadGLTFFile loads a .gltf or .glb file from the filepath given. Textures referenced by URI are
// loaded relative to the file's directory unless Options.TexturePath is set.
func LoadGLTFFile(path string, options *Options) (*Result, error) {

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read glTF file %s", path)
	}

	if options == nil {
		options = DefaultOptions()
	}
	if options.TexturePath == "" {
		withDir := *options
		withDir.TexturePath = filepath.Dir(path)
		options = &withDir
	}

	result, err := LoadGLTFData(data, options)
	return result, errors.Wrapf(err, "failed to load glTF file %s", path)

}

// LoadGLTFData builds a scene from .gltf or .glb data: the nodes of the document's default scene
// (or its first), with their meshes, perspective and orthographic cameras, and KHR_lights_punctual
// lights. Materials become Phong shaders using their base color and base color texture.
func LoadGLTFData(data []byte, options *Options) (*Result, error) {

	options = options.normalize()
	logger := options.Logger

	doc := gltf.NewDocument()
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode glTF document")
	}

	result := newResult()

	loader := &gltfLoader{
		doc:      doc,
		options:  options,
		logger:   logger,
		result:   result,
		textures: map[int]*tetragl.Texture{},
	}

	shaders := make([]*tetragl.Shader, len(doc.Materials))
	transparent := make([]bool, len(doc.Materials))
	for i, material := range doc.Materials {
		shader, err := loader.material(material)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load material %s", material.Name)
		}
		shaders[i] = shader
		transparent[i] = material.AlphaMode == gltf.AlphaBlend
	}
	loader.shaders = shaders
	loader.transparent = transparent

	nodes := make([]*tetragl.Node, len(doc.Nodes))
	for i, gltfNode := range doc.Nodes {
		node, err := loader.node(gltfNode)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load node %s", gltfNode.Name)
		}
		nodes[i] = node
	}

	for i, gltfNode := range doc.Nodes {
		for _, child := range gltfNode.Children {
			nodes[i].Add(nodes[child])
		}
	}

	if len(doc.Scenes) > 0 {
		sceneIndex := 0
		if doc.Scene != nil {
			sceneIndex = int(*doc.Scene)
		}
		for _, n := range doc.Scenes[sceneIndex].Nodes {
			result.Scene.Add(nodes[n])
		}
	} else {
		for i, node := range nodes {
			if node.Parent() == nil && !isChild(doc, i) {
				result.Scene.Add(node)
			}
		}
	}

	return result, nil

}

type gltfLoader struct {
	doc         *gltf.Document
	options     *Options
	logger      *zap.Logger
	result      *Result
	shaders     []*tetragl.Shader
	transparent []bool
	textures    map[int]*tetragl.Texture
}

func (loader *gltfLoader) material(material *gltf.Material) (*tetragl.Shader, error) {

	shader := loader.options.Library.Fetch(tetragl.BuiltinPhong)
	if shader == nil {
		return nil, errors.New("the shader library has no Phong shader")
	}

	if pbr := material.PBRMetallicRoughness; pbr != nil {

		if factor := pbr.BaseColorFactor; factor != nil {
			color := tetragl.NewColor(float32(factor[0]), float32(factor[1]), float32(factor[2]), float32(factor[3]))
			color.ConvertTosRGB()
			shader.Set("color", tetragl.SourceValue(color))
		}

		if info := pbr.BaseColorTexture; info != nil {
			texture, err := loader.texture(int(info.Index))
			if err != nil {
				return nil, err
			}
			if texture != nil {
				shader.Set("colorTexture", tetragl.SourceValue(texture))
				shader.Set("hasColorTexture", tetragl.BoolValue(true))
			}
		}

	}

	loader.result.Shaders[material.Name] = shader

	return shader, nil

}

func (loader *gltfLoader) texture(index int) (*tetragl.Texture, error) {

	if texture, exists := loader.textures[index]; exists {
		return texture, nil
	}

	doc := loader.doc
	gltfTexture := doc.Textures[index]
	if gltfTexture.Source == nil {
		loader.logger.Warn("glTF texture has no image", zap.Int("texture", index))
		return nil, nil
	}

	img := doc.Images[*gltfTexture.Source]

	name := img.Name
	if name == "" {
		name = fmt.Sprintf("texture%d", index)
	}

	textureOptions := *loader.options.TextureOptions
	// glTF puts the first row of an image at the top, as GL does after a flip.
	textureOptions.Flip = false

	var texture *tetragl.Texture

	switch {

	case img.BufferView != nil:
		data, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read image %s", name)
		}
		texture, err = tetragl.NewTexture(name, data, &textureOptions)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode image %s", name)
		}

	case img.IsEmbeddedResource():
		data, err := img.MarshalData()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read embedded image %s", name)
		}
		texture, err = tetragl.NewTexture(name, data, &textureOptions)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode image %s", name)
		}

	default:
		texture = tetragl.LoadTexture(resolvePath(loader.options.TexturePath, img.URI), &textureOptions)

	}

	loader.textures[index] = texture
	loader.result.Textures[name] = texture

	return texture, nil

}

func (loader *gltfLoader) node(gltfNode *gltf.Node) (*tetragl.Node, error) {

	doc := loader.doc

	node := tetragl.NewNode(gltfNode.Name)

	position, rotation, scale := nodeTransform(gltfNode)
	node.Position = position
	node.Rotation = eulerZXY(rotation)
	node.Scale = scale

	if gltfNode.Mesh != nil {
		if err := loader.mesh(node, doc.Meshes[*gltfNode.Mesh]); err != nil {
			return nil, err
		}
	}

	if gltfNode.Camera != nil {
		node.Camera = loader.camera(doc.Cameras[*gltfNode.Camera])
		loader.result.Cameras = append(loader.result.Cameras, node)
		if loader.result.Camera == nil {
			loader.result.Camera = node
		}
	}

	if lighting, exists := gltfNode.Extensions[lightspunctual.ExtensionName]; exists {
		lights, ok := doc.Extensions[lightspunctual.ExtensionName].(lightspunctual.Lights)
		index, isIndex := lighting.(lightspunctual.LightIndex)
		if ok && isIndex && int(index) < len(lights) {
			node.Light = loader.light(lights[index], rotation)
		} else {
			loader.logger.Warn("glTF node refers to a missing light", zap.String("node", gltfNode.Name))
		}
	}

	return node, nil

}

func (loader *gltfLoader) mesh(node *tetragl.Node, mesh *gltf.Mesh) error {

	for i, primitive := range mesh.Primitives {

		geometry, err := loader.primitive(primitive)
		if err != nil {
			return errors.Wrapf(err, "failed to load mesh %s", mesh.Name)
		}

		var shader *tetragl.Shader
		if primitive.Material != nil {
			shader = loader.shaders[*primitive.Material]
			if loader.transparent[*primitive.Material] {
				geometry.SetBlendFunc(gpu.SrcAlpha, gpu.OneMinusSrcAlpha)
			}
		} else {
			shader = loader.options.Library.Fetch(tetragl.BuiltinPhong)
		}

		target := node
		if i > 0 {
			target = tetragl.NewNode(fmt.Sprintf("%s.%d", node.Name, i))
			node.Add(target)
		}
		target.Geometry = geometry
		target.Shader = shader

	}

	return nil

}

func (loader *gltfLoader) primitive(primitive *gltf.Primitive) (*tetragl.Geometry, error) {

	doc := loader.doc

	positionAccessor, exists := primitive.Attributes[gltf.POSITION]
	if !exists {
		return nil, errors.New("primitive has no positions")
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[positionAccessor], [][3]float32{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read positions")
	}

	data := tetragl.MeshData{
		tetragl.MeshVertices: flatten3(positions),
		tetragl.MeshNormals:  []float32{},
		tetragl.MeshUV1:      []float32{},
	}

	if normalAccessor, exists := primitive.Attributes[gltf.NORMAL]; exists {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normalAccessor], [][3]float32{})
		if err != nil {
			return nil, errors.Wrap(err, "failed to read normals")
		}
		data[tetragl.MeshNormals] = flatten3(normals)
	}

	if uvAccessor, exists := primitive.Attributes[gltf.TEXCOORD_0]; exists {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvAccessor], [][2]float32{})
		if err != nil {
			return nil, errors.Wrap(err, "failed to read texture coordinates")
		}
		flat := make([]float32, 0, len(uvs)*2)
		for _, uv := range uvs {
			flat = append(flat, uv[0], 1-uv[1])
		}
		data[tetragl.MeshUV1] = flat
	}

	if uvAccessor, exists := primitive.Attributes[gltf.TEXCOORD_1]; exists {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvAccessor], [][2]float32{})
		if err != nil {
			return nil, errors.Wrap(err, "failed to read lightmap texture coordinates")
		}
		flat := make([]float32, 0, len(uvs)*2)
		for _, uv := range uvs {
			flat = append(flat, uv[0], 1-uv[1])
		}
		data[tetragl.MeshUV2] = flat
	}

	if colorAccessor, exists := primitive.Attributes[gltf.COLOR_0]; exists {
		colors, err := modeler.ReadColor64(doc, doc.Accessors[colorAccessor], [][4]uint16{})
		if err != nil {
			return nil, errors.Wrap(err, "failed to read vertex colors")
		}
		flat := make([]float32, 0, len(colors)*4)
		for _, c := range colors {
			color := tetragl.NewColor(
				float32(c[0])/math.MaxUint16,
				float32(c[1])/math.MaxUint16,
				float32(c[2])/math.MaxUint16,
				float32(c[3])/math.MaxUint16,
			)
			color.ConvertTosRGB()
			flat = append(flat, color.R, color.G, color.B, color.A)
		}
		data[tetragl.MeshColors] = flat
	}

	if primitive.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*primitive.Indices], []uint32{})
		if err != nil {
			return nil, errors.Wrap(err, "failed to read indices")
		}
		tris := make([]float32, len(indices))
		for i, index := range indices {
			tris[i] = float32(index)
		}
		data[tetragl.MeshTris] = tris
	}

	return tetragl.NewMesh(data, loader.logger).Geometry, nil

}

func (loader *gltfLoader) camera(gltfCam *gltf.Camera) *tetragl.Camera {

	if gltfCam.Orthographic != nil {
		ortho := gltfCam.Orthographic
		xmag := float32(ortho.Xmag)
		ymag := float32(ortho.Ymag)
		return tetragl.NewOrthoCamera(-xmag, xmag, -ymag, ymag, float32(ortho.Znear), float32(ortho.Zfar))
	}

	if gltfCam.Perspective != nil {
		perspective := gltfCam.Perspective
		aspect := loader.options.Aspect
		if aspect <= 0 && perspective.AspectRatio != nil {
			aspect = float32(*perspective.AspectRatio)
		}
		far := float32(0)
		if perspective.Zfar != nil {
			far = float32(*perspective.Zfar)
		}
		return tetragl.NewPerspectiveCamera(mgl32.RadToDeg(float32(perspective.Yfov)), aspect, float32(perspective.Znear), far)
	}

	return tetragl.NewPerspectiveCamera(0, loader.options.Aspect, 0, 0)

}

// light converts a punctual light. Directional lights shine down the node's local -Z axis.
func (loader *gltfLoader) light(gltfLight *lightspunctual.Light, rotation mgl32.Quat) *tetragl.Light {

	var light *tetragl.Light

	switch gltfLight.Type {
	case lightspunctual.TypeDirectional:
		light = tetragl.NewLight(tetragl.LightDirectional)
		light.Direction = rotation.Rotate(mgl32.Vec3{0, 0, -1})
	case lightspunctual.TypePoint:
		light = tetragl.NewLight(tetragl.LightPoint)
	default:
		loader.logger.Warn("unsupported glTF light type; loading it as a point light",
			zap.String("light", gltfLight.Name), zap.String("type", string(gltfLight.Type)))
		light = tetragl.NewLight(tetragl.LightPoint)
	}

	color := gltfLight.ColorOrDefault()
	light.Color = tetragl.NewColor(float32(color[0]), float32(color[1]), float32(color[2]), 1)
	light.Intensity = float32(gltfLight.IntensityOrDefault())

	return light

}

// nodeTransform returns a node's translation, rotation and scale, decomposing its matrix if it has
// one.
func nodeTransform(node *gltf.Node) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {

	m := mgl32.Mat4{}
	for i, v := range node.Matrix {
		m[i] = float32(v)
	}

	if m != mgl32.Ident4() && m != (mgl32.Mat4{}) {

		position := m.Col(3).Vec3()
		scale := mgl32.Vec3{m.Col(0).Vec3().Len(), m.Col(1).Vec3().Len(), m.Col(2).Vec3().Len()}

		rot := mgl32.Mat3{}
		for col := 0; col < 3; col++ {
			axis := m.Col(col).Vec3()
			if scale[col] != 0 {
				axis = axis.Mul(1 / scale[col])
			}
			rot.SetCol(col, axis)
		}

		return position, mgl32.Mat4ToQuat(rot.Mat4()), scale

	}

	position := mgl32.Vec3{float32(node.Translation[0]), float32(node.Translation[1]), float32(node.Translation[2])}
	rotation := mgl32.Quat{
		W: float32(node.Rotation[3]),
		V: mgl32.Vec3{float32(node.Rotation[0]), float32(node.Rotation[1]), float32(node.Rotation[2])},
	}
	scale := mgl32.Vec3{float32(node.Scale[0]), float32(node.Scale[1]), float32(node.Scale[2])}

	if rotation.Len() == 0 {
		rotation = mgl32.QuatIdent()
	}
	if scale == (mgl32.Vec3{}) {
		scale = mgl32.Vec3{1, 1, 1}
	}

	return position, rotation, scale

}

// eulerZXY returns the Euler angles (X, Y, Z in radians) that Node.LocalMatrix turns back into q,
// which applies them as Rz * Rx * Ry.
func eulerZXY(q mgl32.Quat) mgl32.Vec3 {

	m := q.Normalize().Mat4()

	sx := m.At(2, 1)
	if sx > 1 {
		sx = 1
	} else if sx < -1 {
		sx = -1
	}
	x := float32(math.Asin(float64(sx)))

	if math.Abs(float64(sx)) < 0.99999 {
		y := float32(math.Atan2(float64(-m.At(2, 0)), float64(m.At(2, 2))))
		z := float32(math.Atan2(float64(-m.At(0, 1)), float64(m.At(1, 1))))
		return mgl32.Vec3{x, y, z}
	}

	// Gimbal lock; put the whole remaining rotation into Y.
	y := float32(math.Atan2(float64(m.At(0, 2)), float64(m.At(0, 0))))
	return mgl32.Vec3{x, y, 0}

}

func flatten3(values [][3]float32) []float32 {
	flat := make([]float32, 0, len(values)*3)
	for _, v := range values {
		flat = append(flat, v[0], v[1], v[2])
	}
	return flat
}

func isChild(doc *gltf.Document, index int) bool {
	for _, node := range doc.Nodes {
		for _, child := range node.Children {
			if int(child) == index {
				return true
			}
		}
	}
	return false
}
