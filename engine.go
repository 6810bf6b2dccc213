package tetragl

import (
	"time"

	"go.uber.org/zap"

	"github.com/solarlune/tetragl/gpu"
)

// EngineOptions configures a new Engine. Leave a field at its zero value to get the default.
type EngineOptions struct {
	Logger        *zap.Logger
	ClearColor    Color
	MaxLights     int              // uLight slots written per draw; defaults to MaxLights
	Now           func() time.Time // Clock source; defaults to time.Now
	ShaderPrelude string           // Prepended to every shader stage; defaults to DefaultShaderPrelude
	FrontFace     gpu.Winding      // Defaults to clockwise
	Library       *ShaderLibrary   // Resolves shader includes; a library with the builtins is made if nil
	Width, Height int              // Initial viewport size; the viewport is left alone if zero
}

// DefaultEngineOptions returns the options NewEngine uses when it's given nil.
func DefaultEngineOptions() *EngineOptions {
	return &EngineOptions{
		Logger:        zap.NewNop(),
		ClearColor:    ColorBlack,
		MaxLights:     MaxLights,
		Now:           time.Now,
		ShaderPrelude: DefaultShaderPrelude,
		FrontFace:     gpu.CW,
	}
}

// FrameStats counts what the last frame did.
type FrameStats struct {
	DrawCalls   int
	Opaque      int
	Transparent int
	Lights      int
	Programs    int // Programs held by the shader cache after the frame
}

// Engine draws a Scene from the point of view of a camera Node, once per call to Render.
type Engine struct {
	GPU     gpu.Context
	Scene   *Scene
	Camera  *Node
	Shaders *ShaderCache
	Binder  *UniformBinder
	Library *ShaderLibrary
	Clock   *Clock
	Logger  *zap.Logger

	// Lightmaps are the textures nodes drawn with the Lightmap shader sample from, picked by
	// Node.LightmapIndex.
	Lightmaps []UniformSource

	clearColor Color
	queues     RenderQueues
	stats      FrameStats
	draw       *DrawContext
}

// NewEngine returns an Engine drawing through ctx, with an empty Scene and no camera. It enables
// face culling and depth testing and sets the clear color.
func NewEngine(ctx gpu.Context, options *EngineOptions) *Engine {

	defaults := DefaultEngineOptions()

	if options == nil {
		options = defaults
	}

	logger := options.Logger
	if logger == nil {
		logger = defaults.Logger
	}

	now := options.Now
	if now == nil {
		now = defaults.Now
	}

	library := options.Library
	if library == nil {
		library = NewShaderLibrary(logger)
	}

	engine := &Engine{
		GPU:     ctx,
		Scene:   NewScene(),
		Shaders: NewShaderCache(ctx, library, logger),
		Binder:  NewUniformBinder(ctx, logger),
		Library: library,
		Clock:   NewClock(now),
		Logger:  logger,
	}

	if options.ShaderPrelude != "" {
		engine.Shaders.Prelude = options.ShaderPrelude
	}

	if options.MaxLights > 0 {
		engine.Binder.MaxLights = options.MaxLights
	}

	frontFace := options.FrontFace
	if frontFace == 0 {
		frontFace = defaults.FrontFace
	}

	ctx.Enable(gpu.CullFaceTest)
	ctx.FrontFace(frontFace)
	ctx.Enable(gpu.DepthTest)

	if options.Width > 0 && options.Height > 0 {
		ctx.Viewport(0, 0, int32(options.Width), int32(options.Height))
	}

	engine.SetClearColor(options.ClearColor)

	return engine

}

// SetClearColor sets the color the screen is cleared to at the start of every frame.
func (engine *Engine) SetClearColor(color Color) {
	engine.clearColor = color
	engine.GPU.ClearColor(color.R, color.G, color.B, color.A)
}

// ClearColor returns the color the screen is cleared to.
func (engine *Engine) ClearColor() Color {
	return engine.clearColor
}

// SetViewport resizes the viewport and updates the camera's aspect ratio to match.
func (engine *Engine) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	engine.GPU.Viewport(0, 0, int32(width), int32(height))
	if engine.Camera != nil && engine.Camera.Camera != nil {
		engine.Camera.Camera.SetAspect(float32(width) / float32(height))
	}
}

// Queues returns the render queues built by the last frame.
func (engine *Engine) Queues() RenderQueues {
	return engine.queues
}

// Stats returns what the last frame did.
func (engine *Engine) Stats() FrameStats {
	return engine.stats
}

// Render draws one frame: clear, update the scene's matrices, then draw the skybox, the opaque
// nodes and finally the transparent nodes. Frames without a camera are cleared and skipped.
func (engine *Engine) Render() {

	engine.Clock.Tick()
	engine.GPU.Clear(gpu.ColorBufferBit | gpu.DepthBufferBit)

	engine.stats = FrameStats{Programs: engine.Shaders.Len()}

	if engine.Scene == nil || engine.Scene.NumChildren() == 0 {
		engine.queues = RenderQueues{}
		return
	}

	engine.queues = BuildRenderQueues(engine.Scene)

	if !engine.hasCamera() {
		engine.Logger.Error("no camera to render the scene with")
		return
	}

	engine.Camera.UpdateInverse()

	if skybox := engine.Scene.Skybox; skybox != nil && skybox.Shader != nil {
		skybox.Shader.Set("mid", FloatValue(engine.Camera.Camera.Mid()))
		engine.GPU.DepthMask(false)
		engine.RenderObject(skybox)
		engine.GPU.DepthMask(true)
	}

	for _, light := range engine.queues.Lights {
		light.UpdateWorldPosition()
	}

	engine.GPU.Disable(gpu.Blend)
	engine.GPU.Enable(gpu.DepthTest)

	for _, node := range engine.queues.Opaque {
		engine.RenderObject(node)
	}

	engine.GPU.Disable(gpu.DepthTest)
	engine.GPU.Enable(gpu.Blend)

	for _, node := range engine.queues.Transparent {
		engine.GPU.BlendFunc(node.Geometry.BlendFunc())
		engine.RenderObject(node)
	}

	engine.stats.Opaque = len(engine.queues.Opaque)
	engine.stats.Transparent = len(engine.queues.Transparent)
	engine.stats.Lights = len(engine.queues.Lights)
	engine.stats.Programs = engine.Shaders.Len()

}

func (engine *Engine) hasCamera() bool {
	return engine.Camera != nil && engine.Camera.Camera != nil
}

func (engine *Engine) drawContext() *DrawContext {
	if engine.draw == nil {
		engine.draw = &DrawContext{}
	}
	engine.draw.GPU = engine.GPU
	engine.draw.Binder = engine.Binder
	engine.draw.Clock = engine.Clock
	engine.draw.Camera = engine.Camera
	engine.draw.Lightmaps = engine.Lightmaps
	engine.draw.Logger = engine.Logger
	return engine.draw
}

// RenderObject draws a single node with its Shader and Geometry, using the lights queued by the
// last frame. Nodes whose program can't be built are skipped.
func (engine *Engine) RenderObject(node *Node) {

	if node == nil || node.Shader == nil || node.Geometry == nil {
		return
	}

	if !engine.hasCamera() {
		engine.Logger.Error("no camera to render the node with", zap.String("node", node.Name))
		return
	}

	shader := node.Shader
	geometry := node.Geometry

	program := engine.Shaders.Program(shader)
	if program == nil {
		return
	}

	engine.GPU.UseProgram(program.Handle)

	camera := engine.Camera
	binder := engine.Binder

	binder.SetValue(program, "pMatrix", Mat4Value(camera.Camera.Projection))
	binder.SetValue(program, "vMatrix", Mat4Value(camera.InverseMatrix))
	binder.SetValue(program, "mMatrix", Mat4Value(node.WorldMatrix))
	binder.SetValue(program, "nMatrix", Mat3Value(node.NormalMatrix))
	binder.SetValue(program, "uEyePosition", Vec3Value(camera.WorldPosition))
	binder.SetValue(program, "uTileOffset", Vec4Value(node.TileOffset()))

	binder.SetLights(program, engine.queues.Lights)
	binder.SetAttributes(program, geometry)

	shader.Setup(engine.drawContext(), program, node)

	cull := shader.CullFace
	if cull == 0 {
		cull = gpu.Back
	}
	engine.GPU.CullFace(cull)

	mode := shader.DrawMode.GPU()

	if geometry.HasElements() {
		engine.GPU.BindBuffer(gpu.ElementArrayBuffer, geometry.Elements.buffer)
		engine.GPU.DrawElements(mode, int32(geometry.Elements.Size()), geometry.Elements.DataType(), 0)
	} else {
		engine.GPU.DrawArrays(mode, 0, int32(geometry.Size))
	}

	engine.stats.DrawCalls++

}
