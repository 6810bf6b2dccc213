package tetragl

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/solarlune/tetragl/gpu"
)

// TextureOptions controls how a Texture is uploaded.
type TextureOptions struct {
	Mipmap    bool  // Generate mipmaps (power-of-two images only)
	Flip      bool  // Flip the image vertically so its first row is at the bottom, as GL expects
	WrapMode  int32 // gpu.Repeat, gpu.ClampToEdge or gpu.MirroredRepeat
	MagFilter int32
	MinFilter int32
	Logger    *zap.Logger
}

// DefaultTextureOptions returns options for a flipped, repeating, mipmapped texture.
func DefaultTextureOptions() *TextureOptions {
	return &TextureOptions{
		Mipmap:    true,
		Flip:      true,
		WrapMode:  gpu.Repeat,
		MagFilter: gpu.Linear,
		MinFilter: gpu.LinearMipmapNearest,
		Logger:    zap.NewNop(),
	}
}

// Texture is a 2D image that uploads itself to the GPU the first time it's bound. Textures loaded
// from files decode in the background; until decoding finishes they bind nothing.
type Texture struct {
	Name    string
	Options *TextureOptions

	pixels *image.RGBA
	err    error
	loaded atomic.Bool
	done   chan struct{}

	handle   gpu.Texture
	uploaded bool
}

// LoadTexture starts decoding the image file at path and returns right away. Check Loaded, or
// call Wait, to find out when (and whether) it's done.
func LoadTexture(path string, options *TextureOptions) *Texture {

	texture := newTexture(path, options)

	go func() {
		pixels, err := decodeFile(path, texture.Options.Flip)
		texture.finish(pixels, err)
	}()

	return texture

}

// NewTexture decodes an image from data (png, jpeg, gif, bmp, tiff or webp) immediately.
func NewTexture(name string, data []byte, options *TextureOptions) (*Texture, error) {
	texture := newTexture(name, options)
	pixels, err := decodeImage(bytes.NewReader(data), texture.Options.Flip)
	texture.finish(pixels, err)
	return texture, err
}

// NewTextureFromImage returns a Texture holding img, ready to upload.
func NewTextureFromImage(name string, img image.Image, options *TextureOptions) *Texture {
	texture := newTexture(name, options)
	texture.finish(toRGBA(img, texture.Options.Flip), nil)
	return texture
}

func newTexture(name string, options *TextureOptions) *Texture {
	if options == nil {
		options = DefaultTextureOptions()
	}
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}
	return &Texture{
		Name:    name,
		Options: options,
		done:    make(chan struct{}),
	}
}

func (texture *Texture) finish(pixels *image.RGBA, err error) {
	texture.pixels = pixels
	texture.err = err
	if err != nil {
		texture.Options.Logger.Error("failed to load texture", zap.String("texture", texture.Name), zap.Error(err))
	} else {
		texture.loaded.Store(true)
	}
	close(texture.done)
}

// Loaded returns true once the image has been decoded successfully.
func (texture *Texture) Loaded() bool {
	return texture.loaded.Load()
}

// Wait blocks until decoding has finished and returns its error, if any.
func (texture *Texture) Wait() error {
	<-texture.done
	return texture.err
}

// Size returns the decoded image's size, or zero if it hasn't loaded.
func (texture *Texture) Size() (width, height int) {
	if !texture.Loaded() {
		return 0, 0
	}
	b := texture.pixels.Bounds()
	return b.Dx(), b.Dy()
}

// Handle returns the Texture's GPU handle, or 0 if it hasn't been uploaded.
func (texture *Texture) Handle() gpu.Texture {
	return texture.handle
}

// ToUniform uploads the Texture on first use and returns it as a sampler value.
func (texture *Texture) ToUniform(ctx gpu.Context, hint gpu.UniformType) (UniformValue, bool) {

	if !texture.Loaded() {
		return UniformValue{}, false
	}

	if !texture.uploaded {
		texture.upload(ctx)
	}

	return TextureValue(texture.handle), true

}

func (texture *Texture) upload(ctx gpu.Context) {

	options := texture.Options
	width, height := texture.Size()

	texture.handle = ctx.CreateTexture()
	ctx.BindTexture(gpu.Texture2D, texture.handle)
	ctx.TexImage2D(gpu.Texture2D, int32(width), int32(height), texture.pixels.Pix)

	ctx.TexParameteri(gpu.Texture2D, gpu.TextureMagFilter, options.MagFilter)

	if isPowerOfTwo(width) && isPowerOfTwo(height) {

		ctx.TexParameteri(gpu.Texture2D, gpu.TextureMinFilter, options.MinFilter)
		ctx.TexParameteri(gpu.Texture2D, gpu.TextureWrapS, options.WrapMode)
		ctx.TexParameteri(gpu.Texture2D, gpu.TextureWrapT, options.WrapMode)
		if options.Mipmap {
			ctx.GenerateMipmap(gpu.Texture2D)
		}

	} else {

		if options.WrapMode != gpu.ClampToEdge {
			options.Logger.Warn("texture size isn't a power of two; it will be clamped instead of wrapped",
				zap.String("texture", texture.Name), zap.Int("width", width), zap.Int("height", height))
		}
		ctx.TexParameteri(gpu.Texture2D, gpu.TextureMinFilter, gpu.Linear)
		ctx.TexParameteri(gpu.Texture2D, gpu.TextureWrapS, gpu.ClampToEdge)
		ctx.TexParameteri(gpu.Texture2D, gpu.TextureWrapT, gpu.ClampToEdge)

	}

	texture.uploaded = true

}

// CubemapFaces names the six image files of a Cubemap.
type CubemapFaces struct {
	Front, Back, Up, Down, Right, Left string
}

// Cubemap is a cube map texture built from six images, uploaded on first bind.
type Cubemap struct {
	Name   string
	Logger *zap.Logger

	faces  [6]*image.RGBA
	err    error
	loaded atomic.Bool
	done   chan struct{}

	handle   gpu.Texture
	uploaded bool
}

var cubemapTargets = [6]gpu.TextureTarget{
	gpu.TextureCubeMapPositiveX,
	gpu.TextureCubeMapNegativeX,
	gpu.TextureCubeMapPositiveY,
	gpu.TextureCubeMapNegativeY,
	gpu.TextureCubeMapPositiveZ,
	gpu.TextureCubeMapNegativeZ,
}

// LoadCubemap starts decoding the six faces concurrently and returns right away. Front goes to +X,
// back to -X, up to +Y, down to -Y, right to +Z and left to -Z.
func LoadCubemap(name string, faces CubemapFaces, logger *zap.Logger) *Cubemap {

	if logger == nil {
		logger = zap.NewNop()
	}

	cubemap := &Cubemap{
		Name:   name,
		Logger: logger,
		done:   make(chan struct{}),
	}

	paths := [6]string{faces.Front, faces.Back, faces.Up, faces.Down, faces.Right, faces.Left}

	go func() {

		group := errgroup.Group{}

		for i, path := range paths {
			i, path := i, path
			group.Go(func() error {
				pixels, err := decodeFile(path, false)
				if err != nil {
					return err
				}
				cubemap.faces[i] = pixels
				return nil
			})
		}

		cubemap.err = group.Wait()
		if cubemap.err != nil {
			logger.Error("failed to load cubemap", zap.String("cubemap", name), zap.Error(cubemap.err))
		} else {
			cubemap.loaded.Store(true)
		}
		close(cubemap.done)

	}()

	return cubemap

}

// NewCubemapFromImages returns a Cubemap from six images, in +X, -X, +Y, -Y, +Z, -Z order.
func NewCubemapFromImages(name string, faces [6]image.Image, logger *zap.Logger) *Cubemap {

	if logger == nil {
		logger = zap.NewNop()
	}

	cubemap := &Cubemap{
		Name:   name,
		Logger: logger,
		done:   make(chan struct{}),
	}

	for i, face := range faces {
		cubemap.faces[i] = toRGBA(face, false)
	}

	cubemap.loaded.Store(true)
	close(cubemap.done)

	return cubemap

}

// Loaded returns true once all six faces have been decoded.
func (cubemap *Cubemap) Loaded() bool {
	return cubemap.loaded.Load()
}

// Wait blocks until decoding has finished and returns the first error hit.
func (cubemap *Cubemap) Wait() error {
	<-cubemap.done
	return cubemap.err
}

// Handle returns the Cubemap's GPU handle, or 0 if it hasn't been uploaded.
func (cubemap *Cubemap) Handle() gpu.Texture {
	return cubemap.handle
}

// ToUniform uploads the Cubemap on first use and returns it as a cube sampler value.
func (cubemap *Cubemap) ToUniform(ctx gpu.Context, hint gpu.UniformType) (UniformValue, bool) {

	if !cubemap.Loaded() {
		return UniformValue{}, false
	}

	if !cubemap.uploaded {

		cubemap.handle = ctx.CreateTexture()
		ctx.BindTexture(gpu.TextureCubeMap, cubemap.handle)

		for i, face := range cubemap.faces {
			b := face.Bounds()
			ctx.TexImage2D(cubemapTargets[i], int32(b.Dx()), int32(b.Dy()), face.Pix)
		}

		ctx.TexParameteri(gpu.TextureCubeMap, gpu.TextureMagFilter, gpu.Linear)
		ctx.TexParameteri(gpu.TextureCubeMap, gpu.TextureMinFilter, gpu.Linear)
		ctx.TexParameteri(gpu.TextureCubeMap, gpu.TextureWrapS, gpu.ClampToEdge)
		ctx.TexParameteri(gpu.TextureCubeMap, gpu.TextureWrapT, gpu.ClampToEdge)
		ctx.GenerateMipmap(gpu.TextureCubeMap)

		cubemap.uploaded = true

	}

	return CubeTextureValue(cubemap.handle), true

}

func decodeFile(path string, flip bool) (*image.RGBA, error) {

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %s", path)
	}
	defer file.Close()

	pixels, err := decodeImage(file, flip)
	return pixels, errors.Wrapf(err, "failed to decode image %s", path)

}

func decodeImage(r io.Reader, flip bool) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return toRGBA(img, flip), nil
}

// toRGBA converts img to tightly packed RGBA, optionally flipped vertically.
func toRGBA(img image.Image, flip bool) *image.RGBA {

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	if flip {
		row := make([]byte, rgba.Stride)
		h := rgba.Bounds().Dy()
		for y := 0; y < h/2; y++ {
			top := rgba.Pix[y*rgba.Stride : (y+1)*rgba.Stride]
			bottom := rgba.Pix[(h-1-y)*rgba.Stride : (h-y)*rgba.Stride]
			copy(row, top)
			copy(top, bottom)
			copy(bottom, row)
		}
	}

	return rgba

}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}
