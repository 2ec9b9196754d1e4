package systems

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/math"
	"github.com/spaghettifunk/vgpix/engine/renderer"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

type ImageSystemConfig struct {
	/** @brief Largest accepted image width. */
	MaxImageWidth int32
	/** @brief Largest accepted image height. */
	MaxImageHeight int32
	/** @brief Largest accepted width*height. */
	MaxImagePixels int64
}

// ImageSystem creates, synchronizes and destroys image resources. It keeps
// the GPU texture of every image consistent with its CPU pixels.
type ImageSystem struct {
	Config *ImageSystemConfig

	table    *ResourceTable
	renderer *renderer.Renderer
	memory   core.Allocator
	metrics  *core.TransferMetrics
	events   *core.EventSystem
}

func NewImageSystem(config *ImageSystemConfig, table *ResourceTable, r *renderer.Renderer, memory core.Allocator, metrics *core.TransferMetrics, events *core.EventSystem) (*ImageSystem, error) {
	if config.MaxImageWidth <= 0 || config.MaxImageHeight <= 0 || config.MaxImagePixels <= 0 {
		err := fmt.Errorf("func NewImageSystem - image limits must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &ImageSystem{
		Config:   config,
		table:    table,
		renderer: r,
		memory:   memory,
		metrics:  metrics,
		events:   events,
	}, nil
}

// Create validates params, allocates the padded storage, uploads it zeroed
// to a new texture and registers the image. On failure nothing stays
// allocated or registered.
func (is *ImageSystem) Create(params metadata.ImageCreateParams) (*metadata.Image, error) {
	if !metadata.IsValidFormat(params.Format) {
		return nil, fmt.Errorf("format %d: %w", params.Format, core.ErrUnsupportedImageFormat)
	}
	if !metadata.IsSupportedFormat(params.Format) {
		return nil, fmt.Errorf("format %s: %w", params.Format, core.ErrUnsupportedImageFormat)
	}
	if params.Width <= 0 || params.Width > is.Config.MaxImageWidth ||
		params.Height <= 0 || params.Height > is.Config.MaxImageHeight ||
		int64(params.Width)*int64(params.Height) > is.Config.MaxImagePixels {
		return nil, fmt.Errorf("image size %dx%d: %w", params.Width, params.Height, core.ErrIllegalArgument)
	}
	if !params.Quality.IsValid() {
		return nil, fmt.Errorf("quality bits %#x: %w", uint32(params.Quality), core.ErrIllegalArgument)
	}

	texWidth := math.NextPowerOfTwo(params.Width)
	texHeight := math.NextPowerOfTwo(params.Height)
	size := uint64(texWidth) * uint64(texHeight) * metadata.BytesPerPixel

	data, err := is.memory.Allocate(size, core.MEMORY_TAG_IMAGE)
	if err != nil {
		return nil, err
	}

	img := &metadata.Image{
		Handle:     metadata.NewImageHandle(),
		Format:     params.Format,
		Width:      params.Width,
		Height:     params.Height,
		TexWidth:   texWidth,
		TexHeight:  texHeight,
		TexWidthK:  float32(params.Width) / float32(texWidth),
		TexHeightK: float32(params.Height) / float32(texHeight),
		Quality:    params.Quality,
		Data:       data,
	}
	img.Texture = &metadata.Texture{
		TextureType:  metadata.TextureType2d,
		Width:        uint32(texWidth),
		Height:       uint32(texHeight),
		ChannelCount: metadata.BytesPerPixel,
		Flags:        metadata.TextureFlagBits(metadata.TextureFlagHasTransparency),
		Name:         img.Handle.String(),
	}
	if texWidth != params.Width || texHeight != params.Height {
		img.Texture.Flags |= metadata.TextureFlagBits(metadata.TextureFlagIsPadded)
	}

	if err := is.renderer.TextureCreate(img.Texture, data); err != nil {
		is.memory.Free(size, core.MEMORY_TAG_IMAGE)
		// backends rarely say why; treat any refusal as the GPU running out
		return nil, fmt.Errorf("texture for image %s: %w: %w", img.Handle, core.ErrOutOfMemory, err)
	}
	if err := is.table.Register(img); err != nil {
		is.renderer.TextureDestroy(img.Texture)
		is.memory.Free(size, core.MEMORY_TAG_IMAGE)
		return nil, err
	}

	var ctx core.EventContext
	ctx.Data.C[0] = img.Handle.String()
	ctx.Data.I32[0] = img.Width
	ctx.Data.I32[1] = img.Height
	is.events.Fire(core.EVENT_CODE_IMAGE_CREATED, is, ctx)

	core.LogDebug("image %s created: %dx%d (texture %dx%d)", img.Handle, img.Width, img.Height, texWidth, texHeight)
	return img, nil
}

// Destroy releases the texture and storage of the image registered under
// handle and removes it from the table.
func (is *ImageSystem) Destroy(handle metadata.ImageHandle) error {
	index := is.table.FindIndex(handle)
	if index < 0 {
		return fmt.Errorf("image %s: %w", handle, core.ErrBadHandle)
	}
	img, err := is.table.Deregister(index)
	if err != nil {
		return err
	}
	if img.Texture != nil {
		is.renderer.TextureDestroy(img.Texture)
		img.Texture = nil
	}
	is.memory.Free(uint64(len(img.Data)), core.MEMORY_TAG_IMAGE)
	img.Data = nil

	var ctx core.EventContext
	ctx.Data.C[0] = handle.String()
	is.events.Fire(core.EVENT_CODE_IMAGE_DESTROYED, is, ctx)

	core.LogDebug("image %s destroyed", handle)
	return nil
}

// TextureSync is a prepared texture upload. Everything the upload needs is
// allocated up front so that a mutation followed by Commit cannot fail on
// memory halfway through.
type TextureSync struct {
	system  *ImageSystem
	image   *metadata.Image
	scratch []byte
}

// NeedsRescale reports whether uploads of img have to be scaled up to the
// padded size because the backend cannot take non power of two textures.
func (is *ImageSystem) NeedsRescale(img *metadata.Image) bool {
	padded := img.Width < img.TexWidth || img.Height < img.TexHeight
	return padded && !is.renderer.Capabilities().NonPowerOfTwo
}

// BeginSync prepares a texture upload for img.
func (is *ImageSystem) BeginSync(img *metadata.Image) (*TextureSync, error) {
	ts := &TextureSync{system: is, image: img}
	if is.NeedsRescale(img) {
		scratch, err := is.memory.Allocate(uint64(len(img.Data)), core.MEMORY_TAG_TEXTURE)
		if err != nil {
			return nil, err
		}
		ts.scratch = scratch
	}
	return ts, nil
}

// Abort releases what BeginSync allocated without uploading.
func (ts *TextureSync) Abort() {
	if ts.scratch != nil {
		ts.system.memory.Free(uint64(len(ts.scratch)), core.MEMORY_TAG_TEXTURE)
		ts.scratch = nil
	}
}

// Commit uploads the logical pixels of the image to its texture. The CPU
// storage is never modified; rescaled pixels only live in the scratch buffer.
func (ts *TextureSync) Commit() error {
	defer ts.Abort()

	is, img := ts.system, ts.image
	clock := core.NewClock()
	clock.Start()

	var (
		region metadata.Rect
		pixels []byte
		scaled = ts.scratch != nil
	)
	if scaled {
		src := &image.NRGBA{
			Pix:    img.Data,
			Stride: int(img.Stride()),
			Rect:   image.Rect(0, 0, int(img.Width), int(img.Height)),
		}
		dst := &image.NRGBA{
			Pix:    ts.scratch,
			Stride: int(img.Stride()),
			Rect:   image.Rect(0, 0, int(img.TexWidth), int(img.TexHeight)),
		}
		interpolatorFor(img.Quality.Filter()).Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		region = metadata.Rect{Width: img.TexWidth, Height: img.TexHeight}
		pixels = ts.scratch
	} else {
		region = img.Bounds()
		pixels = img.Data
	}

	if err := is.renderer.TextureWriteData(img.Texture, region, img.Stride(), pixels); err != nil {
		core.LogError("texture upload for image %s failed: %s", img.Handle, err)
		return err
	}

	clock.Update()
	is.metrics.RecordUpload(clock.Elapsed(), int(region.Width)*int(region.Height)*metadata.BytesPerPixel, scaled)

	var ctx core.EventContext
	ctx.Data.C[0] = img.Handle.String()
	if scaled {
		ctx.Data.U32[0] = 1
	}
	is.events.Fire(core.EVENT_CODE_TEXTURE_SYNCED, is, ctx)
	return nil
}

// Sync uploads img right away.
func (is *ImageSystem) Sync(img *metadata.Image) error {
	ts, err := is.BeginSync(img)
	if err != nil {
		return err
	}
	return ts.Commit()
}

func (is *ImageSystem) Shutdown() error {
	for _, img := range is.table.Images() {
		if err := is.Destroy(img.Handle); err != nil {
			return err
		}
	}
	return nil
}

func interpolatorFor(filter metadata.TextureFilter) draw.Interpolator {
	switch filter {
	case metadata.TextureFilterModeNearest:
		return draw.NearestNeighbor
	case metadata.TextureFilterModeApproxLinear:
		return draw.ApproxBiLinear
	}
	return draw.BiLinear
}
