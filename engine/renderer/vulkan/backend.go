// Package vulkan implements the renderer backend on a Vulkan device. There is
// no presentation: the window surface is a device local color image and every
// pixel path is a buffer/image transfer on the graphics queue.
package vulkan

import (
	"fmt"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/platform"
	"github.com/spaghettifunk/vgpix/engine/renderer"
	"github.com/spaghettifunk/vgpix/engine/renderer/blit"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

func init() {
	renderer.RegisterBackend(renderer.Vulkan, func() renderer.RendererBackend { return New() })
}

const validationLayerName = "VK_LAYER_KHRONOS_validation"

type VulkanRenderer struct {
	platform     *platform.Platform
	context      *VulkanContext
	config       metadata.RendererBackendConfig
	capabilities metadata.RendererCapabilities

	nextTextureID uint32
	textures      map[uint32]*VulkanImage

	surfaceWidth  int32
	surfaceHeight int32
}

func New() *VulkanRenderer {
	return &VulkanRenderer{
		context: &VulkanContext{
			Device: &VulkanDevice{GraphicsQueueIndex: -1},
			Locks:  NewVulkanLockPool(),
		},
		textures:      make(map[uint32]*VulkanImage),
		nextTextureID: 1,
	}
}

func (vr *VulkanRenderer) Initialize(config *metadata.RendererBackendConfig) error {
	if config.SurfaceWidth <= 0 || config.SurfaceHeight <= 0 {
		return fmt.Errorf("invalid surface size %dx%d: %w", config.SurfaceWidth, config.SurfaceHeight, core.ErrIllegalArgument)
	}
	vr.config = *config

	if err := vr.initialize(); err != nil {
		vr.Shutdown()
		return err
	}
	core.LogInfo("vulkan renderer initialized with a %dx%d surface", vr.surfaceWidth, vr.surfaceHeight)
	return nil
}

func (vr *VulkanRenderer) initialize() error {
	if err := vr.loadEntryPoints(); err != nil {
		return err
	}
	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize vk: %w", err)
	}
	if err := vr.createInstance(); err != nil {
		return err
	}

	requirements := &VulkanPhysicalDeviceRequirements{
		Graphics:          true,
		DiscreteGPU:       false,
		MinImageDimension: uint32(max(vr.config.SurfaceWidth, vr.config.SurfaceHeight)),
	}
	if err := DeviceCreate(vr.context, requirements); err != nil {
		return err
	}

	fence, err := NewFence(vr.context, true)
	if err != nil {
		return err
	}
	vr.context.TransferFence = fence

	if err := vr.createFramebuffer(vr.config.SurfaceWidth, vr.config.SurfaceHeight); err != nil {
		return err
	}

	vr.capabilities = metadata.RendererCapabilities{
		NonPowerOfTwo:  true,
		MaxTextureSize: vr.context.Device.Properties.Limits.MaxImageDimension2D,
	}
	return nil
}

// loadEntryPoints resolves vkGetInstanceProcAddr, from the system loader when
// headless and through glfw otherwise.
func (vr *VulkanRenderer) loadEntryPoints() error {
	if vr.config.Headless {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return fmt.Errorf("failed to load the vulkan loader: %w", err)
		}
		return nil
	}

	vr.platform = platform.New()
	if err := vr.platform.Startup(vr.config.ApplicationName, vr.config.SurfaceWidth, vr.config.SurfaceHeight, false); err != nil {
		vr.platform = nil
		return err
	}
	procAddr := vr.platform.GetVulkanInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)
	return nil
}

func (vr *VulkanRenderer) createInstance() error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(vr.config.ApplicationName),
		PEngineName:        VulkanSafeString("vgpix"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	var extensions []string
	if vr.platform != nil {
		extensions = append(extensions, vr.platform.GetRequiredExtensionNames()...)
	}
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	debug := vr.config.Validation && hasInstanceLayer(validationLayerName)
	if vr.config.Validation && !debug {
		core.LogWarn("validation requested but %s is not installed", validationLayerName)
	}
	if debug {
		layers = append(layers, validationLayerName)
		extensions = append(extensions, vk.ExtDebugReportExtensionName)
	}
	for _, e := range extensions {
		core.LogDebug("Required extension: %s", e)
	}

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &instance); res != vk.Success {
		return VulkanError("vkCreateInstance", res)
	}
	vr.context.Instance = instance
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		return err
	}
	core.LogDebug("Vulkan Instance created.")

	if debug {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if res := vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg); res != vk.Success {
			return VulkanError("vkCreateDebugReportCallback", res)
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created.")
	}
	return nil
}

func hasInstanceLayer(name string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success || count == 0 {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if cString(available[i].LayerName[:]) == name {
			return true
		}
	}
	return false
}

func (vr *VulkanRenderer) createFramebuffer(width, height int32) error {
	image, err := ImageCreate(vr.context, uint32(width), uint32(height))
	if err != nil {
		return err
	}
	if err := vr.submit(func(cb *VulkanCommandBuffer) { image.transitionToGeneral(cb) }); err != nil {
		image.Destroy(vr.context)
		return err
	}
	// start from transparent black like the software surface
	if err := vr.fill(image, metadata.Rect{Width: width, Height: height}, metadata.Color{}); err != nil {
		image.Destroy(vr.context)
		return err
	}
	vr.context.Framebuffer = image
	vr.surfaceWidth, vr.surfaceHeight = width, height
	return nil
}

func (vr *VulkanRenderer) Shutdown() error {
	ctx := vr.context
	if ctx.Device.LogicalDevice != nil {
		vk.DeviceWaitIdle(ctx.Device.LogicalDevice)

		if n := len(vr.textures); n != 0 {
			core.LogWarn("vulkan renderer shut down with %d live textures", n)
		}
		for id, image := range vr.textures {
			image.Destroy(ctx)
			delete(vr.textures, id)
		}
		if ctx.Framebuffer != nil {
			ctx.Framebuffer.Destroy(ctx)
			ctx.Framebuffer = nil
		}
		if ctx.Staging != nil {
			ctx.Staging.Destroy(ctx)
			ctx.Staging = nil
		}
		if ctx.TransferFence != nil {
			ctx.TransferFence.FenceDestroy(ctx)
			ctx.TransferFence = nil
		}
	}
	DeviceDestroy(ctx)

	if ctx.debugMessenger != nil {
		vk.DestroyDebugReportCallback(ctx.Instance, ctx.debugMessenger, ctx.Allocator)
		ctx.debugMessenger = nil
	}
	if ctx.Instance != nil {
		vk.DestroyInstance(ctx.Instance, ctx.Allocator)
		ctx.Instance = nil
	}
	if vr.platform != nil {
		vr.platform.Shutdown()
		vr.platform = nil
	}
	vr.surfaceWidth, vr.surfaceHeight = 0, 0
	return nil
}

func (vr *VulkanRenderer) Capabilities() metadata.RendererCapabilities {
	return vr.capabilities
}

func (vr *VulkanRenderer) Resized(width, height int32) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d: %w", width, height, core.ErrIllegalArgument)
	}
	if limit := int32(vr.capabilities.MaxTextureSize); limit > 0 && (width > limit || height > limit) {
		return fmt.Errorf("surface size %dx%d exceeds device limit %d: %w", width, height, limit, core.ErrIllegalArgument)
	}
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	old := vr.context.Framebuffer
	if err := vr.createFramebuffer(width, height); err != nil {
		return err
	}
	if old != nil {
		old.Destroy(vr.context)
	}
	return nil
}

func (vr *VulkanRenderer) SurfaceSize() (int32, int32) {
	return vr.surfaceWidth, vr.surfaceHeight
}

func (vr *VulkanRenderer) TextureCreate(t *metadata.Texture, pixels []uint8) error {
	w, h := int32(t.Width), int32(t.Height)
	src := metadata.NewPixelBuffer(pixels, w, h)
	if err := src.Validate(); err != nil {
		return fmt.Errorf("texture %dx%d: %s: %w", w, h, err, core.ErrIllegalArgument)
	}

	var image *VulkanImage
	err := vr.context.Locks.SafeCall(ImageManagement, func() error {
		var err error
		image, err = ImageCreate(vr.context, t.Width, t.Height)
		return err
	})
	if err != nil {
		return err
	}
	if err := vr.submit(func(cb *VulkanCommandBuffer) { image.transitionToGeneral(cb) }); err != nil {
		image.Destroy(vr.context)
		return err
	}
	if err := vr.upload(image, metadata.Rect{Width: w, Height: h}, src); err != nil {
		image.Destroy(vr.context)
		return err
	}

	t.ID = vr.nextTextureID
	vr.nextTextureID++
	t.Generation = 0
	t.InternalData = image
	vr.textures[t.ID] = image
	return nil
}

func (vr *VulkanRenderer) TextureWriteData(t *metadata.Texture, region metadata.Rect, stride int32, pixels []uint8) error {
	image, ok := vr.textures[t.ID]
	if !ok {
		return fmt.Errorf("texture %d: %w", t.ID, core.ErrBadHandle)
	}
	src := &metadata.PixelBuffer{
		Data:   pixels,
		Width:  region.Width,
		Height: region.Height,
		Stride: stride,
		Format: metadata.SupportedImageFormat,
	}
	if err := src.Validate(); err != nil {
		return fmt.Errorf("texture %d upload: %s: %w", t.ID, err, core.ErrIllegalArgument)
	}
	if err := vr.upload(image, region, src); err != nil {
		return err
	}
	t.Generation++
	return nil
}

func (vr *VulkanRenderer) TextureDestroy(t *metadata.Texture) {
	image, ok := vr.textures[t.ID]
	if !ok {
		return
	}
	vr.context.Locks.SafeCall(ImageManagement, func() error {
		image.Destroy(vr.context)
		return nil
	})
	delete(vr.textures, t.ID)
	t.InternalData = nil
	t.ID = 0
}

func (vr *VulkanRenderer) FramebufferDraw(x, y, width, height int32, pixels []uint8) error {
	src := metadata.NewPixelBuffer(pixels, width, height)
	if err := src.Validate(); err != nil {
		return fmt.Errorf("draw pixels: %s: %w", err, core.ErrIllegalArgument)
	}
	return vr.upload(vr.context.Framebuffer, metadata.Rect{X: x, Y: y, Width: width, Height: height}, src)
}

func (vr *VulkanRenderer) FramebufferRead(x, y, width, height int32, pixels []uint8) error {
	dst := metadata.NewPixelBuffer(pixels, width, height)
	if err := dst.Validate(); err != nil {
		return fmt.Errorf("read pixels: %s: %w", err, core.ErrIllegalArgument)
	}
	return vr.download(vr.context.Framebuffer, metadata.Rect{X: x, Y: y, Width: width, Height: height}, dst)
}

// FramebufferCopy reads the clipped source into staging before writing it
// back, so overlapping rectangles behave like a copy through a snapshot.
func (vr *VulkanRenderer) FramebufferCopy(dx, dy, sx, sy, width, height int32) error {
	src, ok := blit.Clip(metadata.Rect{X: sx, Y: sy, Width: width, Height: height}, vr.surfaceWidth, vr.surfaceHeight)
	if !ok {
		return nil
	}
	snapshot := metadata.NewPixelBuffer(make([]byte, int(src.Width)*int(src.Height)*metadata.BytesPerPixel), src.Width, src.Height)
	if err := vr.download(vr.context.Framebuffer, src, snapshot); err != nil {
		return err
	}
	dst := metadata.Rect{X: blit.Shift(dx, sx, src.X), Y: blit.Shift(dy, sy, src.Y), Width: src.Width, Height: src.Height}
	return vr.upload(vr.context.Framebuffer, dst, snapshot)
}

func (vr *VulkanRenderer) FramebufferClear(region metadata.Rect, color metadata.Color) error {
	return vr.fill(vr.context.Framebuffer, region, color)
}

func (vr *VulkanRenderer) fill(image *VulkanImage, region metadata.Rect, color metadata.Color) error {
	r, ok := blit.Clip(region, int32(image.Width), int32(image.Height))
	if !ok {
		return nil
	}
	size := uint64(r.Width) * uint64(r.Height) * metadata.BytesPerPixel
	staging, err := ensureStaging(vr.context, size)
	if err != nil {
		return err
	}
	fill := metadata.NewPixelBuffer(staging.Bytes(size), r.Width, r.Height)
	blit.Fill(fill, color, 0, 0, r.Width, r.Height)
	return vr.copyToImage(image, staging, r)
}

// Every transfer waits on its fence before returning, so there is never
// pending work to flush.
func (vr *VulkanRenderer) Flush() error {
	return nil
}

func (vr *VulkanRenderer) Finish() error {
	if res := vk.DeviceWaitIdle(vr.context.Device.LogicalDevice); res != vk.Success {
		return VulkanError("vkDeviceWaitIdle", res)
	}
	return nil
}

// upload writes src into image at region.X, region.Y, clipped to the image.
func (vr *VulkanRenderer) upload(image *VulkanImage, region metadata.Rect, src *metadata.PixelBuffer) error {
	r, ok := blit.Clip(region, int32(image.Width), int32(image.Height))
	if !ok {
		return nil
	}
	size := uint64(r.Width) * uint64(r.Height) * metadata.BytesPerPixel
	staging, err := ensureStaging(vr.context, size)
	if err != nil {
		return err
	}
	packed := metadata.NewPixelBuffer(staging.Bytes(size), r.Width, r.Height)
	blit.CopyPixels(packed, src, 0, 0, blit.Shift(0, region.X, r.X), blit.Shift(0, region.Y, r.Y), r.Width, r.Height)
	return vr.copyToImage(image, staging, r)
}

// download reads region of image into dst at the matching offset, clipped to
// the image.
func (vr *VulkanRenderer) download(image *VulkanImage, region metadata.Rect, dst *metadata.PixelBuffer) error {
	r, ok := blit.Clip(region, int32(image.Width), int32(image.Height))
	if !ok {
		return nil
	}
	size := uint64(r.Width) * uint64(r.Height) * metadata.BytesPerPixel
	staging, err := ensureStaging(vr.context, size)
	if err != nil {
		return err
	}
	copyRegions := []vk.BufferImageCopy{copyRegion(0, 0, r.X, r.Y, uint32(r.Width), uint32(r.Height))}
	err = vr.submit(func(cb *VulkanCommandBuffer) {
		image.transferBarrier(cb)
		vk.CmdCopyImageToBuffer(cb.Handle, image.Handle, vk.ImageLayoutGeneral, staging.Handle, 1, copyRegions)
	})
	if err != nil {
		return err
	}
	packed := metadata.NewPixelBuffer(staging.Bytes(size), r.Width, r.Height)
	blit.CopyPixels(dst, packed, blit.Shift(0, region.X, r.X), blit.Shift(0, region.Y, r.Y), 0, 0, r.Width, r.Height)
	return nil
}

// copyToImage copies the tightly packed head of staging to r of image.
func (vr *VulkanRenderer) copyToImage(image *VulkanImage, staging *VulkanBuffer, r metadata.Rect) error {
	copyRegions := []vk.BufferImageCopy{copyRegion(0, 0, r.X, r.Y, uint32(r.Width), uint32(r.Height))}
	return vr.submit(func(cb *VulkanCommandBuffer) {
		image.transferBarrier(cb)
		vk.CmdCopyBufferToImage(cb.Handle, staging.Handle, image.Handle, vk.ImageLayoutGeneral, 1, copyRegions)
	})
}

// submit records commands into a single use command buffer and waits for
// the queue to execute them.
func (vr *VulkanRenderer) submit(record func(cb *VulkanCommandBuffer)) error {
	device := vr.context.Device
	var cb *VulkanCommandBuffer
	err := vr.context.Locks.SafeCall(CommandBufferManagement, func() error {
		var err error
		cb, err = AllocateAndBeginSingleUse(vr.context, device.GraphicsCommandPool)
		return err
	})
	if err != nil {
		return err
	}
	record(cb)
	return cb.EndSingleUse(vr.context, device.GraphicsCommandPool, device.GraphicsQueue, uint32(device.GraphicsQueueIndex))
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
