package vulkan

import (
	vk "github.com/goki/vulkan"
)

// ImageFormat is the only texel layout the backend stores. Transfers never
// convert, so the bytes are kept as given.
const ImageFormat = vk.FormatR8g8b8a8Unorm

// VulkanImage is a device local 2D color image. It lives in
// VK_IMAGE_LAYOUT_GENERAL for its whole life so every transfer can use it
// without layout bookkeeping.
type VulkanImage struct {
	Handle vk.Image
	Memory vk.DeviceMemory
	Width  uint32
	Height uint32
}

func ImageCreate(context *VulkanContext, width, height uint32) (*VulkanImage, error) {
	imageCreateInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    ImageFormat,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit | vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}

	image := &VulkanImage{Width: width, Height: height}
	if res := vk.CreateImage(context.Device.LogicalDevice, &imageCreateInfo, context.Allocator, &image.Handle); res != vk.Success {
		return nil, VulkanError("vkCreateImage", res)
	}

	var requirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(context.Device.LogicalDevice, image.Handle, &requirements)
	memory, err := context.allocate(requirements, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(context.Device.LogicalDevice, image.Handle, context.Allocator)
		return nil, err
	}
	image.Memory = memory

	if res := vk.BindImageMemory(context.Device.LogicalDevice, image.Handle, image.Memory, 0); res != vk.Success {
		image.Destroy(context)
		return nil, VulkanError("vkBindImageMemory", res)
	}
	return image, nil
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	if vi.Handle != nil {
		vk.DestroyImage(context.Device.LogicalDevice, vi.Handle, context.Allocator)
		vi.Handle = nil
	}
	if vi.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vi.Memory, context.Allocator)
		vi.Memory = nil
	}
}

func colorSubresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: 1,
		LayerCount: 1,
	}
}

// transitionToGeneral moves a freshly created image out of the undefined
// layout.
func (vi *VulkanImage) transitionToGeneral(cb *VulkanCommandBuffer) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       0,
		DstAccessMask:       vk.AccessFlags(vk.AccessTransferReadBit | vk.AccessTransferWriteBit),
		OldLayout:           vk.ImageLayoutUndefined,
		NewLayout:           vk.ImageLayoutGeneral,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SubresourceRange:    colorSubresourceRange(),
	}
	vk.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// transferBarrier orders the previous transfer on the image before the next.
func (vi *VulkanImage) transferBarrier(cb *VulkanCommandBuffer) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessTransferReadBit | vk.AccessTransferWriteBit),
		OldLayout:           vk.ImageLayoutGeneral,
		NewLayout:           vk.ImageLayoutGeneral,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Handle,
		SubresourceRange:    colorSubresourceRange(),
	}
	vk.CmdPipelineBarrier(cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// copyRegion describes a rectangle of the image backed by a tightly packed
// range of a buffer starting at offset.
func copyRegion(offset uint64, rowLength uint32, x, y int32, width, height uint32) vk.BufferImageCopy {
	return vk.BufferImageCopy{
		BufferOffset:      vk.DeviceSize(offset),
		BufferRowLength:   rowLength,
		BufferImageHeight: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageOffset: vk.Offset3D{X: x, Y: y, Z: 0},
		ImageExtent: vk.Extent3D{Width: width, Height: height, Depth: 1},
	}
}
