package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

// stagingGranularity is the step the staging buffer grows by.
const stagingGranularity = 64 * 1024

// VulkanBuffer is a host visible, coherent transfer buffer. It stays mapped
// for its whole life.
type VulkanBuffer struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	Size   uint64

	mapped unsafe.Pointer
}

func BufferCreate(context *VulkanContext, size uint64) (*VulkanBuffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit | vk.BufferUsageTransferDstBit),
		SharingMode: vk.SharingModeExclusive,
	}

	buffer := &VulkanBuffer{Size: size}
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &buffer.Handle); res != vk.Success {
		return nil, VulkanError("vkCreateBuffer", res)
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, buffer.Handle, &requirements)
	memory, err := context.allocate(requirements, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, buffer.Handle, context.Allocator)
		return nil, err
	}
	buffer.Memory = memory

	if res := vk.BindBufferMemory(context.Device.LogicalDevice, buffer.Handle, buffer.Memory, 0); res != vk.Success {
		buffer.Destroy(context)
		return nil, VulkanError("vkBindBufferMemory", res)
	}
	if res := vk.MapMemory(context.Device.LogicalDevice, buffer.Memory, 0, vk.DeviceSize(size), 0, &buffer.mapped); res != vk.Success {
		buffer.Destroy(context)
		return nil, VulkanError("vkMapMemory", res)
	}
	return buffer, nil
}

func (vb *VulkanBuffer) Destroy(context *VulkanContext) {
	if vb.mapped != nil {
		vk.UnmapMemory(context.Device.LogicalDevice, vb.Memory)
		vb.mapped = nil
	}
	if vb.Handle != nil {
		vk.DestroyBuffer(context.Device.LogicalDevice, vb.Handle, context.Allocator)
		vb.Handle = nil
	}
	if vb.Memory != nil {
		vk.FreeMemory(context.Device.LogicalDevice, vb.Memory, context.Allocator)
		vb.Memory = nil
	}
	vb.Size = 0
}

// Bytes exposes the first n bytes of the mapping.
func (vb *VulkanBuffer) Bytes(n uint64) []byte {
	return unsafe.Slice((*byte)(vb.mapped), n)
}

// ensureStaging grows the shared staging buffer to at least size bytes.
// Contents are not preserved.
func ensureStaging(context *VulkanContext, size uint64) (*VulkanBuffer, error) {
	if context.Staging != nil && context.Staging.Size >= size {
		return context.Staging, nil
	}
	size = metadata.GetAligned(size, stagingGranularity)

	var grown *VulkanBuffer
	err := context.Locks.SafeCall(BufferManagement, func() error {
		if context.Staging != nil {
			context.Staging.Destroy(context)
			context.Staging = nil
		}
		b, err := BufferCreate(context, size)
		if err != nil {
			return err
		}
		grown = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	core.LogDebug("vulkan staging buffer grown to %d bytes", size)
	context.Staging = grown
	return grown, nil
}
