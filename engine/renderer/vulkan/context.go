package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vgpix/engine/core"
)

// VulkanContext holds every Vulkan object the backend owns. There is no
// swapchain: the window surface is an offscreen color image.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	debugMessenger vk.DebugReportCallback

	Device *VulkanDevice

	// Offscreen image standing in for the window surface.
	Framebuffer *VulkanImage

	// Host visible buffer every transfer goes through. Grown on demand.
	Staging *VulkanBuffer

	// Signaled when the last submitted transfer completed.
	TransferFence *VulkanFence

	Locks *VulkanLockPool
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) int32 {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return int32(i)
		}
	}
	core.LogWarn("Unable to find suitable memory type!")
	return -1
}

// allocate finds a memory type matching requirements and allocates from it.
func (vc *VulkanContext) allocate(requirements vk.MemoryRequirements, propertyFlags vk.MemoryPropertyFlagBits) (vk.DeviceMemory, error) {
	var memory vk.DeviceMemory
	requirements.Deref()
	index := vc.FindMemoryIndex(requirements.MemoryTypeBits, uint32(propertyFlags))
	if index < 0 {
		return memory, VulkanError("find memory type", vk.ErrorOutOfDeviceMemory)
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: uint32(index),
	}
	if res := vk.AllocateMemory(vc.Device.LogicalDevice, &allocateInfo, vc.Allocator, &memory); res != vk.Success {
		return memory, VulkanError("vkAllocateMemory", res)
	}
	return memory, nil
}
