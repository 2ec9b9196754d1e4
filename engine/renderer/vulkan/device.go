package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vgpix/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	// Graphics capable families guarantee a 1x1x1 transfer granularity, so
	// every copy goes through the graphics queue.
	GraphicsQueueIndex int32
	GraphicsQueue      vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties
}

type VulkanPhysicalDeviceRequirements struct {
	Graphics    bool
	DiscreteGPU bool
	// Smallest acceptable maxImageDimension2D.
	MinImageDimension uint32
}

func DeviceCreate(context *VulkanContext, requirements *VulkanPhysicalDeviceRequirements) error {
	if err := SelectPhysicalDevice(context, requirements); err != nil {
		return err
	}

	core.LogDebug("Creating logical device...")

	queuePriority := float32(1.0)
	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		QueueCount:       1,
		PQueuePriorities: []float32{queuePriority},
	}}

	// Portability implementations must have the subset extension enabled.
	var extensionNames []string
	if hasDeviceExtension(context.Device.PhysicalDevice, "VK_KHR_portability_subset") {
		core.LogDebug("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	if res := vk.CreateDevice(context.Device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &context.Device.LogicalDevice); res != vk.Success {
		return VulkanError("vkCreateDevice", res)
	}
	core.LogDebug("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(context.Device.LogicalDevice, uint32(context.Device.GraphicsQueueIndex), 0, &queue)
	context.Device.GraphicsQueue = queue
	context.Locks.SetQueueFamily(uint32(context.Device.GraphicsQueueIndex))

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(context.Device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit | vk.CommandPoolCreateTransientBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(context.Device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
		return VulkanError("vkCreateCommandPool", res)
	}
	context.Device.GraphicsCommandPool = pool
	core.LogDebug("Graphics command pool created.")

	return nil
}

func DeviceDestroy(context *VulkanContext) {
	if context.Device == nil {
		return
	}
	context.Device.GraphicsQueue = nil

	if context.Device.LogicalDevice != nil {
		if context.Device.GraphicsCommandPool != nil {
			vk.DestroyCommandPool(context.Device.LogicalDevice, context.Device.GraphicsCommandPool, context.Allocator)
			context.Device.GraphicsCommandPool = nil
		}
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil
	context.Device.GraphicsQueueIndex = -1
}

func SelectPhysicalDevice(context *VulkanContext, requirements *VulkanPhysicalDeviceRequirements) error {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return VulkanError("vkEnumeratePhysicalDevices", res)
	}
	if physicalDeviceCount == 0 {
		return fmt.Errorf("no devices which support Vulkan were found")
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return VulkanError("vkEnumeratePhysicalDevices", res)
	}

	for _, physicalDevice := range physicalDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
		properties.Deref()
		properties.Limits.Deref()

		queueIndex, ok := PhysicalDeviceMeetsRequirements(physicalDevice, &properties, requirements)
		if !ok {
			continue
		}

		var memory vk.PhysicalDeviceMemoryProperties
		vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &memory)
		memory.Deref()

		core.LogInfo("Selected device: '%s' (%s).", cString(properties.DeviceName[:]), deviceTypeString(properties.DeviceType))
		core.LogDebug(
			"Vulkan API version: %d.%d.%d",
			vk.Version(properties.ApiVersion).Major(),
			vk.Version(properties.ApiVersion).Minor(),
			vk.Version(properties.ApiVersion).Patch(),
		)
		for j := uint32(0); j < memory.MemoryHeapCount; j++ {
			memory.MemoryHeaps[j].Deref()
			sizeMiB := uint64(memory.MemoryHeaps[j].Size) / 1024 / 1024
			if vk.MemoryHeapFlagBits(memory.MemoryHeaps[j].Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
				core.LogDebug("Local GPU memory: %d MiB", sizeMiB)
			} else {
				core.LogDebug("Shared System memory: %d MiB", sizeMiB)
			}
		}

		context.Device.PhysicalDevice = physicalDevice
		context.Device.GraphicsQueueIndex = int32(queueIndex)
		context.Device.Properties = properties
		context.Device.Memory = memory
		return nil
	}

	return fmt.Errorf("no physical devices were found which meet the requirements")
}

// PhysicalDeviceMeetsRequirements returns the queue family transfers should
// be submitted to when the device is acceptable.
func PhysicalDeviceMeetsRequirements(device vk.PhysicalDevice, properties *vk.PhysicalDeviceProperties, requirements *VulkanPhysicalDeviceRequirements) (uint32, bool) {
	name := cString(properties.DeviceName[:])

	if requirements.DiscreteGPU && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
		core.LogDebug("Device '%s' is not a discrete GPU, and one is required. Skipping.", name)
		return 0, false
	}
	if properties.Limits.MaxImageDimension2D < requirements.MinImageDimension {
		core.LogDebug("Device '%s' supports images up to %d, %d required. Skipping.", name, properties.Limits.MaxImageDimension2D, requirements.MinImageDimension)
		return 0, false
	}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	for i := range queueFamilies {
		queueFamilies[i].Deref()
		flags := vk.QueueFlagBits(queueFamilies[i].QueueFlags)
		if requirements.Graphics && flags&vk.QueueGraphicsBit == 0 {
			continue
		}
		if flags&(vk.QueueGraphicsBit|vk.QueueTransferBit) == 0 {
			continue
		}
		core.LogDebug("Device '%s' meets queue requirements with family %d.", name, i)
		return uint32(i), true
	}

	core.LogDebug("Device '%s' has no suitable queue family. Skipping.", name)
	return 0, false
}

func hasDeviceExtension(device vk.PhysicalDevice, extension string) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success || count == 0 {
		return false
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, available); res != vk.Success {
		return false
	}
	for i := range available {
		available[i].Deref()
		if cString(available[i].ExtensionName[:]) == extension {
			return true
		}
	}
	return false
}

func deviceTypeString(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "unknown"
}
