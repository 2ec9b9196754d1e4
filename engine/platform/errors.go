package platform

import "errors"

var ErrVulkanUnsupported = errors.New("vulkan loader not found by glfw")
