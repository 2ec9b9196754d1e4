package metadata

type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName string
	/** @brief Initial size of the window surface. */
	SurfaceWidth  int32
	SurfaceHeight int32
	/** @brief Whether the backend may report non-power-of-two texture support. */
	NonPowerOfTwo bool
	/** @brief Run without a visible window. */
	Headless bool
	/** @brief Enable the GPU API validation layers when available. */
	Validation bool
}

/** @brief What a backend can do. Queried once on initialization. */
type RendererCapabilities struct {
	/** @brief Textures whose sides are not powers of two can be uploaded directly. */
	NonPowerOfTwo bool
	/** @brief Largest texture side supported. 0 when unbounded. */
	MaxTextureSize uint32
}

// GetAligned rounds operand up to a multiple of granularity, which must be a
// power of two.
func GetAligned(operand, granularity uint64) uint64 {
	return (operand + (granularity - 1)) &^ (granularity - 1)
}
