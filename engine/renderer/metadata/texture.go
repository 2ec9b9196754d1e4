package metadata

type TextureFlag int

const (
	/** @brief Indicates if the texture has transparency. */
	TextureFlagHasTransparency TextureFlag = 0x1
	/** @brief Indicates if the texture can be written (rendered) to. */
	TextureFlagIsWriteable TextureFlag = 0x2
	/** @brief Indicates the texture storage is padded to power-of-two dimensions. */
	TextureFlagIsPadded TextureFlag = 0x4
)

/** @brief Holds bit flags for textures.. */
type TextureFlagBits uint8

/**
 * @brief Represents various types of textures.
 */
type TextureType int

const (
	/** @brief A standard two-dimensional texture. */
	TextureType2d TextureType = iota
)

/**
 * @brief Represents a GPU texture owned by a backend.
 */
type Texture struct {
	/** @brief The unique texture identifier, assigned by the backend. */
	ID uint32
	/** @brief The texture type. */
	TextureType TextureType
	/** @brief The texture Width. */
	Width uint32
	/** @brief The texture Height. */
	Height uint32
	/** @brief The number of channels in the texture. */
	ChannelCount uint8
	/** @brief Holds various Flags for this texture. */
	Flags TextureFlagBits
	/** @brief The texture Generation. Incremented every time the data is uploaded. */
	Generation uint32
	/** @brief The texture Name. */
	Name string
	/** @brief Backend specific data. */
	InternalData interface{}
}

/** @brief Represents supported texture filtering modes. */
type TextureFilter int

const (
	/** @brief Nearest-neighbor filtering. */
	TextureFilterModeNearest TextureFilter = 0x0
	/** @brief Linear (i.e. bilinear) filtering.*/
	TextureFilterModeLinear TextureFilter = 0x1
	/** @brief A faster approximation of bilinear filtering. */
	TextureFilterModeApproxLinear TextureFilter = 0x2
)

func (f TextureFilter) String() string {
	switch f {
	case TextureFilterModeNearest:
		return "nearest"
	case TextureFilterModeLinear:
		return "linear"
	case TextureFilterModeApproxLinear:
		return "approx-linear"
	}
	return "unknown"
}
