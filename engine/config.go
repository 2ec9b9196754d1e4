package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/vgpix/engine/renderer"
)

type SurfaceConfig struct {
	// Window surface width, in pixels.
	Width int32 `toml:"width"`
	// Window surface height, in pixels.
	Height int32 `toml:"height"`
}

type BackendConfig struct {
	// "software" or "vulkan".
	Type string `toml:"type"`
	// Whether the backend may keep non power of two textures. Only honoured by
	// the software backend; the Vulkan backend reports what the device supports.
	NonPowerOfTwo bool `toml:"non_power_of_two"`
	// Render to an offscreen surface instead of a window.
	Headless bool `toml:"headless"`
	// Enable the Vulkan validation layers when they are installed.
	Validation bool `toml:"validation"`
}

type LimitsConfig struct {
	MaxImageWidth  int32 `toml:"max_image_width"`
	MaxImageHeight int32 `toml:"max_image_height"`
	MaxImagePixels int64 `toml:"max_image_pixels"`
	// Maximum number of live images. 0 means unbounded.
	MaxImageCount uint32 `toml:"max_image_count"`
	// Budget in bytes for every CPU pixel buffer. 0 means unbounded.
	MemoryLimit uint64 `toml:"memory_limit"`
}

// Config is the configuration of one Engine.
type Config struct {
	// The application name passed to the platform and the GPU driver.
	Name     string        `toml:"name"`
	LogLevel string        `toml:"log_level"`
	Surface  SurfaceConfig `toml:"surface"`
	Backend  BackendConfig `toml:"backend"`
	Limits   LimitsConfig  `toml:"limits"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "vgpix",
		LogLevel: "info",
		Surface: SurfaceConfig{
			Width:  640,
			Height: 480,
		},
		Backend: BackendConfig{
			Type:          renderer.Software.String(),
			NonPowerOfTwo: true,
			Headless:      true,
		},
		Limits: LimitsConfig{
			MaxImageWidth:  2048,
			MaxImageHeight: 2048,
			MaxImagePixels: 2048 * 2048,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Keys the Config does
// not know about are an error.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func ParseConfig(data []byte) (*Config, error) {
	return DecodeConfig(bytes.NewReader(data))
}

func DecodeConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("surface size %dx%d must be > 0", c.Surface.Width, c.Surface.Height)
	}
	if _, err := renderer.ParseRendererType(c.Backend.Type); err != nil {
		return fmt.Errorf("backend type: %w", err)
	}
	if c.Limits.MaxImageWidth <= 0 || c.Limits.MaxImageHeight <= 0 || c.Limits.MaxImagePixels <= 0 {
		return fmt.Errorf("image limits %dx%d (%d pixels) must be > 0", c.Limits.MaxImageWidth, c.Limits.MaxImageHeight, c.Limits.MaxImagePixels)
	}
	return nil
}

func (c *Config) rendererType() renderer.RendererType {
	// Validate already rejected unknown types.
	rtype, _ := renderer.ParseRendererType(c.Backend.Type)
	return rtype
}

func (c *Config) String() string {
	return fmt.Sprintf("%s backend, surface %dx%d, images up to %dx%d", c.Backend.Type, c.Surface.Width, c.Surface.Height, c.Limits.MaxImageWidth, c.Limits.MaxImageHeight)
}
