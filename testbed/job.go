// Package testbed runs pixel jobs against an engine. A job is a TOML file that
// declares images, a list of pixel operations and the files to write the
// results to.
package testbed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

var ErrInvalidJob = errors.New("invalid job")

type Job struct {
	Name    string      `toml:"name"`
	Images  []ImageSpec `toml:"images"`
	Steps   []Step      `toml:"steps"`
	Outputs []Output    `toml:"outputs"`
}

// ImageSpec declares an image created before the first step. When Source is
// set the image is sized after the decoded file unless Width and Height are
// given, and the file is uploaded at the origin.
type ImageSpec struct {
	Name    string `toml:"name"`
	Width   int32  `toml:"width"`
	Height  int32  `toml:"height"`
	Quality string `toml:"quality"`
	Source  string `toml:"source"`
}

// Step is one pixel operation. Which fields are read depends on Op.
type Step struct {
	Op     string    `toml:"op"`
	Image  string    `toml:"image"`
	Src    string    `toml:"src"`
	File   string    `toml:"file"`
	X      int32     `toml:"x"`
	Y      int32     `toml:"y"`
	DX     int32     `toml:"dx"`
	DY     int32     `toml:"dy"`
	SX     int32     `toml:"sx"`
	SY     int32     `toml:"sy"`
	Width  int32     `toml:"width"`
	Height int32     `toml:"height"`
	Color  []float32 `toml:"color"`
	// Error code the step is expected to record, e.g. "BAD_HANDLE". Empty
	// means the step must succeed.
	ExpectError string `toml:"expect_error"`
}

// Output writes an image, or the window surface when Surface is set, to Path.
// Paths ending in .vgraw.zst are written as raw dumps, anything else as PNG.
type Output struct {
	Image   string `toml:"image"`
	Surface bool   `toml:"surface"`
	Path    string `toml:"path"`
}

const (
	OpClear         = "clear"
	OpClearColor    = "clear_color"
	OpClearImage    = "clear_image"
	OpSubData       = "sub_data"
	OpCopyImage     = "copy_image"
	OpSetPixels     = "set_pixels"
	OpWritePixels   = "write_pixels"
	OpGetPixels     = "get_pixels"
	OpCopyPixels    = "copy_pixels"
	OpDestroyImage  = "destroy_image"
	OpResizeSurface = "resize_surface"
	OpFlush         = "flush"
	OpFinish        = "finish"
)

var knownOps = map[string]bool{
	OpClear: true, OpClearColor: true, OpClearImage: true, OpSubData: true,
	OpCopyImage: true, OpSetPixels: true, OpWritePixels: true, OpGetPixels: true,
	OpCopyPixels: true, OpDestroyImage: true, OpResizeSurface: true, OpFlush: true,
	OpFinish: true,
}

func LoadJob(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	job, err := DecodeJob(f)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", path, err)
	}
	return job, nil
}

func ParseJob(data []byte) (*Job, error) {
	return DecodeJob(strings.NewReader(string(data)))
}

func DecodeJob(r io.Reader) (*Job, error) {
	job := &Job{}
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(job); err != nil {
		return nil, err
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return job, nil
}

// Validate checks the job's structure. Pixel arguments are left to the
// engine, which is what the job exercises.
func (j *Job) Validate() error {
	names := make(map[string]bool, len(j.Images))
	for i, img := range j.Images {
		if img.Name == "" {
			return fmt.Errorf("image %d has no name: %w", i, ErrInvalidJob)
		}
		if names[img.Name] {
			return fmt.Errorf("image %q declared twice: %w", img.Name, ErrInvalidJob)
		}
		names[img.Name] = true
		if img.Source == "" && (img.Width == 0 || img.Height == 0) {
			return fmt.Errorf("image %q needs a size or a source: %w", img.Name, ErrInvalidJob)
		}
		if _, err := ParseQuality(img.Quality); err != nil {
			return fmt.Errorf("image %q: %w", img.Name, err)
		}
	}
	for i, s := range j.Steps {
		if !knownOps[s.Op] {
			return fmt.Errorf("step %d: unknown op %q: %w", i, s.Op, ErrInvalidJob)
		}
		if s.Color != nil && len(s.Color) != 4 {
			return fmt.Errorf("step %d: color needs 4 channels, got %d: %w", i, len(s.Color), ErrInvalidJob)
		}
	}
	for i, o := range j.Outputs {
		if o.Path == "" {
			return fmt.Errorf("output %d has no path: %w", i, ErrInvalidJob)
		}
		if o.Surface == (o.Image != "") {
			return fmt.Errorf("output %d must name exactly one of image or surface: %w", i, ErrInvalidJob)
		}
	}
	return nil
}

// ParseQuality maps a quality name to its bit. An empty name is "better".
func ParseQuality(s string) (metadata.ImageQuality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "better":
		return metadata.ImageQualityBetter, nil
	case "faster":
		return metadata.ImageQualityFaster, nil
	case "nonantialiased", "non_antialiased":
		return metadata.ImageQualityNonAntialiased, nil
	}
	return 0, fmt.Errorf("unknown quality %q: %w", s, ErrInvalidJob)
}
