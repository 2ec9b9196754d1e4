package testbed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spaghettifunk/vgpix/engine"
	"github.com/spaghettifunk/vgpix/engine/assets"
	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
)

type StepResult struct {
	Index int
	Op    string
	Code  core.ErrorCode
}

type Report struct {
	Job     string
	Steps   []StepResult
	Outputs []string
	Metrics core.TransferStats
}

// Runner executes jobs against one engine. Relative file names in a job are
// resolved against BaseDir.
type Runner struct {
	engine  *engine.Engine
	BaseDir string

	handles map[string]metadata.ImageHandle
}

func NewRunner(e *engine.Engine, baseDir string) *Runner {
	return &Runner{
		engine:  e,
		BaseDir: baseDir,
	}
}

// Run creates the job's images, executes its steps in order and writes its
// outputs. It stops at the first step whose recorded error differs from the
// expected one. Images created by the job are destroyed before returning.
func (r *Runner) Run(job *Job) (*Report, error) {
	r.handles = make(map[string]metadata.ImageHandle, len(job.Images))
	defer r.destroyImages()

	report := &Report{Job: job.Name}
	// drop anything a previous caller left in the slot
	r.engine.GetError()

	for _, spec := range job.Images {
		if err := r.createImage(spec); err != nil {
			return report, err
		}
	}

	for i, step := range job.Steps {
		if err := r.runStep(step); err != nil {
			return report, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		code := r.engine.GetError()
		report.Steps = append(report.Steps, StepResult{Index: i, Op: step.Op, Code: code})
		if want := expectedCode(step.ExpectError); code != want {
			return report, fmt.Errorf("step %d (%s): recorded %s, expected %s", i, step.Op, code, want)
		}
		core.LogDebug("step %d (%s) done with %s", i, step.Op, code)
	}

	for _, out := range job.Outputs {
		path, err := r.writeOutput(out)
		if err != nil {
			return report, err
		}
		report.Outputs = append(report.Outputs, path)
	}
	report.Metrics = r.engine.Metrics()
	return report, nil
}

func expectedCode(name string) core.ErrorCode {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, code := range []core.ErrorCode{
		core.BadHandle, core.IllegalArgument, core.OutOfMemory,
		core.UnsupportedImageFormat, core.ImageInUse, core.NoContext,
	} {
		if code.String() == name {
			return code
		}
	}
	return core.NoError
}

func (r *Runner) path(name string) string {
	if filepath.IsAbs(name) || r.BaseDir == "" {
		return name
	}
	return filepath.Join(r.BaseDir, name)
}

// LoadPixels reads an image file or a raw dump.
func LoadPixels(path string) (*metadata.PixelBuffer, error) {
	if assets.DetermineAssetType(path) == assets.AssetTypeRaw {
		return assets.LoadRaw(path)
	}
	return assets.LoadImage(path)
}

func (r *Runner) createImage(spec ImageSpec) error {
	quality, err := ParseQuality(spec.Quality)
	if err != nil {
		return err
	}

	var src *metadata.PixelBuffer
	width, height := spec.Width, spec.Height
	if spec.Source != "" {
		if src, err = LoadPixels(r.path(spec.Source)); err != nil {
			return fmt.Errorf("image %q: %w", spec.Name, err)
		}
		if width == 0 || height == 0 {
			width, height = src.Width, src.Height
		}
	}

	handle := r.engine.CreateImage(metadata.SupportedImageFormat, width, height, quality)
	if code := r.engine.GetError(); code != core.NoError {
		return fmt.Errorf("create image %q (%dx%d): %s", spec.Name, width, height, code)
	}
	r.handles[spec.Name] = handle

	if src != nil {
		r.engine.ImageSubData(handle, src.Data, src.RowStride(), src.Format, 0, 0, src.Width, src.Height)
		if code := r.engine.GetError(); code != core.NoError {
			return fmt.Errorf("upload %s into %q: %s", spec.Source, spec.Name, code)
		}
	}
	core.LogDebug("job image %q created (%dx%d)", spec.Name, width, height)
	return nil
}

// handle resolves a job image name. Unknown names resolve to InvalidHandle so
// the engine records BadHandle like it would for any stale handle.
func (r *Runner) handle(name string) metadata.ImageHandle {
	if h, ok := r.handles[name]; ok {
		return h
	}
	return metadata.InvalidHandle
}

func (r *Runner) runStep(s Step) error {
	e := r.engine
	if s.Color != nil && (s.Op == OpClear || s.Op == OpClearImage || s.Op == OpClearColor) {
		e.SetClearColor(metadata.NewColor(s.Color[0], s.Color[1], s.Color[2], s.Color[3]))
	}

	switch s.Op {
	case OpClearColor:
		// handled above
	case OpClear:
		e.Clear(s.X, s.Y, s.Width, s.Height)
	case OpClearImage:
		e.ClearImage(r.handle(s.Image), s.X, s.Y, s.Width, s.Height)
	case OpSubData, OpWritePixels:
		src, err := LoadPixels(r.path(s.File))
		if err != nil {
			return err
		}
		w, h := s.Width, s.Height
		if w == 0 && h == 0 {
			w, h = src.Width, src.Height
		}
		if s.Op == OpSubData {
			e.ImageSubData(r.handle(s.Image), src.Data, src.RowStride(), src.Format, s.X, s.Y, w, h)
		} else {
			e.WritePixels(src.Data, src.RowStride(), src.Format, s.DX, s.DY, w, h)
		}
	case OpCopyImage:
		e.CopyImage(r.handle(s.Image), s.DX, s.DY, r.handle(s.Src), s.SX, s.SY, s.Width, s.Height, false)
	case OpSetPixels:
		e.SetPixels(s.DX, s.DY, r.handle(s.Src), s.SX, s.SY, s.Width, s.Height)
	case OpGetPixels:
		e.GetPixels(r.handle(s.Image), s.DX, s.DY, s.SX, s.SY, s.Width, s.Height)
	case OpCopyPixels:
		e.CopyPixels(s.DX, s.DY, s.SX, s.SY, s.Width, s.Height)
	case OpDestroyImage:
		e.DestroyImage(r.handle(s.Image))
		delete(r.handles, s.Image)
	case OpResizeSurface:
		e.ResizeSurface(s.Width, s.Height)
	case OpFlush:
		e.Flush()
	case OpFinish:
		e.Finish()
	default:
		return fmt.Errorf("unknown op %q: %w", s.Op, ErrInvalidJob)
	}
	return nil
}

func (r *Runner) writeOutput(out Output) (string, error) {
	e := r.engine
	var pb *metadata.PixelBuffer
	if out.Surface {
		w, h := e.SurfaceSize()
		pb = metadata.NewPixelBuffer(make([]byte, int(w)*int(h)*metadata.BytesPerPixel), w, h)
		e.ReadPixels(pb.Data, metadata.TightStride, pb.Format, 0, 0, w, h)
	} else {
		handle := r.handle(out.Image)
		w, h := e.ImageWidth(handle), e.ImageHeight(handle)
		if code := e.GetError(); code != core.NoError {
			return "", fmt.Errorf("output image %q: %s", out.Image, code)
		}
		pb = metadata.NewPixelBuffer(make([]byte, int(w)*int(h)*metadata.BytesPerPixel), w, h)
		e.GetImageSubData(handle, pb.Data, metadata.TightStride, pb.Format, 0, 0, w, h)
	}
	if code := e.GetError(); code != core.NoError {
		return "", fmt.Errorf("read output %s: %s", out.Path, code)
	}

	path := r.path(out.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	var err error
	if assets.DetermineAssetType(path) == assets.AssetTypeRaw {
		err = assets.SaveRaw(path, pb)
	} else {
		err = assets.SavePNG(path, pb)
	}
	if err != nil {
		return "", err
	}
	core.LogInfo("wrote %s (%dx%d)", path, pb.Width, pb.Height)
	return path, nil
}

func (r *Runner) destroyImages() {
	for name, h := range r.handles {
		r.engine.DestroyImage(h)
		delete(r.handles, name)
	}
	r.engine.GetError()
}
