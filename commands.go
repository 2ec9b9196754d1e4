package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spaghettifunk/vgpix/engine"
	"github.com/spaghettifunk/vgpix/engine/assets"
	"github.com/spaghettifunk/vgpix/engine/core"
	"github.com/spaghettifunk/vgpix/engine/renderer/metadata"
	"github.com/spaghettifunk/vgpix/testbed"
)

// watchSettle is how long the watcher waits for a burst of file events to
// end before re-running the job.
const watchSettle = 200 * time.Millisecond

type RunCmd struct {
	Job   string `arg:"" help:"Job file." type:"existingfile"`
	Watch bool   `help:"Re-run the job whenever a file next to it changes."`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, err := cli.config()
	if err != nil {
		return err
	}
	e, err := engine.New(cfg)
	if err != nil {
		return err
	}
	defer e.Shutdown()

	jobPath, err := filepath.Abs(c.Job)
	if err != nil {
		return err
	}
	runner := testbed.NewRunner(e, filepath.Dir(jobPath))

	report, err := runJob(runner, jobPath)
	if !c.Watch {
		return err
	}
	if err != nil {
		core.LogError("%s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watch(ctx, runner, jobPath, report)
}

func runJob(runner *testbed.Runner, jobPath string) (*testbed.Report, error) {
	job, err := testbed.LoadJob(jobPath)
	if err != nil {
		return nil, err
	}
	report, err := runner.Run(job)
	if report != nil {
		printReport(os.Stdout, report)
	}
	return report, err
}

// watch re-runs the job when the job or one of its inputs changes. Events for
// files the job itself wrote are ignored.
func watch(ctx context.Context, runner *testbed.Runner, jobPath string, last *testbed.Report) error {
	am, err := assets.NewAssetManager()
	if err != nil {
		return err
	}
	defer am.Close()
	if err := am.AddRecursive(filepath.Dir(jobPath)); err != nil {
		return err
	}
	core.LogInfo("watching %s, press Ctrl+C to stop", filepath.Dir(jobPath))

	written := outputsOf(last)
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-am.Errors():
			if !ok {
				return nil
			}
			core.LogWarn("watcher: %s", err)
		case ev, ok := <-am.Events():
			if !ok {
				return nil
			}
			if written[filepath.Clean(ev.Name)] {
				continue
			}
			core.LogDebug("change detected: %s", ev)
			settle = time.After(watchSettle)
		case <-settle:
			settle = nil
			report, err := runJob(runner, jobPath)
			if err != nil {
				core.LogError("%s", err)
			}
			if report != nil {
				written = outputsOf(report)
			}
		}
	}
}

func outputsOf(report *testbed.Report) map[string]bool {
	out := make(map[string]bool)
	if report == nil {
		return out
	}
	for _, p := range report.Outputs {
		if abs, err := filepath.Abs(p); err == nil {
			out[abs] = true
		}
	}
	return out
}

func printReport(w *os.File, report *testbed.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "job\t%s\n", report.Job)
	for _, s := range report.Steps {
		fmt.Fprintf(tw, "  step %d\t%s\t%s\n", s.Index, s.Op, s.Code)
	}
	for _, p := range report.Outputs {
		fmt.Fprintf(tw, "  wrote\t%s\n", p)
	}
	m := report.Metrics
	fmt.Fprintf(tw, "blits\t%d\n", m.Blits)
	fmt.Fprintf(tw, "pixels copied\t%d\n", m.PixelsCopied)
	fmt.Fprintf(tw, "texture uploads\t%d (%d rescaled)\n", m.Uploads, m.ScaledUploads)
	fmt.Fprintf(tw, "bytes uploaded\t%d\n", m.BytesUploaded)
	fmt.Fprintf(tw, "avg upload\t%.3fms\n", m.UploadMSAvg)
	tw.Flush()
}

type FormatsCmd struct{}

func (c *FormatsCmd) Run() error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tSUPPORTED")
	for _, f := range metadata.KnownFormats() {
		fmt.Fprintf(tw, "%d\t%s\t%t\n", int32(f), f, metadata.IsSupportedFormat(f))
	}
	return tw.Flush()
}

type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("vgpix", version)
	return nil
}

func (cli *CLI) config() (*engine.Config, error) {
	cfg := engine.DefaultConfig()
	if cli.Config != "" {
		var err error
		if cfg, err = engine.LoadConfig(cli.Config); err != nil {
			return nil, err
		}
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}
	if cli.Backend != "" {
		cfg.Backend.Type = cli.Backend
	}
	return cfg, cfg.Validate()
}
