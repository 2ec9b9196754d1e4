//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the job named by the JOB environment variable. CONFIG optionally
// points at an engine configuration file.
func (Run) Job() error {
	job := os.Getenv("JOB")
	if job == "" {
		return fmt.Errorf("JOB is not set")
	}
	args := []string{"run", "."}
	if cfg := os.Getenv("CONFIG"); cfg != "" {
		args = append(args, "--config", cfg)
	}
	args = append(args, "run", job)
	fmt.Println("Run job...")
	_, err := executeCmd("go", withArgs(args...), withStream())
	return err
}

// Like Job, but keeps running and re-runs the job whenever its directory changes.
func (Run) Watch() error {
	job := os.Getenv("JOB")
	if job == "" {
		return fmt.Errorf("JOB is not set")
	}
	mg.Deps(Build.Binary)
	_, err := executeCmd("bin/vgpix", withArgs("run", "--watch", job), withStream())
	return err
}
