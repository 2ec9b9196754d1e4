/*
vgpix runs pixel jobs against the engine and writes the resulting images.
*/
package main

import (
	"github.com/alecthomas/kong"

	// registers the vulkan backend type
	_ "github.com/spaghettifunk/vgpix/engine/renderer/vulkan"
)

var version = "dev"

type CLI struct {
	Config   string `help:"Engine configuration file (TOML)." type:"existingfile" placeholder:"FILE"`
	LogLevel string `help:"Override the configured log level." placeholder:"LEVEL"`
	Backend  string `help:"Override the configured backend type (software or vulkan)." placeholder:"TYPE"`

	Run     RunCmd     `cmd:"" help:"Run a pixel job."`
	Formats FormatsCmd `cmd:"" help:"List the image formats and whether the pixel paths accept them."`
	Version VersionCmd `cmd:"" help:"Print the version."`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("vgpix"),
		kong.Description("Pixel transfer engine testbed."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
