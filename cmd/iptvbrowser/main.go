package main

import (
	"github.com/alecthomas/kong"
)

var version = "v0.0.0"

var cli struct {
	Version kong.VersionFlag `help:"Print version and exit."`

	Serve serveCmd `cmd:"" default:"withargs" help:"Run the HTTP API (default)."`
	Parse parseCmd `cmd:"" help:"Parse a playlist file or URL and print its channels."`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("iptvbrowser"),
		kong.Description("Browse the channels of an M3U playlist."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)
	ctx.FatalIfErrorf(ctx.Run())
}
