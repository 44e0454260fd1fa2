package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version    kong.VersionFlag `short:"v" help:"Show version"`
	Play       PlayCmd          `cmd:"" default:"withargs" help:"Play in the terminal against bots or other people"`
	Run        RunCmd           `cmd:"" help:"Run one game between agents without a UI"`
	Simulate   SimulateCmd      `cmd:"" help:"Play many greedy bot games in parallel and report win rates"`
	ServeAgent ServeAgentCmd    `cmd:"serve-agent" help:"Serve the greedy strategy over the remote agent protocol"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("farkle"),
		kong.Description("Farkle dice game with pluggable bot and model agents"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
