package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/vburojevic/mcrevive/internal/cli"
	"github.com/vburojevic/mcrevive/internal/config"
)

const quickStart = `mcrevive - keep tmux-hosted Minecraft clients running

Quick start:
  mcrevive config generate > .mcrevive.yaml   Write a sample config
  mcrevive serve                              Relay restart reports to chat
  mcrevive supervise                          Watch sessions and restart clients
  mcrevive pending list                       Sessions waiting for a restart

For help:
  mcrevive --help                             All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration before parsing so flags can default to it
	var (
		cfg *config.Config
		err error
	)
	if path := configFlag(os.Args[1:]); path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("mcrevive"),
		kong.Description("mcrevive: restart Minecraft clients that dropped out of their tmux sessions and report it to chat"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		cli.ConfigVars(cfg),
	)

	globals, err := cli.NewGlobalsWithConfig(&c, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = globals.Logger.Sync() }()

	if err := ctx.Run(globals); err != nil {
		_ = globals.Logger.Sync()
		os.Exit(1)
	}
}

// configFlag finds --config/-c ahead of kong so the file can supply flag
// defaults.
func configFlag(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--":
			return ""
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				return args[i+1]
			}
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-c") && len(arg) > 2:
			return arg[2:]
		}
	}
	return ""
}
