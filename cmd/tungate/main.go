package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tungate/tungate/internal/commands"
	"github.com/tungate/tungate/internal/log"
)

var (
	version = "dev"
	commit  = "n/a"
	date    = "n/a"
)

func main() {
	ctx := &commands.AppContext{}

	// Define flags
	flag.StringVar(&ctx.ConfigPath, "config", "/etc/tungate/config.toml", "Path to TOML configuration file (optional)")
	flag.StringVar(&ctx.EnvPath, "env", "/etc/tungate/tungate.env", "Path to env-style overrides file (optional)")
	flag.BoolVar(&ctx.Verbose, "verbose", false, "Enable debug logging")

	// Custom usage message
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Transparent SOCKS5 Gateway Redirector\n")
		fmt.Fprintf(os.Stderr, "Version: %s (Commit: %s, Date: %s)\n\n", version, commit, date)
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run                     Set up redirection and supervise the tun2socks adapter\n")
		fmt.Fprintf(os.Stderr, "  apply                   Set up routing and marking only (no adapter)\n")
		fmt.Fprintf(os.Stderr, "  undo                    Remove routing and marking configuration (reverts \"apply\")\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if ctx.Verbose {
		log.SetVerbose(true)
	}

	cmds := []commands.Runner{
		commands.CreateRunCommand(),
		commands.CreateApplyCommand(),
		commands.CreateUndoCommand(),
	}

	args := flag.Args()

	if len(args) < 1 {
		flag.Usage()
		os.Exit(1)
	}

	subcommand := args[0]
	for _, cmd := range cmds {
		if cmd.Name() == subcommand {
			if err := cmd.Init(args[1:], ctx); err != nil {
				log.Fatalf("Failed to initialize command: %v", err)
			}

			if err := cmd.Run(); err != nil {
				log.Fatalf("Failed to run command: %v", err)
			}

			os.Exit(0)
		}
	}

	log.Fatalf("Unknown subcommand: %s", subcommand)
}
