package commands

import (
	"github.com/tungate/tungate/internal/config"
)

// AppContext carries global options shared by all subcommands.
type AppContext struct {
	ConfigPath string
	EnvPath    string
	Verbose    bool
}

// Runner is a subcommand.
type Runner interface {
	Init(args []string, ctx *AppContext) error
	Run() error
	Name() string
}

func loadConfig(ctx *AppContext) (*config.Config, error) {
	return config.Load(ctx.ConfigPath, ctx.EnvPath)
}
