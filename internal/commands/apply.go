package commands

import (
	"flag"

	"github.com/tungate/tungate/internal/config"
	"github.com/tungate/tungate/internal/log"
	"github.com/tungate/tungate/internal/networking"
)

// CreateApplyCommand creates the "apply" command: converge routing table,
// routes, fwmark rule and the marking rule without starting the adapter.
// Re-running it after an interrupted setup is safe, every step is
// idempotent.
func CreateApplyCommand() *ApplyCommand {
	return &ApplyCommand{
		fs: flag.NewFlagSet("apply", flag.ExitOnError),
	}
}

type ApplyCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config
}

func (a *ApplyCommand) Name() string {
	return a.fs.Name()
}

func (a *ApplyCommand) Init(args []string, ctx *AppContext) error {
	if err := a.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	a.cfg = cfg

	return nil
}

func (a *ApplyCommand) Run() error {
	backend := networking.NewNetlinkBackend()
	pf, err := networking.NewPacketFilter()
	if err != nil {
		return err
	}

	mgr := networking.NewManager(a.cfg, backend)

	if err := mgr.EnsureTable(); err != nil {
		return err
	}
	if err := mgr.ResetRoutes(); err != nil {
		return err
	}
	if err := networking.BuildMarkRule(pf, a.cfg).Install(); err != nil {
		return err
	}

	log.Infof("Routing and marking configuration applied")
	return nil
}
