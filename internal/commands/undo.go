package commands

import (
	"flag"

	"github.com/tungate/tungate/internal/config"
	"github.com/tungate/tungate/internal/log"
	"github.com/tungate/tungate/internal/networking"
)

// CreateUndoCommand creates the "undo" command: remove the marking rule,
// the fwmark rule and the managed table's routes. The rt_tables registry
// entry stays, the registry is append-only by contract.
func CreateUndoCommand() *UndoCommand {
	return &UndoCommand{
		fs: flag.NewFlagSet("undo", flag.ExitOnError),
	}
}

type UndoCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config
}

func (u *UndoCommand) Name() string {
	return u.fs.Name()
}

func (u *UndoCommand) Init(args []string, ctx *AppContext) error {
	if err := u.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	u.cfg = cfg

	return nil
}

func (u *UndoCommand) Run() error {
	backend := networking.NewNetlinkBackend()
	pf, err := networking.NewPacketFilter()
	if err != nil {
		return err
	}

	if err := networking.BuildMarkRule(pf, u.cfg).Remove(); err != nil {
		return err
	}
	if err := networking.NewManager(u.cfg, backend).Teardown(); err != nil {
		return err
	}

	log.Infof("Routing and marking configuration removed")
	return nil
}
