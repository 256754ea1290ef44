package commands

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/tungate/tungate/internal/adapter"
	"github.com/tungate/tungate/internal/config"
	"github.com/tungate/tungate/internal/errors"
	"github.com/tungate/tungate/internal/log"
	"github.com/tungate/tungate/internal/networking"
)

// CreateRunCommand creates the "run" command: full setup sequence followed
// by adapter supervision until a termination signal or an adapter crash.
func CreateRunCommand() *RunCommand {
	rc := &RunCommand{
		fs: flag.NewFlagSet("run", flag.ExitOnError),
	}

	rc.fs.BoolVar(&rc.Teardown, "teardown", false,
		"Remove routing and marking state on shutdown (default: leave it for explicit 'undo')")

	return rc
}

type RunCommand struct {
	fs  *flag.FlagSet
	cfg *config.Config

	Teardown bool
}

func (r *RunCommand) Name() string {
	return r.fs.Name()
}

func (r *RunCommand) Init(args []string, ctx *AppContext) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	r.cfg = cfg

	return nil
}

func (r *RunCommand) Run() error {
	cfg := r.cfg

	backend := networking.NewNetlinkBackend()
	pf, err := networking.NewPacketFilter()
	if err != nil {
		return err
	}

	mgr := networking.NewManager(cfg, backend)
	mark := networking.BuildMarkRule(pf, cfg)

	// Ordered setup: table registration, routes, rule, then marking. Each
	// step is a precondition for the next; any failure aborts the sequence.
	if err := mgr.EnsureTable(); err != nil {
		return err
	}
	if err := mgr.ResetRoutes(); err != nil {
		return err
	}
	if err := mark.Install(); err != nil {
		return err
	}

	if err := adapter.ProbeSOCKS(cfg.SocksAddr, 3*time.Second); err != nil {
		log.Warnf("SOCKS5 endpoint %s is not answering yet: %v", cfg.SocksAddr, err)
	}

	sup := adapter.NewSupervisor(cfg, backend)
	if err := sup.Start(); err != nil {
		return err
	}

	stopTimeout := time.Duration(cfg.StopTimeoutSec) * time.Second

	if err := sup.WaitReady(time.Duration(cfg.ReadyTimeoutSec) * time.Second); err != nil {
		sup.Stop(stopTimeout)
		return err
	}
	if err := sup.BringUp(); err != nil {
		sup.Stop(stopTimeout)
		return err
	}

	// Block until the adapter exits on its own or a termination signal
	// arrives, whichever happens first. Signals received while shutdown is
	// already in progress are absorbed by the cancelled context.
	sigCtx, unregister := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer unregister()

	log.Infof("Redirection is active (lan=%s iface=%s fwmark=%d table=%d)",
		cfg.LAN, cfg.Iface, cfg.FwMark, cfg.Table)

	select {
	case <-sigCtx.Done():
		log.Infof("Received termination signal, stopping adapter...")
		sup.Stop(stopTimeout)
		if r.Teardown {
			return teardownState(mark, mgr)
		}
		log.Infof("Routing state left in place, run 'undo' to remove it")
		return nil

	case <-sup.Done():
		return errors.NewAdapterCrashError("adapter process exited unexpectedly", sup.ExitErr())
	}
}

// teardownState removes the marking rule and the managed routing state. A
// failure is returned so the process exits non-zero and the operator knows
// state was left behind.
func teardownState(mark *networking.MarkRule, mgr *networking.Manager) error {
	if err := mark.Remove(); err != nil {
		return err
	}
	return mgr.Teardown()
}
