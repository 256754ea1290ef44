package networking

import (
	goerrors "errors"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/tungate/tungate/internal/config"
	"github.com/tungate/tungate/internal/errors"
	"github.com/tungate/tungate/internal/log"
)

// Manager converges the kernel routing state for the redirection subsystem:
// the rt_tables registry entry, the managed table's routes and the fwmark
// rule. Every run is a full reset-then-install, so re-running after an
// interrupted setup re-converges the state.
type Manager struct {
	cfg     *config.Config
	backend RoutingBackend
}

func NewManager(cfg *config.Config, backend RoutingBackend) *Manager {
	return &Manager{cfg: cfg, backend: backend}
}

// EnsureTable registers the managed routing table in the rt_tables registry.
func (m *Manager) EnsureTable() error {
	return EnsureTable(m.cfg.RtTablesPath, m.cfg.Table, m.cfg.TableName)
}

// ResetRoutes rebuilds the managed table from scratch and installs the
// fwmark rule. Ordering matters: the old rule is removed first so no packet
// is steered into a half-configured table, the table contents are flushed
// and recreated, and the rule is installed last.
func (m *Manager) ResetRoutes() error {
	cfg := m.cfg

	if err := DelRulesAtPriority(m.backend, cfg.RulePref); err != nil {
		return errors.NewRouteError(
			fmt.Sprintf("failed to remove existing rules at preference %d", cfg.RulePref), err)
	}

	if err := FlushTable(m.backend, cfg.Table); err != nil {
		return errors.NewRouteError(
			fmt.Sprintf("failed to flush routing table %d", cfg.Table), err)
	}

	loopback, err := GetInterface(m.backend, "lo")
	if err != nil {
		return errors.NewRouteError("failed to find loopback interface", err)
	}

	iface, err := GetInterface(m.backend, cfg.Iface)
	if err != nil {
		return errors.NewRouteError(
			fmt.Sprintf("failed to find LAN interface %s", cfg.Iface), err)
	}

	_, lan, err := net.ParseCIDR(cfg.LAN)
	if err != nil {
		return errors.NewRouteError(fmt.Sprintf("invalid LAN CIDR %s", cfg.LAN), err)
	}

	localDefault := BuildLocalDefaultRoute(m.backend, loopback.Link, cfg.Table)
	if err := addRouteTolerant(localDefault); err != nil {
		return errors.NewRouteError(
			fmt.Sprintf("failed to install local default route in table %d", cfg.Table), err)
	}
	log.Infof("Installed local default route via lo in table %d", cfg.Table)

	lanRoute := BuildLANRoute(m.backend, lan, iface.Link, cfg.Table)
	if err := addRouteTolerant(lanRoute); err != nil {
		return errors.NewRouteError(
			fmt.Sprintf("failed to install LAN route %s in table %d", cfg.LAN, cfg.Table), err)
	}
	log.Infof("Installed LAN route %s via %s in table %d", cfg.LAN, cfg.Iface, cfg.Table)

	rule := BuildFwmarkRule(m.backend, cfg.FwMark, cfg.Table, cfg.RulePref)
	if added, err := rule.AddIfNotExists(); err != nil {
		return errors.NewRouteError(
			fmt.Sprintf("failed to install fwmark rule at preference %d", cfg.RulePref), err)
	} else if added {
		log.Infof("Installed IP rule: fwmark=%d -> table=%d (preference=%d)",
			cfg.FwMark, cfg.Table, cfg.RulePref)
	}

	return nil
}

// Teardown removes the fwmark rule and flushes the managed table. The
// rt_tables registry entry is left in place: the registry is append-only
// and a stale name entry is harmless.
func (m *Manager) Teardown() error {
	cfg := m.cfg

	if err := DelRulesAtPriority(m.backend, cfg.RulePref); err != nil {
		return errors.NewRouteError(
			fmt.Sprintf("failed to remove rules at preference %d", cfg.RulePref), err)
	}
	log.Infof("Removed IP rules at preference %d", cfg.RulePref)

	if err := FlushTable(m.backend, cfg.Table); err != nil {
		return errors.NewRouteError(
			fmt.Sprintf("failed to flush routing table %d", cfg.Table), err)
	}
	log.Infof("Flushed routing table %d", cfg.Table)

	return nil
}

// addRouteTolerant adds a route, treating "already exists" as an idempotent
// no-op. The table was flushed beforehand, so a surviving duplicate can only
// carry the exact content being installed (the key includes the device).
func addRouteTolerant(route *IPRoute) error {
	if err := route.Add(); err != nil {
		if goerrors.Is(err, os.ErrExist) || goerrors.Is(err, unix.EEXIST) {
			log.Debugf("Route already present, skipping [%v]", route)
			return nil
		}
		return err
	}
	return nil
}
