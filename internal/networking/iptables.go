package networking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coreos/go-iptables/iptables"
	"github.com/valyala/fasttemplate"

	"github.com/tungate/tungate/internal/config"
	"github.com/tungate/tungate/internal/errors"
	"github.com/tungate/tungate/internal/log"
)

const (
	markTable = "mangle"
	markChain = "PREROUTING"
)

// Default marking rulespec: mark packets arriving on the LAN interface,
// sourced from the LAN block and not destined for the gateway itself.
var defaultMarkRuleSpec = []string{
	"-i", "{{iface}}",
	"-s", "{{lan}}",
	"!", "-d", "{{addr}}",
	"-j", "MARK", "--set-mark", "{{fwmark}}",
}

// PacketFilter is the narrow iptables capability surface consumed by the
// marking installer. *iptables.IPTables satisfies it directly; tests use a
// recording fake.
type PacketFilter interface {
	ClearChain(table, chain string) error
	AppendUnique(table, chain string, rulespec ...string) error
	Exists(table, chain string, rulespec ...string) (bool, error)
	Delete(table, chain string, rulespec ...string) error
}

// NewPacketFilter returns the production IPv4 iptables handle.
func NewPacketFilter() (PacketFilter, error) {
	ipt, err := iptables.NewWithProtocol(iptables.ProtocolIPv4)
	if err != nil {
		return nil, errors.NewPacketFilterError("failed to initialize iptables", err)
	}
	return ipt, nil
}

// MarkRule is the single packet-marking rule in the mangle/PREROUTING chain.
type MarkRule struct {
	pf    PacketFilter
	table string
	chain string
	spec  []string
}

// BuildMarkRule expands the (possibly config-overridden) rulespec template
// with the configured interface, LAN block, gateway address and fwmark.
func BuildMarkRule(pf PacketFilter, cfg *config.Config) *MarkRule {
	template := cfg.MarkRule
	if len(template) == 0 {
		template = defaultMarkRuleSpec
	}

	spec := make([]string, len(template))
	for i, part := range template {
		spec[i] = expandRulePart(part, cfg)
	}

	return &MarkRule{
		pf:    pf,
		table: markTable,
		chain: markChain,
		spec:  spec,
	}
}

func expandRulePart(template string, cfg *config.Config) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	t := fasttemplate.New(template, "{{", "}}")
	return t.ExecuteString(map[string]interface{}{
		"iface":  cfg.Iface,
		"lan":    cfg.LAN,
		"addr":   cfg.Addr,
		"fwmark": strconv.FormatUint(uint64(cfg.FwMark), 10),
	})
}

func (m *MarkRule) String() string {
	return fmt.Sprintf("%s/%s: %s", m.table, m.chain, strings.Join(m.spec, " "))
}

// Install flushes the chain and appends the marking rule, so exactly one
// unambiguous marking rule survives no matter how many times setup ran
// before. The flush removes any unrelated rules in the chain; this side
// effect is intentional, downstream behavior depends on it.
func (m *MarkRule) Install() error {
	log.Debugf("Flushing %s/%s chain", m.table, m.chain)
	if err := m.pf.ClearChain(m.table, m.chain); err != nil {
		return errors.NewPacketFilterError(
			fmt.Sprintf("failed to flush %s/%s chain", m.table, m.chain), err)
	}

	log.Infof("Installing packet marking rule [%v]", m)
	if err := m.pf.AppendUnique(m.table, m.chain, m.spec...); err != nil {
		return errors.NewPacketFilterError(
			fmt.Sprintf("failed to install marking rule in %s/%s", m.table, m.chain), err)
	}
	return nil
}

// Remove deletes the marking rule if present. Unlike Install it does not
// flush the chain, so rules installed by other software survive teardown.
func (m *MarkRule) Remove() error {
	exists, err := m.pf.Exists(m.table, m.chain, m.spec...)
	if err != nil {
		return errors.NewPacketFilterError("failed to check marking rule presence", err)
	}
	if !exists {
		return nil
	}

	log.Infof("Removing packet marking rule [%v]", m)
	if err := m.pf.Delete(m.table, m.chain, m.spec...); err != nil {
		return errors.NewPacketFilterError("failed to remove marking rule", err)
	}
	return nil
}

// IsExists checks if the marking rule is currently present.
func (m *MarkRule) IsExists() (bool, error) {
	return m.pf.Exists(m.table, m.chain, m.spec...)
}
