package commands

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// stubBackend is an empty-state RoutingBackend: nothing to list, nothing to
// delete, every mutation succeeds.
type stubBackend struct{}

func (s *stubBackend) RuleAdd(rule *netlink.Rule) error { return nil }
func (s *stubBackend) RuleDel(rule *netlink.Rule) error { return nil }
func (s *stubBackend) RuleListFiltered(family int, filter *netlink.Rule, filterMask uint64) ([]netlink.Rule, error) {
	return nil, nil
}
func (s *stubBackend) RouteAdd(route *netlink.Route) error { return nil }
func (s *stubBackend) RouteDel(route *netlink.Route) error { return nil }
func (s *stubBackend) RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error) {
	return nil, nil
}
func (s *stubBackend) LinkByName(name string) (netlink.Link, error) {
	return nil, fmt.Errorf("link %s not found", name)
}
func (s *stubBackend) LinkSetUp(link netlink.Link) error { return nil }
func (s *stubBackend) AddrReplace(link netlink.Link, addr *netlink.Addr) error {
	return nil
}

// brokenPacketFilter fails every iptables operation, simulating an
// unavailable or permission-denied iptables backend.
type brokenPacketFilter struct{}

func (b *brokenPacketFilter) ClearChain(table, chain string) error {
	return fmt.Errorf("iptables unavailable")
}
func (b *brokenPacketFilter) AppendUnique(table, chain string, rulespec ...string) error {
	return fmt.Errorf("iptables unavailable")
}
func (b *brokenPacketFilter) Exists(table, chain string, rulespec ...string) (bool, error) {
	return false, fmt.Errorf("iptables unavailable")
}
func (b *brokenPacketFilter) Delete(table, chain string, rulespec ...string) error {
	return fmt.Errorf("iptables unavailable")
}

// noopPacketFilter succeeds on everything and holds no rules.
type noopPacketFilter struct{}

func (n *noopPacketFilter) ClearChain(table, chain string) error { return nil }
func (n *noopPacketFilter) AppendUnique(table, chain string, rulespec ...string) error {
	return nil
}
func (n *noopPacketFilter) Exists(table, chain string, rulespec ...string) (bool, error) {
	return false, nil
}
func (n *noopPacketFilter) Delete(table, chain string, rulespec ...string) error {
	return nil
}
