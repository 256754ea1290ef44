package networking

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Mock types for testing

type mockNetlinkLink struct {
	name  string
	up    bool
	index int
}

func (m *mockNetlinkLink) Attrs() *netlink.LinkAttrs {
	flags := net.Flags(0)
	if m.up {
		flags |= net.FlagUp
	}
	return &netlink.LinkAttrs{
		Name:  m.name,
		Index: m.index,
		Flags: flags,
	}
}

func (m *mockNetlinkLink) Type() string { return "mock" }

// fakeBackend is a stateful in-memory RoutingBackend. It mimics kernel
// semantics closely enough to verify idempotence: duplicate route adds
// return EEXIST, deletes of absent entries return ESRCH/ENOENT.
type fakeBackend struct {
	links  map[string]netlink.Link
	rules  []netlink.Rule
	routes []netlink.Route
	ups    map[string]bool
	addrs  map[string][]string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		links: map[string]netlink.Link{
			"lo":   &mockNetlinkLink{name: "lo", up: true, index: 1},
			"eth0": &mockNetlinkLink{name: "eth0", up: true, index: 2},
		},
		ups:   make(map[string]bool),
		addrs: make(map[string][]string),
	}
}

func (f *fakeBackend) RuleAdd(rule *netlink.Rule) error {
	f.rules = append(f.rules, *rule)
	return nil
}

func (f *fakeBackend) RuleDel(rule *netlink.Rule) error {
	for i, existing := range f.rules {
		if existing.Priority == rule.Priority && existing.Table == rule.Table && existing.Mark == rule.Mark {
			f.rules = append(f.rules[:i], f.rules[i+1:]...)
			return nil
		}
	}
	return unix.ENOENT
}

func (f *fakeBackend) RuleListFiltered(family int, filter *netlink.Rule, filterMask uint64) ([]netlink.Rule, error) {
	var matched []netlink.Rule
	for _, rule := range f.rules {
		if filterMask&netlink.RT_FILTER_PRIORITY != 0 && rule.Priority != filter.Priority {
			continue
		}
		if filterMask&netlink.RT_FILTER_TABLE != 0 && rule.Table != filter.Table {
			continue
		}
		if filterMask&netlink.RT_FILTER_MARK != 0 && rule.Mark != filter.Mark {
			continue
		}
		matched = append(matched, rule)
	}
	return matched, nil
}

func routeKey(route *netlink.Route) string {
	dst := "default"
	if route.Dst != nil {
		dst = route.Dst.String()
	}
	return fmt.Sprintf("%d|%s|%d", route.Table, dst, route.LinkIndex)
}

func (f *fakeBackend) RouteAdd(route *netlink.Route) error {
	for i := range f.routes {
		if routeKey(&f.routes[i]) == routeKey(route) {
			return unix.EEXIST
		}
	}
	f.routes = append(f.routes, *route)
	return nil
}

func (f *fakeBackend) RouteDel(route *netlink.Route) error {
	for i := range f.routes {
		if routeKey(&f.routes[i]) == routeKey(route) {
			f.routes = append(f.routes[:i], f.routes[i+1:]...)
			return nil
		}
	}
	return unix.ESRCH
}

func (f *fakeBackend) RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error) {
	var matched []netlink.Route
	for _, route := range f.routes {
		if filterMask&netlink.RT_FILTER_TABLE != 0 && route.Table != filter.Table {
			continue
		}
		matched = append(matched, route)
	}
	return matched, nil
}

func (f *fakeBackend) LinkByName(name string) (netlink.Link, error) {
	if link, ok := f.links[name]; ok {
		return link, nil
	}
	return nil, fmt.Errorf("link %s not found", name)
}

func (f *fakeBackend) LinkSetUp(link netlink.Link) error {
	f.ups[link.Attrs().Name] = true
	return nil
}

func (f *fakeBackend) AddrReplace(link netlink.Link, addr *netlink.Addr) error {
	name := link.Attrs().Name
	f.addrs[name] = []string{addr.IPNet.String()}
	return nil
}

// fakePacketFilter is an in-memory PacketFilter recording chain contents.
type fakePacketFilter struct {
	chains map[string][][]string
}

func newFakePacketFilter() *fakePacketFilter {
	return &fakePacketFilter{chains: make(map[string][][]string)}
}

func chainKey(table, chain string) string {
	return table + "/" + chain
}

func (f *fakePacketFilter) ClearChain(table, chain string) error {
	f.chains[chainKey(table, chain)] = nil
	return nil
}

func (f *fakePacketFilter) AppendUnique(table, chain string, rulespec ...string) error {
	if exists, _ := f.Exists(table, chain, rulespec...); exists {
		return nil
	}
	key := chainKey(table, chain)
	f.chains[key] = append(f.chains[key], rulespec)
	return nil
}

func (f *fakePacketFilter) Exists(table, chain string, rulespec ...string) (bool, error) {
	for _, rule := range f.chains[chainKey(table, chain)] {
		if equalSpec(rule, rulespec) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePacketFilter) Delete(table, chain string, rulespec ...string) error {
	key := chainKey(table, chain)
	for i, rule := range f.chains[key] {
		if equalSpec(rule, rulespec) {
			f.chains[key] = append(f.chains[key][:i], f.chains[key][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("rule not found in %s/%s", table, chain)
}

func equalSpec(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
