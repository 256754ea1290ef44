package adapter

import (
	"fmt"
	"net"
	"sync"

	"github.com/vishvananda/netlink"
)

type mockNetlinkLink struct {
	name  string
	index int
}

func (m *mockNetlinkLink) Attrs() *netlink.LinkAttrs {
	return &netlink.LinkAttrs{
		Name:  m.name,
		Index: m.index,
		Flags: net.Flags(0),
	}
}

func (m *mockNetlinkLink) Type() string { return "mock" }

// fakeBackend simulates the TUN device materializing in the kernel some
// number of LinkByName calls after the adapter was spawned.
type fakeBackend struct {
	mu          sync.Mutex
	device      string
	appearAfter int
	calls       int
	ups         map[string]bool
	addrs       map[string]string
}

func newFakeBackend(device string, appearAfter int) *fakeBackend {
	return &fakeBackend{
		device:      device,
		appearAfter: appearAfter,
		ups:         make(map[string]bool),
		addrs:       make(map[string]string),
	}
}

func (f *fakeBackend) LinkByName(name string) (netlink.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name != f.device {
		return nil, fmt.Errorf("link %s not found", name)
	}
	f.calls++
	if f.appearAfter < 0 || f.calls <= f.appearAfter {
		return nil, fmt.Errorf("link %s not found", name)
	}
	return &mockNetlinkLink{name: name, index: 7}, nil
}

func (f *fakeBackend) LinkSetUp(link netlink.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ups[link.Attrs().Name] = true
	return nil
}

func (f *fakeBackend) AddrReplace(link netlink.Link, addr *netlink.Addr) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addrs[link.Attrs().Name] = addr.IPNet.String()
	return nil
}

func (f *fakeBackend) RuleAdd(rule *netlink.Rule) error { return nil }
func (f *fakeBackend) RuleDel(rule *netlink.Rule) error { return nil }
func (f *fakeBackend) RuleListFiltered(family int, filter *netlink.Rule, filterMask uint64) ([]netlink.Rule, error) {
	return nil, nil
}
func (f *fakeBackend) RouteAdd(route *netlink.Route) error { return nil }
func (f *fakeBackend) RouteDel(route *netlink.Route) error { return nil }
func (f *fakeBackend) RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error) {
	return nil, nil
}
