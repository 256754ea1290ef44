package networking

import (
	"github.com/vishvananda/netlink"
)

// RoutingBackend is the narrow kernel routing capability surface used by
// this package and by the adapter supervisor. Keeping it as an interface
// lets tests substitute a recording fake instead of mutating real kernel
// state.
type RoutingBackend interface {
	RuleAdd(rule *netlink.Rule) error
	RuleDel(rule *netlink.Rule) error
	RuleListFiltered(family int, filter *netlink.Rule, filterMask uint64) ([]netlink.Rule, error)

	RouteAdd(route *netlink.Route) error
	RouteDel(route *netlink.Route) error
	RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error)

	LinkByName(name string) (netlink.Link, error)
	LinkSetUp(link netlink.Link) error
	AddrReplace(link netlink.Link, addr *netlink.Addr) error
}

// NetlinkBackend is the production RoutingBackend backed by rtnetlink.
type NetlinkBackend struct{}

func NewNetlinkBackend() *NetlinkBackend {
	return &NetlinkBackend{}
}

func (b *NetlinkBackend) RuleAdd(rule *netlink.Rule) error {
	return netlink.RuleAdd(rule)
}

func (b *NetlinkBackend) RuleDel(rule *netlink.Rule) error {
	return netlink.RuleDel(rule)
}

func (b *NetlinkBackend) RuleListFiltered(family int, filter *netlink.Rule, filterMask uint64) ([]netlink.Rule, error) {
	return netlink.RuleListFiltered(family, filter, filterMask)
}

func (b *NetlinkBackend) RouteAdd(route *netlink.Route) error {
	return netlink.RouteAdd(route)
}

func (b *NetlinkBackend) RouteDel(route *netlink.Route) error {
	return netlink.RouteDel(route)
}

func (b *NetlinkBackend) RouteListFiltered(family int, filter *netlink.Route, filterMask uint64) ([]netlink.Route, error) {
	return netlink.RouteListFiltered(family, filter, filterMask)
}

func (b *NetlinkBackend) LinkByName(name string) (netlink.Link, error) {
	return netlink.LinkByName(name)
}

func (b *NetlinkBackend) LinkSetUp(link netlink.Link) error {
	return netlink.LinkSetUp(link)
}

func (b *NetlinkBackend) AddrReplace(link netlink.Link, addr *netlink.Addr) error {
	return netlink.AddrReplace(link, addr)
}
