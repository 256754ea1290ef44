package networking

import (
	"fmt"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"github.com/tungate/tungate/internal/log"
)

type IPRoute struct {
	*netlink.Route
	backend RoutingBackend
}

func (r *IPRoute) String() string {
	dst := "default"
	if r.Dst != nil && r.Dst.String() != "<nil>" {
		dst = r.Dst.String()
	}
	kind := ""
	if r.Type == unix.RTN_LOCAL {
		kind = " local"
	}
	return fmt.Sprintf("table %d:%s %s -> dev idx=%d", r.Table, kind, dst, r.LinkIndex)
}

// BuildLocalDefaultRoute builds the local catch-all route via loopback that
// delivers marked traffic to the local stack inside the managed table.
func BuildLocalDefaultRoute(backend RoutingBackend, loopback netlink.Link, table int) *IPRoute {
	route := &netlink.Route{
		Table:     table,
		LinkIndex: loopback.Attrs().Index,
		Type:      unix.RTN_LOCAL,
		Scope:     netlink.SCOPE_HOST,
		Family:    netlink.FAMILY_V4,
		Dst: &net.IPNet{
			IP:   net.IPv4zero,
			Mask: net.CIDRMask(0, 32),
		},
	}
	return &IPRoute{route, backend}
}

// BuildLANRoute builds the LAN-scoped route via the gateway's LAN interface,
// keeping intra-LAN traffic out of the tunnel.
func BuildLANRoute(backend RoutingBackend, lan *net.IPNet, iface netlink.Link, table int) *IPRoute {
	route := &netlink.Route{
		Table:     table,
		LinkIndex: iface.Attrs().Index,
		Scope:     netlink.SCOPE_LINK,
		Family:    netlink.FAMILY_V4,
		Dst:       lan,
	}
	return &IPRoute{route, backend}
}

func (r *IPRoute) Add() error {
	log.Debugf("Adding IP route [%v]", r)
	if err := r.backend.RouteAdd(r.Route); err != nil {
		log.Warnf("Failed to add IP route [%v]: %v", r, err)
		return err
	}
	return nil
}

func (r *IPRoute) Del() error {
	log.Debugf("Deleting IP route [%v]", r)
	if err := r.backend.RouteDel(r.Route); err != nil {
		log.Warnf("Failed to delete IP route [%v]: %v", r, err)
		return err
	}
	return nil
}

// ListRoutesInTable returns every route currently present in the table.
func ListRoutesInTable(backend RoutingBackend, table int) ([]*IPRoute, error) {
	routes, err := backend.RouteListFiltered(netlink.FAMILY_V4,
		&netlink.Route{Table: table}, netlink.RT_FILTER_TABLE)
	if err != nil {
		log.Warnf("Failed to list routes for table %d: %v", table, err)
		return nil, err
	}

	var ipRoutes []*IPRoute
	for i := range routes {
		route := routes[i]
		ipRoutes = append(ipRoutes, &IPRoute{&route, backend})
	}
	return ipRoutes, nil
}

// FlushTable deletes every route in the table. The managed table is fully
// owned by this subsystem, so its contents are recreated on every run
// instead of being patched incrementally.
func FlushTable(backend RoutingBackend, table int) error {
	log.Debugf("Flushing IP route table [%d]", table)
	routes, err := ListRoutesInTable(backend, table)
	if err != nil {
		return err
	}

	for _, route := range routes {
		if err := route.Del(); err != nil {
			return err
		}
	}
	return nil
}
