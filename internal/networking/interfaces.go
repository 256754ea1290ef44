package networking

import (
	"net"

	"github.com/vishvananda/netlink"
)

type Interface struct {
	netlink.Link
	backend RoutingBackend
}

func GetInterface(backend RoutingBackend, name string) (*Interface, error) {
	link, err := backend.LinkByName(name)
	if err != nil {
		return nil, err
	}
	return &Interface{link, backend}, nil
}

func (iface *Interface) IsUp() bool {
	return iface.Attrs().Flags&net.FlagUp != 0
}

// Up brings the interface administratively up.
func (iface *Interface) Up() error {
	return iface.backend.LinkSetUp(iface.Link)
}

// AssignAddr assigns a CIDR-notated address to the interface, replacing an
// existing assignment of the same prefix.
func (iface *Interface) AssignAddr(cidr string) error {
	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		return err
	}
	return iface.backend.AddrReplace(iface.Link, addr)
}
