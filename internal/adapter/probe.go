package adapter

import (
	"fmt"
	"net"
	"time"

	txsocks5 "github.com/txthinking/socks5"
)

// ProbeSOCKS performs a no-auth SOCKS5 negotiation against the local
// endpoint the adapter will forward into. The endpoint is an external
// collaborator that may still be coming up, so callers treat a failed
// probe as a warning rather than a fatal error.
func ProbeSOCKS(addr string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	if _, err := txsocks5.NewNegotiationRequest([]byte{txsocks5.MethodNone}).WriteTo(conn); err != nil {
		return fmt.Errorf("write negotiation: %w", err)
	}

	neg, err := txsocks5.NewNegotiationReplyFrom(conn)
	if err != nil {
		return fmt.Errorf("read negotiation: %w", err)
	}

	if neg.Method != txsocks5.MethodNone {
		return fmt.Errorf("endpoint requires negotiation method %d", neg.Method)
	}
	return nil
}
