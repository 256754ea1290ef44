// Package adapter supervises the external SOCKS5-to-TUN adapter process
// (tun2socks) and owns its lifecycle: spawn, readiness wait for the TUN
// device, interface bring-up, and graceful termination with a bounded
// force-kill fallback.
package adapter
