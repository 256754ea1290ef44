package config

// Config is the resolved, immutable configuration set for the redirection
// subsystem. It is built once at startup by merging built-in defaults with
// an optional TOML file and an optional env-style overlay; later sources win.
type Config struct {
	// Iface is the LAN-facing network interface to intercept traffic on.
	Iface string `toml:"iface" json:"iface" validate:"required"`
	// LAN is the CIDR block of the local network whose traffic is redirected.
	LAN string `toml:"lan" json:"lan" validate:"required,cidr"`
	// Addr is the gateway's own address, excluded from packet marking.
	Addr string `toml:"addr" json:"addr" validate:"required,ip"`
	// FwMark is the fwmark applied to packets selected for redirection.
	FwMark uint32 `toml:"fwmark" json:"fwmark" validate:"required,min=1"`
	// Table is the policy routing table id. Ids 0, 253, 254 and 255 are
	// reserved by the kernel and rejected.
	Table int `toml:"table" json:"table" validate:"required,routing_table"`
	// TableName is the name registered for Table in the rt_tables registry.
	TableName string `toml:"table_name" json:"table_name" validate:"required"`
	// RulePref is the preference (priority) of the fwmark ip-rule. Exactly
	// one rule may exist at this preference.
	RulePref int `toml:"priority" json:"priority" validate:"required,min=1"`

	// TunDevice is the virtual interface the adapter process creates.
	TunDevice string `toml:"tun_device" json:"tun_device" validate:"required"`
	// SocksAddr is the local SOCKS5 endpoint the adapter forwards into.
	SocksAddr string `toml:"socks_addr" json:"socks_addr" validate:"required,hostname_port"`
	// LocalAddr is the address assigned to the TUN device once it is up.
	LocalAddr string `toml:"local_addr" json:"local_addr" validate:"required,cidr"`
	// Tun2socksBin is the path of the SOCKS5-to-TUN adapter binary.
	Tun2socksBin string `toml:"tun2socks_bin" json:"tun2socks_bin" validate:"required"`

	// RtTablesPath is the routing table registry file.
	RtTablesPath string `toml:"rt_tables_path" json:"rt_tables_path" validate:"required"`
	// ReadyTimeoutSec bounds the wait for the TUN device to appear after
	// the adapter is spawned.
	ReadyTimeoutSec int `toml:"ready_timeout_sec" json:"ready_timeout_sec" validate:"min=1"`
	// StopTimeoutSec bounds the graceful shutdown wait before the adapter
	// is force-killed.
	StopTimeoutSec int `toml:"stop_timeout_sec" json:"stop_timeout_sec" validate:"min=1"`

	// MarkRule overrides the default marking rulespec. Available variables:
	// {{iface}}, {{lan}}, {{addr}}, {{fwmark}}.
	MarkRule []string `toml:"mark_rule,omitempty" json:"mark_rule,omitempty"`
}

// Default returns the built-in configuration defaults. Addr has no usable
// default and must come from the TOML file or the env overlay.
func Default() *Config {
	return &Config{
		Iface:           "eth0",
		LAN:             "192.168.0.0/24",
		FwMark:          0x2,
		Table:           200,
		TableName:       "tungate",
		RulePref:        99,
		TunDevice:       "tun0",
		SocksAddr:       "127.0.0.1:1080",
		LocalAddr:       "127.0.254.1/32",
		Tun2socksBin:    "tun2socks",
		RtTablesPath:    "/etc/iproute2/rt_tables",
		ReadyTimeoutSec: 10,
		StopTimeoutSec:  10,
	}
}
