package networking

import (
	"net"
	"testing"
)

func TestMarkRuleInstall_FlushesChain(t *testing.T) {
	pf := newFakePacketFilter()
	pf.chains["mangle/PREROUTING"] = [][]string{
		{"-p", "tcp", "-j", "ACCEPT"}, // unrelated rule, flushed by contract
	}

	if err := BuildMarkRule(pf, testConfig()).Install(); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	rules := pf.chains["mangle/PREROUTING"]
	if len(rules) != 1 {
		t.Fatalf("Expected exactly 1 rule after install, got %d", len(rules))
	}
}

func TestMarkRuleInstall_Idempotent(t *testing.T) {
	pf := newFakePacketFilter()
	mark := BuildMarkRule(pf, testConfig())

	if err := mark.Install(); err != nil {
		t.Fatalf("First install failed: %v", err)
	}
	if err := mark.Install(); err != nil {
		t.Fatalf("Second install failed: %v", err)
	}

	if got := len(pf.chains["mangle/PREROUTING"]); got != 1 {
		t.Errorf("Expected 1 rule after repeated install, got %d", got)
	}
}

func TestMarkRule_DefaultSpecExpansion(t *testing.T) {
	pf := newFakePacketFilter()
	cfg := testConfig()

	if err := BuildMarkRule(pf, cfg).Install(); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	spec := pf.chains["mangle/PREROUTING"][0]
	expected := []string{"-i", "eth0", "-s", "192.168.0.0/24", "!", "-d", "192.168.0.254", "-j", "MARK", "--set-mark", "2"}
	if !equalSpec(spec, expected) {
		t.Errorf("Unexpected rulespec:\n got %v\nwant %v", spec, expected)
	}
}

func TestMarkRule_CustomTemplate(t *testing.T) {
	pf := newFakePacketFilter()
	cfg := testConfig()
	cfg.MarkRule = []string{"-i", "{{iface}}", "-s", "{{lan}}", "-p", "tcp", "-j", "MARK", "--set-mark", "{{fwmark}}"}

	if err := BuildMarkRule(pf, cfg).Install(); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	spec := pf.chains["mangle/PREROUTING"][0]
	expected := []string{"-i", "eth0", "-s", "192.168.0.0/24", "-p", "tcp", "-j", "MARK", "--set-mark", "2"}
	if !equalSpec(spec, expected) {
		t.Errorf("Unexpected rulespec:\n got %v\nwant %v", spec, expected)
	}
}

func TestMarkRule_Remove(t *testing.T) {
	pf := newFakePacketFilter()
	mark := BuildMarkRule(pf, testConfig())

	if err := mark.Install(); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if err := mark.Remove(); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if got := len(pf.chains["mangle/PREROUTING"]); got != 0 {
		t.Errorf("Expected empty chain after remove, got %d rules", got)
	}

	// Removing again is a no-op.
	if err := mark.Remove(); err != nil {
		t.Fatalf("Second remove failed: %v", err)
	}
}

// ruleMatches interprets the installed rulespec against a simulated packet.
// Supports the matchers used by the marking rule: -i, -s, negated -d.
func ruleMatches(spec []string, inIface, src, dst string) bool {
	srcIP := net.ParseIP(src)
	dstIP := net.ParseIP(dst)

	for i := 0; i < len(spec); i++ {
		negated := false
		if spec[i] == "!" {
			negated = true
			i++
		}
		if i+1 >= len(spec) {
			break
		}

		var matched bool
		switch spec[i] {
		case "-i":
			matched = spec[i+1] == inIface
		case "-s":
			_, cidr, err := net.ParseCIDR(spec[i+1])
			matched = err == nil && cidr.Contains(srcIP)
		case "-d":
			matched = dstIP.Equal(net.ParseIP(spec[i+1]))
		default:
			continue
		}
		i++

		if matched == negated {
			return false
		}
	}
	return true
}

func TestMarkRule_PacketSelection(t *testing.T) {
	pf := newFakePacketFilter()
	if err := BuildMarkRule(pf, testConfig()).Install(); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	spec := pf.chains["mangle/PREROUTING"][0]

	if !ruleMatches(spec, "eth0", "192.168.0.10", "8.8.8.8") {
		t.Error("LAN packet to the internet should be marked")
	}
	if ruleMatches(spec, "eth0", "192.168.0.10", "192.168.0.254") {
		t.Error("Packet destined for the gateway itself should NOT be marked")
	}
	if ruleMatches(spec, "eth1", "192.168.0.10", "8.8.8.8") {
		t.Error("Packet arriving on a different interface should NOT be marked")
	}
	if ruleMatches(spec, "eth0", "10.0.0.5", "8.8.8.8") {
		t.Error("Packet sourced outside the LAN should NOT be marked")
	}
}
