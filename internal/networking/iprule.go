package networking

import (
	"fmt"

	"github.com/vishvananda/netlink"

	"github.com/tungate/tungate/internal/log"
)

type IPRule struct {
	*netlink.Rule
	backend RoutingBackend
}

func (r *IPRule) String() string {
	return fmt.Sprintf("rule %d: fwmark=%d -> table %d", r.Priority, r.Mark, r.Table)
}

// BuildFwmarkRule builds the policy rule selecting marked packets into the
// managed routing table.
func BuildFwmarkRule(backend RoutingBackend, fwmark uint32, table int, priority int) *IPRule {
	rule := netlink.NewRule()
	rule.Table = table
	rule.Mark = fwmark
	rule.Priority = priority
	rule.Family = netlink.FAMILY_V4
	return &IPRule{rule, backend}
}

func (r *IPRule) Add() error {
	log.Debugf("Adding IP rule [%v]", r)
	if err := r.backend.RuleAdd(r.Rule); err != nil {
		log.Warnf("Failed to add IP rule [%v]: %v", r, err)
		return err
	}
	return nil
}

func (r *IPRule) IsExists() (bool, error) {
	filtered, err := r.backend.RuleListFiltered(r.Family, r.Rule,
		netlink.RT_FILTER_TABLE|netlink.RT_FILTER_MARK|netlink.RT_FILTER_PRIORITY)
	if err != nil {
		log.Warnf("Checking if IP rule exists [%v] is failed: %v", r, err)
		return false, err
	}
	return len(filtered) > 0, nil
}

func (r *IPRule) AddIfNotExists() (bool, error) {
	if exists, err := r.IsExists(); err != nil {
		return false, err
	} else if !exists {
		if err := r.Add(); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (r *IPRule) Del() error {
	log.Debugf("Deleting IP rule [%v]", r)
	if err := r.backend.RuleDel(r.Rule); err != nil {
		log.Warnf("Failed to delete IP rule [%v]: %v", r, err)
		return err
	}
	return nil
}

// DelRulesAtPriority deletes every rule at the given preference, whatever
// its selector or target. Install is delete-if-present then add, so at most
// one rule survives at the configured preference.
func DelRulesAtPriority(backend RoutingBackend, priority int) error {
	filter := netlink.NewRule()
	filter.Priority = priority

	rules, err := backend.RuleListFiltered(netlink.FAMILY_V4, filter, netlink.RT_FILTER_PRIORITY)
	if err != nil {
		return err
	}

	for i := range rules {
		rule := rules[i]
		log.Debugf("Deleting existing IP rule at preference %d (table %d)", rule.Priority, rule.Table)
		if err := backend.RuleDel(&rule); err != nil {
			return err
		}
	}
	return nil
}
