package bracket

import (
	"fmt"
	"strings"
)

// VerificationKind decides how a match result becomes authoritative.
type VerificationKind string

const (
	// SingleReport matches complete on one report from an organizer or admin.
	SingleReport VerificationKind = "single_report"
	// DualHost matches complete once every bound host submits the same winner.
	DualHost VerificationKind = "dual_host"
)

func (k VerificationKind) Valid() bool {
	return k == SingleReport || k == DualHost
}

// HostBinding ties a reporting scope (e.g. "region-eu") to the principal allowed to certify it.
type HostBinding struct {
	Scope       string `json:"scope"`
	PrincipalID string `json:"principal_id"`
}

// VerificationPolicy is the per-tournament configuration input used by the bracket
// builder to pick each match's verification kind.
type VerificationPolicy struct {
	Default VerificationKind              `json:"default"`
	Rounds  map[RoundTag]VerificationKind `json:"rounds,omitempty"`
	Hosts   []HostBinding                 `json:"hosts,omitempty"`
}

// KindFor returns the verification kind for matches in a round.
func (p VerificationPolicy) KindFor(tag RoundTag) VerificationKind {
	if k, ok := p.Rounds[tag]; ok {
		return k
	}
	if p.Default == "" {
		return SingleReport
	}
	return p.Default
}

func (p VerificationPolicy) usesDualHost() bool {
	if p.Default == DualHost {
		return true
	}
	for _, k := range p.Rounds {
		if k == DualHost {
			return true
		}
	}
	return false
}

// Validate checks kinds are known and dual-host policies have unique, bound scopes.
func (p VerificationPolicy) Validate() error {
	if p.Default != "" && !p.Default.Valid() {
		return fmt.Errorf("unknown verification kind %q", p.Default)
	}
	for tag, k := range p.Rounds {
		if !tag.Valid() {
			return fmt.Errorf("unknown round tag %q", tag)
		}
		if !k.Valid() {
			return fmt.Errorf("unknown verification kind %q for round %s", k, tag)
		}
	}

	seen := make(map[string]bool, len(p.Hosts))
	for _, h := range p.Hosts {
		scope := strings.TrimSpace(h.Scope)
		if scope == "" || strings.TrimSpace(h.PrincipalID) == "" {
			return fmt.Errorf("host bindings need both a scope and a principal")
		}
		if seen[scope] {
			return fmt.Errorf("duplicate host scope %q", scope)
		}
		seen[scope] = true
	}

	if p.usesDualHost() && len(p.Hosts) == 0 {
		return fmt.Errorf("dual-host verification requires at least one host binding")
	}
	return nil
}

// Clone returns a deep copy.
func (p VerificationPolicy) Clone() VerificationPolicy {
	out := VerificationPolicy{Default: p.Default}
	if p.Rounds != nil {
		out.Rounds = make(map[RoundTag]VerificationKind, len(p.Rounds))
		for k, v := range p.Rounds {
			out.Rounds[k] = v
		}
	}
	out.Hosts = cloneEach(p.Hosts, func(h HostBinding) HostBinding { return h })
	return out
}
