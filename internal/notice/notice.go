// Package notice defines the structured, unlocalized warnings the combat
// engine surfaces to the acting user, and the sinks that receive them.
package notice

import (
	"context"
	"sort"
	"sync"
)

// Kind identifies a notice; it doubles as the message catalog key.
type Kind string

const (
	OutOfAmmo             Kind = "out_of_ammo"
	LastAmmoUsed          Kind = "last_ammo_used"
	ManeuverMisconfigured Kind = "maneuver_misconfigured"
	FumbleTableMissing    Kind = "fumble_table_missing"
	RuneMisconfigured     Kind = "rune_misconfigured"
	EffectMisconfigured   Kind = "effect_misconfigured"
	EffectOrphaned        Kind = "effect_orphaned"
)

// Misconfiguration reports whether k describes a data-level inconsistency
// rather than an expected game event.
func (k Kind) Misconfiguration() bool {
	switch k {
	case ManeuverMisconfigured, FumbleTableMissing, RuneMisconfigured, EffectMisconfigured:
		return true
	}
	return false
}

// Notice is one structured warning: a kind plus named parameters.
type Notice struct {
	Kind   Kind              `json:"kind"`
	Params map[string]string `json:"params,omitempty"`
}

// New builds a Notice from alternating key, value pairs. A trailing key
// without a value is ignored.
func New(kind Kind, kv ...string) Notice {
	n := Notice{Kind: kind}
	if len(kv) >= 2 {
		n.Params = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			n.Params[kv[i]] = kv[i+1]
		}
	}
	return n
}

// Param returns the named parameter or "".
func (n Notice) Param(key string) string { return n.Params[key] }

// Keys returns the parameter names in sorted order.
func (n Notice) Keys() []string {
	keys := make([]string, 0, len(n.Params))
	for k := range n.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sink receives notices as they are raised.
type Sink interface {
	Notify(ctx context.Context, n Notice)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n Notice)

// Notify calls f(ctx, n).
func (f SinkFunc) Notify(ctx context.Context, n Notice) { f(ctx, n) }

// Discard drops every notice.
var Discard Sink = SinkFunc(func(context.Context, Notice) {})

// Collector is a Sink that keeps every notice in order.
type Collector struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify appends n.
func (c *Collector) Notify(_ context.Context, n Notice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notices = append(c.notices, n)
}

// Notices returns a copy of everything collected so far.
func (c *Collector) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}
