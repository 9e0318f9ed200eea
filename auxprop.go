// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"strings"
	"sync"
)

// AuxpropFlag mirrors the flags passed to auxprop_lookup (spec §4.6).
type AuxpropFlag int

const (
	// AuxpropOverride forces already-filled properties to be erased and
	// re-looked-up rather than skipped.
	AuxpropOverride AuxpropFlag = 1 << iota
)

// AuxpropPlugin is an auxiliary-property backend: given a canonical user,
// it fills whatever requested names in ctx it knows about. Plugins MUST
// NOT set a property they were not asked for (spec §4.6).
type AuxpropPlugin interface {
	Name() string
	AuxpropLookup(ctx *PropContext, flags AuxpropFlag, user string) error
}

var auxpropMu sync.Mutex
var auxpropPlugins []AuxpropPlugin

// RegisterAuxprop adds a plugin to the process-wide auxprop chain,
// component C7.
func RegisterAuxprop(p AuxpropPlugin) {
	auxpropMu.Lock()
	defer auxpropMu.Unlock()
	auxpropPlugins = append(auxpropPlugins, p)
}

func resetAuxprops() {
	auxpropMu.Lock()
	defer auxpropMu.Unlock()
	auxpropPlugins = nil
}

// auxpropLookup walks every registered auxprop plugin for the requested
// names in ctx, implementing the skip/override rules from spec §4.6:
//
//   - if already filled and OVERRIDE not set, skip
//   - else if already filled and OVERRIDE set, erase then call the plugin
//   - else call the plugin directly
func auxpropLookup(ctx *PropContext, flags AuxpropFlag, user string) error {
	auxpropMu.Lock()
	plugins := append([]AuxpropPlugin(nil), auxpropPlugins...)
	auxpropMu.Unlock()

	override := flags&AuxpropOverride != 0

	for _, name := range ctx.Names() {
		_, filled := ctx.Get(name)
		if filled && !override {
			continue
		}
		if filled && override {
			ctx.Erase(name)
		}

		for _, p := range plugins {
			if err := p.AuxpropLookup(ctx, flags, user); err != nil {
				return err
			}
		}
	}
	return nil
}

// SplitRealm implements the realm-parsing rule from spec §4.6, used by
// the sasldb auxprop backend: input of the form "user@realm" splits on
// the *last* '@' (a deliberate redesign over the original strchr-based
// first-match split in plugins/sasldb.c's parseuser); if no '@' is
// present, realm defaults to userRealm if non-empty else serverFQDN. An
// empty user or empty realm after splitting is an error.
func SplitRealm(input, userRealm, serverFQDN string) (user, realm string, err error) {
	idx := strings.LastIndexByte(input, '@')
	if idx < 0 {
		user = input
		if userRealm != "" {
			realm = userRealm
		} else {
			realm = serverFQDN
		}
	} else {
		user = input[:idx]
		realm = input[idx+1:]
	}

	if user == "" {
		return "", "", NewStatus(BADPROT, "empty user after realm split")
	}
	if realm == "" {
		return "", "", NewStatus(BADPROT, "empty realm after realm split")
	}
	return user, realm, nil
}
