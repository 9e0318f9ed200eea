// SPDX-License-Identifier: Apache-2.0

package sasl

import "strings"

// mechAllowed applies the policy test shared by listmech and server_start
// (spec §4.2 step 2, §4.3 "TOO_WEAK if policy rejects (same test as
// listmech)"): a mechanism is usable against conn's security properties
// iff every one of these holds.
func mechAllowed(m ServerMechanism, props SecurityProperties, utils *Utils, user string) bool {
	if m.MaxSSF() < props.MinSSF {
		return false
	}
	if m.MinSSF() > props.MaxSSF {
		return false
	}

	required := props.SecurityFlags
	mechFlags := m.SecurityFlags()
	for _, bit := range FlagList(required) {
		if mechFlags&bit == 0 {
			return false
		}
	}

	if user != "" {
		if err := m.Available(utils, user); err != nil {
			return false
		}
	}
	return true
}

// ListMech implements listmech(conn, user, prefix, sep, suffix) from spec
// §4.2/§6/C10. It fixes the off-by-one named in spec §9 Open Questions:
// the original emits sep even for mechanisms filtered out by a later
// policy check, because it tests listptr->next != NULL before knowing
// whether the next entry survives filtering. Here the included names are
// collected first and joined, so sep appears only between names that
// actually made the cut.
func ListMech(conn *Conn, user, prefix, sep, suffix string) (string, int, error) {
	var included []string

	serverMechs.Each(func(name string, m ServerMechanism) {
		if mechAllowed(m, conn.SecurityProps, conn.utils(), user) {
			included = append(included, m.Name())
		}
	})

	if len(included) == 0 {
		return "", 0, NewStatus(NOMECH, "no mechanisms meet requested security properties")
	}

	result := prefix + strings.Join(included, sep) + suffix
	return result, len(included), nil
}
