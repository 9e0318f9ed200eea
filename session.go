// SPDX-License-Identifier: Apache-2.0

package sasl

// completeSession runs the Completion steps from spec §4.3 once a
// mechanism returns OK: verify authid is non-empty, canonicalize the
// identity, install the security layer, and mark done_flag.
func completeSession(conn *Conn, utils *Utils, out *OutParams) *Status {
	if out == nil || out.Authid == "" {
		conn.state = stateFailed
		conn.SetError(BADAUTH, "mechanism completed without an authid")
		return conn.Error()
	}

	canonAuthid, err := utils.CanonicalizeUser(out.Authid, CanonAuthid)
	if err != nil {
		conn.state = stateFailed
		st, _ := err.(*Status)
		if st == nil {
			st = NewStatus(BADPROT, "%v", err)
		}
		conn.SetError(st.Code, "%s", st.Detail)
		return conn.Error()
	}
	out.User = canonAuthid

	if out.Authzid != "" {
		canonAuthzid, err := utils.CanonicalizeUser(out.Authzid, CanonAuthzid)
		if err != nil {
			conn.state = stateFailed
			st, _ := err.(*Status)
			if st == nil {
				st = NewStatus(BADPROT, "%v", err)
			}
			conn.SetError(st.Code, "%s", st.Detail)
			return conn.Error()
		}
		out.Authzid = canonAuthzid
	}

	out.DoneFlag = true
	conn.out = out
	conn.state = stateComplete
	conn.installSecurityLayer(out)
	return nil
}

// shouldDrain implements the "send last" rule from spec §4.3: a
// mechanism's final OK step that carries a non-empty token is suppressed
// when the application's flags do not include FlagSuccessDataAllowed, and
// the framework enters a one-extra-step drain expecting one more (empty)
// call before truly completing.
func shouldDrain(conn *Conn, token []byte) bool {
	return len(token) > 0 && conn.flags&FlagSuccessDataAllowed == 0
}
