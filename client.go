// SPDX-License-Identifier: Apache-2.0

package sasl

import "strings"

// Client is a client-side SASL connection (spec §6 client_new/client_start
// /client_step).
type Client struct {
	Conn

	serverFQDN     string
	channelBinding *ChannelBinding

	mechName string
	mechCtx  ClientMechContext

	prompts []Prompt
}

// NewClient implements client_new(service, server_fqdn, iplocal, ipremote,
// callbacks, flags) -> conn from spec §6.
func NewClient(service, serverFQDN string, cb *ChannelBinding, flags ConnFlag, global, connCB []Callback) *Client {
	c := &Client{
		Conn:           newConn(service, global, connCB),
		serverFQDN:     serverFQDN,
		channelBinding: cb,
	}
	c.Conn.flags = flags
	return c
}

func (c *Client) clientParams() *ClientParams {
	return &ClientParams{
		Service:        c.Service(),
		ServerFQDN:     c.serverFQDN,
		ChannelBinding: c.channelBinding,
		Utils:          c.utils(),
	}
}

// selectMechanism parses the server's offered mechanism list and picks
// the first mechanism, in LOCAL REGISTRY ORDER (spec §4.3: "preferred list
// is the local registry order, not the server's order"), that both
// appears in the server's list and passes the local policy test.
func selectMechanism(conn *Conn, serverOffered string) (ClientMechanism, bool) {
	offered := make(map[string]bool)
	for _, name := range strings.Fields(serverOffered) {
		offered[normalizeName(name)] = true
	}

	var chosen ClientMechanism
	var found bool
	clientMechs.Each(func(name string, m ClientMechanism) {
		if found {
			return
		}
		if !offered[normalizeName(m.Name())] {
			return
		}
		if m.MaxSSF() < conn.SecurityProps.MinSSF || m.MinSSF() > conn.SecurityProps.MaxSSF {
			return
		}
		required := conn.SecurityProps.SecurityFlags
		mechFlags := m.SecurityFlags()
		for _, bit := range FlagList(required) {
			if mechFlags&bit == 0 {
				return
			}
		}
		chosen = m
		found = true
	})
	return chosen, found
}

// Start implements client_start(conn, mechlist, prompt_need?,
// client_token?, mech_out?) -> status from spec §4.3.
func (c *Client) Start(serverOffered string) (mechName string, result StepResult) {
	if c.disposed() {
		st := NewStatus(BADPARAM, "client_start called on a disposed connection")
		return "", StepResult{Code: st.Code}
	}
	if c.state != stateIdle {
		st := NewStatus(BADPROT, "client_start called outside IDLE state")
		return "", StepResult{Code: st.Code}
	}

	m, ok := selectMechanism(&c.Conn, serverOffered)
	if !ok {
		c.SetError(NOMECH, "no client mechanism matches the server's offered list %q", serverOffered)
		c.state = stateFailed
		return "", StepResult{Code: c.Error().Code}
	}

	ctx, err := m.NewClientContext(c.utils(), c.clientParams())
	if err != nil {
		st, ok := err.(*Status)
		if !ok {
			st = NewStatus(FAIL, "%v", err)
		}
		c.SetError(st.Code, "%s", st.Detail)
		c.state = stateFailed
		return "", StepResult{Code: c.Error().Code}
	}

	c.mechName = m.Name()
	c.mechCtx = ctx
	c.state = stateStarted

	if m.Features()&FeatWantInitialResponse == 0 {
		return c.mechName, StepResult{Code: CONTINUE}
	}

	res := c.step(nil)
	return c.mechName, res
}

// Step implements client_step(conn, server_token, prompt_need?,
// client_token?) from spec §4.3, including the INTERACT round-trip:
// callers must refill c.Prompts() and call Step again with the same
// server token to retry.
func (c *Client) Step(serverToken []byte) StepResult {
	if c.disposed() {
		return StepResult{Code: NewStatus(BADPARAM, "client_step called on a disposed connection").Code}
	}
	if c.state == stateFailed {
		return StepResult{Code: c.Error().Code}
	}
	if c.state != stateStarted {
		return StepResult{Code: NewStatus(BADPROT, "client_step called outside STARTED state").Code}
	}
	return c.step(serverToken)
}

func (c *Client) step(serverToken []byte) StepResult {
	res := c.mechCtx.Step(serverToken)

	if res.Code.IsError() {
		c.SetError(res.Code, "mechanism %q step failed", c.mechName)
		c.state = stateFailed
		c.mechCtx.Dispose()
		c.mechCtx = nil
		return StepResult{Code: c.Error().Code}
	}

	if res.Code == INTERACT {
		c.prompts = res.Prompts
		return StepResult{Code: INTERACT, Prompts: c.prompts}
	}

	if res.Code == CONTINUE {
		return StepResult{Code: CONTINUE, Token: res.Token}
	}

	// res.Code == OK.
	if st := completeSession(&c.Conn, c.utils(), res.Out); st != nil {
		c.mechCtx.Dispose()
		c.mechCtx = nil
		return StepResult{Code: st.Code}
	}
	return StepResult{Code: OK, Token: res.Token, Out: c.out}
}

// Prompts returns the outstanding interactive prompts from the last
// INTERACT result, for the application to fill in before retrying Step
// with the same server token (spec §4.3 "the framework must pass the same
// prompt list back unmodified on the retry").
func (c *Client) Prompts() []Prompt {
	return c.prompts
}

// Dispose releases the mechanism context before tearing down the embedded
// Conn.
func (c *Client) Dispose() {
	if c.mechCtx != nil {
		c.mechCtx.Dispose()
		c.mechCtx = nil
	}
	c.Conn.Dispose()
}
