// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"github.com/google/uuid"
	"github.com/golang-auth/go-sasl/pkg/loggable"
)

// SecurityProperties is the security-properties data model from spec §3.
type SecurityProperties struct {
	MinSSF        uint
	MaxSSF        uint
	MaxBufSize    uint
	SecurityFlags SecurityFlag
}

// ExternalProperties holds credentials asserted by the transport (TLS,
// etc.) per spec §3 "external".
type ExternalProperties struct {
	SSF    uint
	AuthID string
}

// Endpoint is a "host;port" hint used by channel-binding aware mechanisms
// (spec §3 local_endpoint/remote_endpoint).
type Endpoint struct {
	Host string
	Port string
}

// Conn is the common connection state shared by Server and Client (spec
// §3 "Connection"), the Go restatement of saslint.h's sasl_conn with the
// server/client specializations embedding it, per §9 Design Notes.
type Conn struct {
	loggable.Loggable

	ID uuid.UUID

	service        string
	flags          ConnFlag
	localEndpoint  *Endpoint
	remoteEndpoint *Endpoint

	SecurityProps SecurityProperties
	External      ExternalProperties

	connCallbacks   []Callback
	globalCallbacks []Callback
	resolver        *resolver

	state connState

	errCode   Code
	errDetail string

	pipe *securityPipe

	out *OutParams

	// drain implements the "send last" rule from spec §4.3: true once a
	// mechanism's final OK carried a non-empty token that was suppressed
	// because FlagSuccessDataAllowed was unset. The next Step call, even
	// with empty input, finalizes with an empty token and clears drain.
	drain      bool
	pendingOut *OutParams

	isDisposed bool
}

type connState int

const (
	stateIdle connState = iota
	stateStarted
	stateComplete
	stateFailed
)

func newConn(service string, global []Callback, conn []Callback) Conn {
	c := Conn{
		ID:              uuid.New(),
		service:         service,
		connCallbacks:   conn,
		globalCallbacks: global,
		state:           stateIdle,
	}
	c.resolver = newResolver(conn, global)
	return c
}

// utils builds the per-conn Utils vtable handed to mechanisms (component
// C1), embedding a back-reference to conn for error reporting per §9
// Design Notes ("a per-conn utils may embed a back-reference to its conn
// for error reporting").
func (c *Conn) utils() *Utils {
	return &Utils{conn: c}
}

// Service returns the non-empty ASCII service token the conn was created
// with (e.g. "imap", "smtp").
func (c *Conn) Service() string { return c.service }

// SetLocalEndpoint/SetRemoteEndpoint record transport hints used by
// channel-binding aware mechanisms.
func (c *Conn) SetLocalEndpoint(e Endpoint)  { c.localEndpoint = &e }
func (c *Conn) SetRemoteEndpoint(e Endpoint) { c.remoteEndpoint = &e }

// SetError latches a fatal error onto the conn (spec §3 invariant:
// "error_code < OK overwrites previous error_code; codes >= OK never clear
// an existing error"). Mechanisms use this (via Utils.SetError) to attach
// a free-form detail string to an error code.
func (c *Conn) SetError(code Code, format string, args ...any) {
	if code.IsError() {
		c.errCode = code
	}
	if format != "" {
		c.errDetail = NewStatus(code, format, args...).Detail
	}
}

// Error returns the latched error as a *Status, or nil if no fatal error
// has occurred.
func (c *Conn) Error() *Status {
	if !c.errCode.IsError() {
		return nil
	}
	return &Status{Code: c.errCode, Detail: c.errDetail}
}

// ErrDetail implements errdetail(conn) from spec §6.
func (c *Conn) ErrDetail() string {
	return c.errDetail
}

// OutParams returns the out-params populated on a successful session, or
// nil if authentication has not completed (spec §7 "A failed session
// yields no out_params").
func (c *Conn) OutParams() *OutParams {
	if c.state != stateComplete {
		return nil
	}
	return c.out
}

// Done reports whether the session state machine has finished
// successfully (spec §3 out_params.done_flag).
func (c *Conn) Done() bool {
	return c.state == stateComplete && c.out != nil && c.out.DoneFlag
}

// Dispose tears down the connection: drops the security-layer buffers and
// out-params and invalidates every buffer previously handed back by this
// conn (spec §3 Lifecycles, §8 invariant). The mechanism context is not
// held here; Server.Dispose and Client.Dispose release it before calling
// this. After Dispose, no further API call on this Conn succeeds.
func (c *Conn) Dispose() {
	c.state = stateFailed
	c.errCode = FAIL
	c.pipe = nil
	c.out = nil
	c.isDisposed = true
}

// disposed reports whether the conn has been torn down.
func (c *Conn) disposed() bool {
	return c.isDisposed
}
