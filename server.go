// SPDX-License-Identifier: Apache-2.0

package sasl

import "strings"

// Server is a server-side SASL connection (spec §6 server_new/server_start
// /server_step), embedding Conn the way the teacher embeds its context
// base type into client/server specializations (golang-auth-go-gssapi
// v3's SecContext pattern).
type Server struct {
	Conn

	localFQDN string
	userRealm string

	mechName string
	mechCtx  ServerMechContext
}

// PasswordVerifier is an ordered backend used by CheckPass/UserExists/
// SetPass, the Go restatement of the checkpw.c plugin chain from spec §6.
// Only registered verifiers are tried; the auxprop chain is not consulted
// directly.
type PasswordVerifier interface {
	Name() string
	CheckPass(utils *Utils, user, pass string) error
	UserExists(utils *Utils, user string) bool
	// SetPass is optional; a verifier that does not support password
	// changes returns ErrNoChange.
	SetPass(utils *Utils, user, pass string) error
}

var serverVerifiers []PasswordVerifier

// RegisterPasswordVerifier adds a backend to the process-wide CheckPass/
// UserExists/SetPass chain, tried in registration order.
func RegisterPasswordVerifier(v PasswordVerifier) {
	serverVerifiers = append(serverVerifiers, v)
}

func resetPasswordVerifiers() {
	serverVerifiers = nil
}

// NewServer implements server_new(service, local_fqdn, user_realm,
// iplocal, ipremote, callbacks, flags) -> conn from spec §6.
func NewServer(service, localFQDN, userRealm string, flags ConnFlag, global, connCB []Callback) *Server {
	s := &Server{
		Conn:      newConn(service, global, connCB),
		localFQDN: localFQDN,
		userRealm: userRealm,
	}
	s.Conn.flags = flags
	return s
}

func (s *Server) serverParams() *ServerParams {
	return &ServerParams{
		Service:   s.Service(),
		LocalFQDN: s.localFQDN,
		UserRealm: s.userRealm,
		Utils:     s.utils(),
	}
}

// Start implements server_start(conn, mech, client_token) from spec §4.3:
// case-insensitive lookup, policy check, mechanism instantiation, and the
// first Step call.
func (s *Server) Start(mechName string, clientToken []byte) StepResult {
	if s.disposed() {
		return s.errResult(NewStatus(BADPARAM, "server_start called on a disposed connection"))
	}
	if s.state != stateIdle {
		return s.errResult(NewStatus(BADPROT, "server_start called outside IDLE state"))
	}

	m, ok := serverMechs.Lookup(mechName)
	if !ok {
		s.SetError(NOMECH, "mechanism %q is not registered", mechName)
		s.state = stateFailed
		return s.errResult(s.Error())
	}
	if !mechAllowed(m, s.SecurityProps, s.utils(), "") {
		s.SetError(TOOWEAK, "mechanism %q does not meet the requested security properties", mechName)
		s.state = stateFailed
		return s.errResult(s.Error())
	}

	ctx, err := m.NewServerContext(s.utils(), s.serverParams())
	if err != nil {
		st, ok := err.(*Status)
		if !ok {
			st = NewStatus(FAIL, "%v", err)
		}
		s.SetError(st.Code, "%s", st.Detail)
		s.state = stateFailed
		return s.errResult(s.Error())
	}

	s.mechName = m.Name()
	s.mechCtx = ctx
	s.state = stateStarted

	return s.step(clientToken)
}

// Step implements server_step(conn, client_token) from spec §4.3.
func (s *Server) Step(clientToken []byte) StepResult {
	if s.disposed() {
		return s.errResult(NewStatus(BADPARAM, "server_step called on a disposed connection"))
	}
	if s.state == stateFailed {
		return s.errResult(s.Error())
	}
	if s.drain {
		s.drain = false
		if s.pendingOut != nil {
			out := s.pendingOut
			s.pendingOut = nil
			if st := completeSession(&s.Conn, s.utils(), out); st != nil {
				return s.errResult(st)
			}
		}
		return StepResult{Code: OK, Out: s.out}
	}
	if s.state != stateStarted {
		return s.errResult(NewStatus(BADPROT, "server_step called outside STARTED state"))
	}
	return s.step(clientToken)
}

// step runs one mech_step call and applies the completion / send-last
// rules from spec §4.3.
func (s *Server) step(clientToken []byte) StepResult {
	res := s.mechCtx.Step(clientToken)

	if res.Code.IsError() {
		s.SetError(res.Code, "mechanism %q step failed", s.mechName)
		s.state = stateFailed
		s.mechCtx.Dispose()
		s.mechCtx = nil
		return s.errResult(s.Error())
	}

	if res.Code == CONTINUE {
		return StepResult{Code: CONTINUE, Token: res.Token}
	}

	// res.Code == OK.
	if shouldDrain(&s.Conn, res.Token) {
		s.drain = true
		s.pendingOut = res.Out
		return StepResult{Code: CONTINUE, Token: res.Token}
	}

	if st := completeSession(&s.Conn, s.utils(), res.Out); st != nil {
		s.mechCtx.Dispose()
		s.mechCtx = nil
		return s.errResult(st)
	}
	return StepResult{Code: OK, Token: res.Token, Out: s.out}
}

func (s *Server) errResult(st *Status) StepResult {
	return StepResult{Code: st.Code}
}

// CheckPass implements checkpass(conn, user, pass) -> status from spec §6,
// trying each registered PasswordVerifier in order until one accepts.
func (s *Server) CheckPass(user, pass string) *Status {
	if len(serverVerifiers) == 0 {
		return NewStatus(NOMECH, "no password verifier is registered")
	}
	var lastErr *Status
	for _, v := range serverVerifiers {
		if err := v.CheckPass(s.utils(), user, pass); err != nil {
			st, ok := err.(*Status)
			if !ok {
				st = NewStatus(FAIL, "%v", err)
			}
			lastErr = st
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = NewStatus(BADAUTH, "no verifier accepted the password for %q", user)
	}
	return lastErr
}

// UserExists implements userexists(conn, service, user) -> status.
func (s *Server) UserExists(user string) *Status {
	for _, v := range serverVerifiers {
		if v.UserExists(s.utils(), user) {
			return nil
		}
	}
	return NewStatus(NOUSER, "user %q not found by any verifier", user)
}

// SetPass implements setpass(conn, user, pass, flags) -> status, resolving
// the Open Question named in spec §9: success if at least one plugin
// accepts; rejections are logged at info level rather than aggregated
// into the returned error (the `_sasl_transition` semantics).
func (s *Server) SetPass(user, pass string) *Status {
	if len(serverVerifiers) == 0 {
		return NewStatus(NOMECH, "no password verifier is registered")
	}

	var accepted int
	var rejections []string
	for _, v := range serverVerifiers {
		if err := v.SetPass(s.utils(), user, pass); err != nil {
			rejections = append(rejections, v.Name()+": "+err.Error())
			continue
		}
		accepted++
	}

	if len(rejections) > 0 {
		s.Infof("setpass: %d verifier(s) rejected the change for %q: %s",
			len(rejections), user, strings.Join(rejections, "; "))
	}

	if accepted == 0 {
		return NewStatus(NOCHANGE, "no verifier accepted the password change for %q", user)
	}
	return nil
}

// Idle polls the selected mechanism's optional idle hook (spec §9 data
// model "optional idle"), the Go analogue of the original server loop's
// use of _sasl_server_idle_hook between blocking reads. Mechanisms that
// don't implement OptionalIdler are always considered idle.
func (s *Server) Idle() bool {
	if s.mechCtx == nil {
		return true
	}
	idler, ok := s.mechCtx.(OptionalIdler)
	if !ok {
		return true
	}
	return idler.Idle()
}

// Dispose releases the mechanism context before tearing down the embedded
// Conn (spec §5 "Resource ownership").
func (s *Server) Dispose() {
	if s.mechCtx != nil {
		s.mechCtx.Dispose()
		s.mechCtx = nil
	}
	s.Conn.Dispose()
}
