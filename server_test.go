// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type oneStepServerMech struct {
	authid  string
	token   []byte
	wantErr Code
}

func (m *oneStepServerMech) Name() string                     { return "ONESTEP" }
func (m *oneStepServerMech) MaxSSF() uint                     { return 0 }
func (m *oneStepServerMech) MinSSF() uint                     { return 0 }
func (m *oneStepServerMech) SecurityFlags() SecurityFlag      { return 0 }
func (m *oneStepServerMech) Features() MechFeature            { return FeatWantInitialResponse }
func (m *oneStepServerMech) Available(_ *Utils, _ string) error { return nil }

func (m *oneStepServerMech) NewServerContext(_ *Utils, _ *ServerParams) (ServerMechContext, error) {
	return &oneStepServerCtx{mech: m}, nil
}

type oneStepServerCtx struct {
	mech *oneStepServerMech
}

func (c *oneStepServerCtx) Step(_ []byte) StepResult {
	if c.mech.wantErr != 0 {
		return StepResult{Code: c.mech.wantErr}
	}
	return StepResult{Code: OK, Token: c.mech.token, Out: &OutParams{Authid: c.mech.authid}}
}

func (c *oneStepServerCtx) Dispose() {}

func TestServerStartNoMechReturnsNoMech(t *testing.T) {
	defer Done()
	s := NewServer("imap", "example.com", "example.com", 0, nil, nil)
	defer s.Dispose()

	res := s.Start("MISSING", nil)
	assert.Equal(t, NOMECH, res.Code)
}

func TestServerStartAndStepSucceeds(t *testing.T) {
	defer Done()
	RegisterServerMechanism(&oneStepServerMech{authid: "alice"})

	s := NewServer("imap", "example.com", "example.com", FlagSuccessDataAllowed, nil, nil)
	defer s.Dispose()

	res := s.Start("ONESTEP", nil)
	require.Equal(t, OK, res.Code)
	assert.True(t, s.Done())
	assert.Equal(t, "alice", s.OutParams().Authid)
}

func TestServerStartDrainsFinalTokenWithoutSuccessDataAllowed(t *testing.T) {
	defer Done()
	RegisterServerMechanism(&oneStepServerMech{authid: "alice", token: []byte("final-data")})

	s := NewServer("imap", "example.com", "example.com", 0, nil, nil)
	defer s.Dispose()

	res := s.Start("ONESTEP", nil)
	require.Equal(t, CONTINUE, res.Code)
	assert.Equal(t, []byte("final-data"), res.Token)
	assert.False(t, s.Done())

	res = s.Step(nil)
	require.Equal(t, OK, res.Code)
	assert.True(t, s.Done())
	assert.Equal(t, "alice", s.OutParams().Authid)
}

func TestServerStepAfterFailureReturnsLatchedError(t *testing.T) {
	defer Done()
	RegisterServerMechanism(&oneStepServerMech{wantErr: BADAUTH})

	s := NewServer("imap", "example.com", "example.com", 0, nil, nil)
	defer s.Dispose()

	res := s.Start("ONESTEP", nil)
	assert.Equal(t, BADAUTH, res.Code)

	res = s.Step(nil)
	assert.Equal(t, BADAUTH, res.Code)
}

type recordingVerifier struct {
	accept bool
}

func (v *recordingVerifier) Name() string { return "recording" }
func (v *recordingVerifier) CheckPass(_ *Utils, user, pass string) error {
	if v.accept {
		return nil
	}
	return NewStatus(BADAUTH, "rejected")
}
func (v *recordingVerifier) UserExists(_ *Utils, user string) bool { return v.accept }
func (v *recordingVerifier) SetPass(_ *Utils, user, pass string) error {
	if v.accept {
		return nil
	}
	return NewStatus(NOCHANGE, "rejected")
}

func TestServerCheckPassSucceedsWithAnyAcceptingVerifier(t *testing.T) {
	defer resetPasswordVerifiers()
	RegisterPasswordVerifier(&recordingVerifier{accept: false})
	RegisterPasswordVerifier(&recordingVerifier{accept: true})

	s := NewServer("imap", "example.com", "example.com", 0, nil, nil)
	defer s.Dispose()

	assert.Nil(t, s.CheckPass("alice", "hunter2"))
}

func TestServerCheckPassFailsWhenNoVerifierAccepts(t *testing.T) {
	defer resetPasswordVerifiers()
	RegisterPasswordVerifier(&recordingVerifier{accept: false})

	s := NewServer("imap", "example.com", "example.com", 0, nil, nil)
	defer s.Dispose()

	st := s.CheckPass("alice", "hunter2")
	require.NotNil(t, st)
	assert.Equal(t, BADAUTH, st.Code)
}

func TestServerSetPassSucceedsWithPartialAcceptance(t *testing.T) {
	defer resetPasswordVerifiers()
	RegisterPasswordVerifier(&recordingVerifier{accept: false})
	RegisterPasswordVerifier(&recordingVerifier{accept: true})

	s := NewServer("imap", "example.com", "example.com", 0, nil, nil)
	defer s.Dispose()

	assert.Nil(t, s.SetPass("alice", "newpass"))
}
