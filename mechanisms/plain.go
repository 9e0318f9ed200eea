// SPDX-License-Identifier: Apache-2.0

// Package mechanisms provides the reference mechanism set shipped with
// the framework: PLAIN, LOGIN, CRAM-MD5, DIGEST-MD5, EXTERNAL, and
// ANONYMOUS. Importing this package for its side effect registers every
// mechanism into the global server/client registries via init(), the same
// blank-import convention the precursor uses for its plugin .so's static
// equivalents.
package mechanisms

import (
	"bytes"

	sasl "github.com/golang-auth/go-sasl"
)

const propUserPassword = "userPassword"

func init() {
	sasl.RegisterServerMechanism(plainServerMech{})
	sasl.RegisterClientMechanism(plainClientMech{})
}

// plainServerMech implements PLAIN (RFC 4616): a single-message
// "authzid\0authid\0pass" decode. RFC 4616 is not among the retrieved
// original_source files (only lib/saslint.h, lib/server.c,
// plugins/login.c, and plugins/sasldb.c were kept), so this is grounded
// directly on the RFC text and spec §3's mechanism-descriptor shape
// rather than on a C source.
type plainServerMech struct{}

func (plainServerMech) Name() string                { return "PLAIN" }
func (plainServerMech) MaxSSF() uint                { return 0 }
func (plainServerMech) MinSSF() uint                { return 0 }
func (plainServerMech) SecurityFlags() sasl.SecurityFlag { return sasl.SecNoAnonymous }
func (plainServerMech) Features() sasl.MechFeature  { return sasl.FeatWantInitialResponse }

func (plainServerMech) Available(_ *sasl.Utils, _ string) error { return nil }

func (m plainServerMech) NewServerContext(utils *sasl.Utils, params *sasl.ServerParams) (sasl.ServerMechContext, error) {
	return &plainServerCtx{utils: utils}, nil
}

type plainServerCtx struct {
	utils *sasl.Utils
}

func (c *plainServerCtx) Step(token []byte) sasl.StepResult {
	parts := bytes.SplitN(token, []byte{0}, 3)
	if len(parts) != 3 {
		c.utils.SetError(sasl.BADPROT, "PLAIN: expected authzid\\0authid\\0password")
		return sasl.StepResult{Code: sasl.BADPROT}
	}
	authzid := string(parts[0])
	authid := string(parts[1])
	pass := string(parts[2])

	if authid == "" {
		c.utils.SetError(sasl.BADPROT, "PLAIN: empty authid")
		return sasl.StepResult{Code: sasl.BADPROT}
	}

	ctx := c.utils.NewPropContext()
	ctx.Request(propUserPassword)
	if err := c.utils.AuxpropLookup(ctx, 0, authid); err != nil {
		return sasl.StepResult{Code: sasl.UNAVAIL}
	}
	stored, ok := ctx.GetOne(propUserPassword)
	if !ok || stored != pass {
		c.utils.SetError(sasl.BADAUTH, "PLAIN: invalid password for %q", authid)
		return sasl.StepResult{Code: sasl.BADAUTH}
	}

	return sasl.StepResult{
		Code: sasl.OK,
		Out: &sasl.OutParams{
			Authid:  authid,
			Authzid: authzid,
			SSF:     0,
		},
	}
}

func (c *plainServerCtx) Dispose() {}

// plainClientMech is the client half: a single initial response built
// from the application's USER/AUTHNAME/PASS callbacks.
type plainClientMech struct{}

func (plainClientMech) Name() string                 { return "PLAIN" }
func (plainClientMech) MaxSSF() uint                 { return 0 }
func (plainClientMech) MinSSF() uint                 { return 0 }
func (plainClientMech) SecurityFlags() sasl.SecurityFlag { return sasl.SecNoAnonymous }
func (plainClientMech) Features() sasl.MechFeature   { return sasl.FeatWantInitialResponse }

func (m plainClientMech) NewClientContext(utils *sasl.Utils, params *sasl.ClientParams) (sasl.ClientMechContext, error) {
	return &plainClientCtx{utils: utils}, nil
}

type plainClientCtx struct {
	utils *sasl.Utils
	done  bool
}

func (c *plainClientCtx) Step(_ []byte) sasl.StepResult {
	if c.done {
		c.utils.SetError(sasl.NOTDONE, "PLAIN: step called after completion")
		return sasl.StepResult{Code: sasl.NOTDONE}
	}

	authzid, _ := callbackString(c.utils, sasl.CbUser)
	authid, ok := callbackString(c.utils, sasl.CbAuthname)
	if !ok {
		return sasl.StepResult{Code: sasl.INTERACT, Prompts: []sasl.Prompt{
			{ID: sasl.CbAuthname, Text: "Authentication name"},
		}}
	}
	pass, ok := callbackString(c.utils, sasl.CbPass)
	if !ok {
		return sasl.StepResult{Code: sasl.INTERACT, Prompts: []sasl.Prompt{
			{ID: sasl.CbPass, Text: "Please enter your password"},
		}}
	}

	token := []byte(authzid + "\x00" + authid + "\x00" + pass)
	c.done = true
	return sasl.StepResult{
		Code:  sasl.OK,
		Token: token,
		Out: &sasl.OutParams{
			Authid:  authid,
			Authzid: authzid,
		},
	}
}

func (c *plainClientCtx) Dispose() {}

// callbackString resolves a SimpleProc-shaped callback and invokes it.
func callbackString(utils *sasl.Utils, id sasl.CallbackID) (string, bool) {
	cb, ok := utils.GetCallback(id)
	if !ok {
		return "", false
	}
	proc, ok := cb.Proc.(sasl.SimpleProc)
	if !ok {
		return "", false
	}
	return proc(cb.Context)
}
