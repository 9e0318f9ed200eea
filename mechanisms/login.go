// SPDX-License-Identifier: Apache-2.0

package mechanisms

import (
	sasl "github.com/golang-auth/go-sasl"
)

func init() {
	sasl.RegisterServerMechanism(loginServerMech{})
	sasl.RegisterClientMechanism(loginClientMech{})
}

// loginServerMech implements the deprecated LOGIN mechanism: a two-round
// "Username:"/"Password:" challenge, grounded on
// original_source/plugins/login.c.
type loginServerMech struct{}

func (loginServerMech) Name() string                     { return "LOGIN" }
func (loginServerMech) MaxSSF() uint                     { return 0 }
func (loginServerMech) MinSSF() uint                     { return 0 }
func (loginServerMech) SecurityFlags() sasl.SecurityFlag { return sasl.SecNoAnonymous }
func (loginServerMech) Features() sasl.MechFeature       { return 0 }
func (loginServerMech) Available(_ *sasl.Utils, _ string) error { return nil }

func (m loginServerMech) NewServerContext(utils *sasl.Utils, params *sasl.ServerParams) (sasl.ServerMechContext, error) {
	return &loginServerCtx{utils: utils}, nil
}

type loginStage int

const (
	loginAwaitUser loginStage = iota
	loginAwaitPass
	loginDone
)

type loginServerCtx struct {
	utils *sasl.Utils
	stage loginStage
	user  string
}

func (c *loginServerCtx) Step(token []byte) sasl.StepResult {
	switch c.stage {
	case loginAwaitUser:
		if len(token) == 0 {
			return sasl.StepResult{Code: sasl.CONTINUE, Token: []byte("Username:")}
		}
		c.user = string(token)
		c.stage = loginAwaitPass
		return sasl.StepResult{Code: sasl.CONTINUE, Token: []byte("Password:")}

	case loginAwaitPass:
		pass := string(token)
		if c.user == "" {
			c.utils.SetError(sasl.BADPROT, "LOGIN: username not supplied")
			return sasl.StepResult{Code: sasl.BADPROT}
		}

		ctx := c.utils.NewPropContext()
		ctx.Request(propUserPassword)
		if err := c.utils.AuxpropLookup(ctx, 0, c.user); err != nil {
			return sasl.StepResult{Code: sasl.UNAVAIL}
		}
		stored, ok := ctx.GetOne(propUserPassword)
		if !ok || stored != pass {
			c.utils.SetError(sasl.BADAUTH, "LOGIN: invalid password for %q", c.user)
			return sasl.StepResult{Code: sasl.BADAUTH}
		}

		c.stage = loginDone
		return sasl.StepResult{
			Code: sasl.OK,
			Out:  &sasl.OutParams{Authid: c.user},
		}

	default:
		c.utils.SetError(sasl.NOTDONE, "LOGIN: step called after completion")
		return sasl.StepResult{Code: sasl.NOTDONE}
	}
}

func (c *loginServerCtx) Dispose() {}

// loginClientMech drives the symmetric two-round exchange from the
// client side, filling USER/PASS from callbacks or INTERACT prompts.
type loginClientMech struct{}

func (loginClientMech) Name() string                     { return "LOGIN" }
func (loginClientMech) MaxSSF() uint                     { return 0 }
func (loginClientMech) MinSSF() uint                     { return 0 }
func (loginClientMech) SecurityFlags() sasl.SecurityFlag { return sasl.SecNoAnonymous }
func (loginClientMech) Features() sasl.MechFeature       { return 0 }

func (m loginClientMech) NewClientContext(utils *sasl.Utils, params *sasl.ClientParams) (sasl.ClientMechContext, error) {
	return &loginClientCtx{utils: utils}, nil
}

type loginClientCtx struct {
	utils *sasl.Utils
	stage loginStage
	user  string
}

func (c *loginClientCtx) Step(serverToken []byte) sasl.StepResult {
	switch c.stage {
	case loginAwaitUser:
		user, ok := callbackString(c.utils, sasl.CbAuthname)
		if !ok {
			return sasl.StepResult{Code: sasl.INTERACT, Prompts: []sasl.Prompt{
				{ID: sasl.CbAuthname, Text: "Username"},
			}}
		}
		c.user = user
		c.stage = loginAwaitPass
		return sasl.StepResult{Code: sasl.CONTINUE, Token: []byte(user)}

	case loginAwaitPass:
		pass, ok := callbackString(c.utils, sasl.CbPass)
		if !ok {
			return sasl.StepResult{Code: sasl.INTERACT, Prompts: []sasl.Prompt{
				{ID: sasl.CbPass, Text: "Password"},
			}}
		}
		c.stage = loginDone
		return sasl.StepResult{Code: sasl.OK, Token: []byte(pass), Out: &sasl.OutParams{Authid: c.user}}

	default:
		c.utils.SetError(sasl.NOTDONE, "LOGIN: step called after completion")
		return sasl.StepResult{Code: sasl.NOTDONE}
	}
}

func (c *loginClientCtx) Dispose() {}
