// SPDX-License-Identifier: Apache-2.0

package mechanisms

import (
	sasl "github.com/golang-auth/go-sasl"
)

func init() {
	sasl.RegisterServerMechanism(externalServerMech{})
	sasl.RegisterClientMechanism(externalClientMech{})
}

// externalServerMech implements EXTERNAL (RFC 4422 appendix A): identity
// is taken entirely from the transport-asserted ExternalProperties rather
// than any in-band exchange. plugins/external.c is not among the
// retrieved original_source files, so this is grounded directly on RFC
// 4422 appendix A and spec §3's "external" data-model entry.
type externalServerMech struct{}

func (externalServerMech) Name() string                     { return "EXTERNAL" }
func (externalServerMech) MaxSSF() uint                     { return 0 }
func (externalServerMech) MinSSF() uint                     { return 0 }
func (externalServerMech) SecurityFlags() sasl.SecurityFlag { return sasl.SecNoAnonymous }
func (externalServerMech) Features() sasl.MechFeature       { return sasl.FeatWantInitialResponse }
func (externalServerMech) Available(utils *sasl.Utils, _ string) error {
	return nil
}

func (m externalServerMech) NewServerContext(utils *sasl.Utils, params *sasl.ServerParams) (sasl.ServerMechContext, error) {
	return &externalServerCtx{utils: utils}, nil
}

type externalServerCtx struct {
	utils *sasl.Utils
}

func (c *externalServerCtx) Step(token []byte) sasl.StepResult {
	authid := c.utils.ExternalAuthID()
	if authid == "" {
		c.utils.SetError(sasl.BADAUTH, "EXTERNAL: no externally-asserted identity on this connection")
		return sasl.StepResult{Code: sasl.BADAUTH}
	}
	authzid := string(token)
	return sasl.StepResult{
		Code: sasl.OK,
		Out: &sasl.OutParams{
			Authid:  authid,
			Authzid: authzid,
		},
	}
}

func (c *externalServerCtx) Dispose() {}

// externalClientMech sends the application-supplied authzid (possibly
// empty) as its sole initial response; no secret material is exchanged.
type externalClientMech struct{}

func (externalClientMech) Name() string                     { return "EXTERNAL" }
func (externalClientMech) MaxSSF() uint                     { return 0 }
func (externalClientMech) MinSSF() uint                     { return 0 }
func (externalClientMech) SecurityFlags() sasl.SecurityFlag { return sasl.SecNoAnonymous }
func (externalClientMech) Features() sasl.MechFeature       { return sasl.FeatWantInitialResponse }

func (m externalClientMech) NewClientContext(utils *sasl.Utils, params *sasl.ClientParams) (sasl.ClientMechContext, error) {
	return &externalClientCtx{utils: utils}, nil
}

type externalClientCtx struct {
	utils *sasl.Utils
}

func (c *externalClientCtx) Step(_ []byte) sasl.StepResult {
	authzid, _ := callbackString(c.utils, sasl.CbUser)
	authid := c.utils.ExternalAuthID()
	if authid == "" {
		authid = authzid
	}
	return sasl.StepResult{
		Code:  sasl.OK,
		Token: []byte(authzid),
		Out: &sasl.OutParams{
			Authid:  authid,
			Authzid: authzid,
		},
	}
}

func (c *externalClientCtx) Dispose() {}
