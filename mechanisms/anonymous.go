// SPDX-License-Identifier: Apache-2.0

package mechanisms

import (
	sasl "github.com/golang-auth/go-sasl"
)

func init() {
	sasl.RegisterServerMechanism(anonymousServerMech{})
	sasl.RegisterClientMechanism(anonymousClientMech{})
}

// anonymousServerMech implements ANONYMOUS (RFC 4505): the single token
// is a free-form trace string (typically an email address or token),
// accepted unconditionally. plugins/anonymous.c is not among the
// retrieved original_source files, so this is grounded directly on RFC
// 4505 and spec §3's mechanism-descriptor shape.
type anonymousServerMech struct{}

func (anonymousServerMech) Name() string                     { return "ANONYMOUS" }
func (anonymousServerMech) MaxSSF() uint                     { return 0 }
func (anonymousServerMech) MinSSF() uint                     { return 0 }
func (anonymousServerMech) SecurityFlags() sasl.SecurityFlag { return 0 }
func (anonymousServerMech) Features() sasl.MechFeature       { return sasl.FeatWantInitialResponse }

// Available is the mech_avail hook from spec §3; ANONYMOUS imposes no
// per-user restriction of its own. The NOANONYMOUS policy check is the
// generic bitset test already applied by listmech.go/client.go against
// SecurityFlags().
func (anonymousServerMech) Available(utils *sasl.Utils, _ string) error {
	return nil
}

func (m anonymousServerMech) NewServerContext(utils *sasl.Utils, params *sasl.ServerParams) (sasl.ServerMechContext, error) {
	return &anonymousServerCtx{}, nil
}

type anonymousServerCtx struct{}

func (c *anonymousServerCtx) Step(token []byte) sasl.StepResult {
	trace := string(token)
	if trace == "" {
		trace = "anonymous"
	}
	return sasl.StepResult{
		Code: sasl.OK,
		Out:  &sasl.OutParams{Authid: trace},
	}
}

func (c *anonymousServerCtx) Dispose() {}

// anonymousClientMech sends a trace token from the USER callback, or
// falls back to the literal "anonymous".
type anonymousClientMech struct{}

func (anonymousClientMech) Name() string                     { return "ANONYMOUS" }
func (anonymousClientMech) MaxSSF() uint                     { return 0 }
func (anonymousClientMech) MinSSF() uint                     { return 0 }
func (anonymousClientMech) SecurityFlags() sasl.SecurityFlag { return 0 }
func (anonymousClientMech) Features() sasl.MechFeature       { return sasl.FeatWantInitialResponse }

func (m anonymousClientMech) NewClientContext(utils *sasl.Utils, params *sasl.ClientParams) (sasl.ClientMechContext, error) {
	return &anonymousClientCtx{utils: utils}, nil
}

type anonymousClientCtx struct {
	utils *sasl.Utils
}

func (c *anonymousClientCtx) Step(_ []byte) sasl.StepResult {
	trace, ok := callbackString(c.utils, sasl.CbUser)
	if !ok || trace == "" {
		trace = "anonymous"
	}
	return sasl.StepResult{
		Code:  sasl.OK,
		Token: []byte(trace),
		Out:   &sasl.OutParams{Authid: trace},
	}
}

func (c *anonymousClientCtx) Dispose() {}
