// SPDX-License-Identifier: Apache-2.0

package mechanisms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sasl "github.com/golang-auth/go-sasl"
)

func TestAnonymousServerAcceptsTraceToken(t *testing.T) {
	t.Cleanup(sasl.Done)
	registerReferenceMechanisms()

	s := sasl.NewServer("imap", "example.com", "example.com", sasl.FlagSuccessDataAllowed, nil, nil)
	t.Cleanup(s.Dispose)

	res := s.Start("ANONYMOUS", []byte("guest@example.com"))
	require.Equal(t, sasl.OK, res.Code)
	assert.Equal(t, "guest@example.com", s.OutParams().Authid)
}

func TestAnonymousServerDefaultsEmptyTrace(t *testing.T) {
	t.Cleanup(sasl.Done)
	registerReferenceMechanisms()

	s := sasl.NewServer("imap", "example.com", "example.com", sasl.FlagSuccessDataAllowed, nil, nil)
	t.Cleanup(s.Dispose)

	res := s.Start("ANONYMOUS", nil)
	require.Equal(t, sasl.OK, res.Code)
	assert.Equal(t, "anonymous", s.OutParams().Authid)
}
