// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteSessionRequiresAuthid(t *testing.T) {
	c := newConn("imap", nil, nil)
	st := completeSession(&c, c.utils(), &OutParams{})
	require.NotNil(t, st)
	assert.Equal(t, BADAUTH, st.Code)
	assert.Equal(t, stateFailed, c.state)
}

func TestCompleteSessionCanonicalizesAndInstallsLayer(t *testing.T) {
	c := newConn("imap", nil, nil)
	st := completeSession(&c, c.utils(), &OutParams{Authid: "  alice  "})
	require.Nil(t, st)

	assert.Equal(t, stateComplete, c.state)
	assert.True(t, c.Done())
	assert.Equal(t, "alice", c.OutParams().User)
	assert.Nil(t, c.pipe)
}

func TestCompleteSessionInstallsSecurityLayerWhenPresent(t *testing.T) {
	c := newConn("imap", nil, nil)
	out := &OutParams{
		Authid: "alice",
		Encode: func(p []byte) ([]byte, error) { return p, nil },
		Decode: func(p []byte) ([]byte, error) { return p, nil },
	}
	st := completeSession(&c, c.utils(), out)
	require.Nil(t, st)
	assert.NotNil(t, c.pipe)
}

func TestShouldDrainRespectsSuccessDataAllowed(t *testing.T) {
	c := newConn("imap", nil, nil)
	assert.True(t, shouldDrain(&c, []byte("final-token")))

	c.flags |= FlagSuccessDataAllowed
	assert.False(t, shouldDrain(&c, []byte("final-token")))
	assert.False(t, shouldDrain(&c, nil))
}
