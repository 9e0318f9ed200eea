// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtilsBase64RoundTrip(t *testing.T) {
	c := newConn("imap", nil, nil)
	u := c.utils()

	encoded := u.Base64Encode([]byte("hello"))
	decoded, err := u.Base64Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(decoded))
}

func TestUtilsSetErrorPropagatesToConn(t *testing.T) {
	c := newConn("imap", nil, nil)
	u := c.utils()

	u.SetError(BADAUTH, "bad password for %q", "alice")
	st := c.Error()
	require.NotNil(t, st)
	assert.Equal(t, BADAUTH, st.Code)
}

func TestUtilsExternalAuthID(t *testing.T) {
	c := newConn("imap", nil, nil)
	c.External.AuthID = "CN=alice,O=example"

	assert.Equal(t, "CN=alice,O=example", c.utils().ExternalAuthID())
}

func TestUtilsCanonicalizeUser(t *testing.T) {
	c := newConn("imap", nil, nil)
	out, err := c.utils().CanonicalizeUser("  alice  ", CanonAuthid)
	require.NoError(t, err)
	assert.Equal(t, "alice", out)
}

func TestUtilsRandomFillsBufferAndVaries(t *testing.T) {
	c := newConn("imap", nil, nil)
	u := c.utils()

	a := make([]byte, 16)
	require.NoError(t, u.Random(a))
	assert.NotEqual(t, make([]byte, 16), a)

	b := make([]byte, 16)
	require.NoError(t, u.Random(b))
	assert.NotEqual(t, a, b)
}
