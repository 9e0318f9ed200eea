// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityPipeEncodeCoalescesIOV(t *testing.T) {
	var captured []byte
	p := newSecurityPipe(&OutParams{
		Encode: func(in []byte) ([]byte, error) {
			captured = in
			return []byte(strings.ToUpper(string(in))), nil
		},
	})

	out, err := p.Encode([]byte("hello "), []byte("world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(captured))
	assert.Equal(t, "HELLO WORLD", string(out))
}

func TestSecurityPipeDecodeLoopsUntilEmpty(t *testing.T) {
	calls := 0
	p := newSecurityPipe(&OutParams{
		Decode: func(in []byte) ([]byte, error) {
			calls++
			return in, nil
		},
	})

	out, err := p.Decode([]byte("payload"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(out))
	assert.Equal(t, 1, calls)
}

func TestConnEncodeDecodeRequireInstalledLayer(t *testing.T) {
	c := newConn("imap", nil, nil)
	_, err := c.Encode([]byte("x"))
	require.Error(t, err)

	_, err = c.Decode([]byte("x"))
	require.Error(t, err)

	assert.Equal(t, uint(0), c.MaxOutBuf())
}

func TestInstallSecurityLayerNoneWhenNoEncodeDecode(t *testing.T) {
	c := newConn("imap", nil, nil)
	c.installSecurityLayer(&OutParams{})
	assert.Nil(t, c.pipe)
}
