// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCanonicalizeTrimsWhitespace(t *testing.T) {
	out, err := defaultCanonicalize(nil, "  alice  ", CanonAuthid)
	require.NoError(t, err)
	assert.Equal(t, "alice", out)
}

func TestDefaultCanonicalizeRejectsNUL(t *testing.T) {
	_, err := defaultCanonicalize(nil, "ali\x00ce", CanonAuthid)
	require.Error(t, err)
	st, ok := err.(*Status)
	require.True(t, ok)
	assert.Equal(t, BADPROT, st.Code)
}

func TestDefaultCanonicalizeRejectsOverlong(t *testing.T) {
	_, err := defaultCanonicalize(nil, strings.Repeat("a", CanonBufSize+1), CanonAuthid)
	require.Error(t, err)
}

func TestCanonUserIsIdempotent(t *testing.T) {
	defer resetCanonicalizers()

	once, err := canonUser(nil, "  Alice  ", CanonAuthid)
	require.NoError(t, err)
	twice, err := canonUser(nil, once, CanonAuthid)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestRegisteredCanonicalizerRunsAfterDefault(t *testing.T) {
	defer resetCanonicalizers()

	RegisterCanonicalizer(CanonicalizerFunc(func(_ *Conn, input string, _ CanonFlag) (string, error) {
		return strings.ToLower(input), nil
	}))

	out, err := canonUser(nil, "  ALICE  ", CanonAuthid)
	require.NoError(t, err)
	assert.Equal(t, "alice", out)
}
