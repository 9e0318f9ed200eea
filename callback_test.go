// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverPrefersConnOverGlobalOverBuiltin(t *testing.T) {
	connCB := []Callback{{ID: CbUser, Proc: SimpleProc(func(any) (string, bool) { return "conn", true })}}
	globalCB := []Callback{{ID: CbUser, Proc: SimpleProc(func(any) (string, bool) { return "global", true })}}

	r := newResolver(connCB, globalCB)
	cb, ok := r.Resolve(CbUser)
	require.True(t, ok)
	proc := cb.Proc.(SimpleProc)
	v, _ := proc(nil)
	assert.Equal(t, "conn", v)
}

func TestResolverFallsBackToGlobal(t *testing.T) {
	globalCB := []Callback{{ID: CbUser, Proc: SimpleProc(func(any) (string, bool) { return "global", true })}}

	r := newResolver(nil, globalCB)
	cb, ok := r.Resolve(CbUser)
	require.True(t, ok)
	proc := cb.Proc.(SimpleProc)
	v, _ := proc(nil)
	assert.Equal(t, "global", v)
}

func TestResolverFallsBackToBuiltinLog(t *testing.T) {
	r := newResolver(nil, nil)
	_, ok := r.Resolve(CbLog)
	assert.True(t, ok)
}

func TestResolverNoCallbackForUnregisteredID(t *testing.T) {
	r := newResolver(nil, nil)
	_, ok := r.Resolve(CbUser)
	assert.False(t, ok)
}
