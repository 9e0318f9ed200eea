// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadedLibraryRefcounting(t *testing.T) {
	lib := &LoadedLibrary{path: "test.so"}
	lib.retain()
	lib.retain()

	lib.release()
	assert.Equal(t, 1, lib.refcount) // one reference remains

	lib.release()
	assert.Equal(t, 0, lib.refcount)
}

func TestLoadedLibraryNilIsSafe(t *testing.T) {
	var lib *LoadedLibrary
	assert.NotPanics(t, func() {
		lib.retain()
		lib.release()
	})
}

func TestLoadPluginsNoGetpathCallback(t *testing.T) {
	r := &resolver{}
	err := LoadPlugins(r, nil)
	require.Error(t, err)
	st, ok := err.(*Status)
	require.True(t, ok)
	assert.Equal(t, NOCALLBACK, st.Code)
}

func TestLoadPluginsEmptySearchPathIsNotAnError(t *testing.T) {
	r := newResolver(nil, []Callback{
		{ID: CbGetpath, Proc: SimpleProc(func(any) (string, bool) { return "", false })},
	})
	err := LoadPlugins(r, nil)
	assert.NoError(t, err)
}

func TestLoadPluginsSkipsUnreadableDirectories(t *testing.T) {
	r := newResolver(nil, []Callback{
		{ID: CbGetpath, Proc: SimpleProc(func(any) (string, bool) { return "/nonexistent/path/for/sasl-tests", true })},
	})
	err := LoadPlugins(r, nil)
	assert.NoError(t, err)
}
