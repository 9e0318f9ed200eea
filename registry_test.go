// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInsertionOrderAndCaseInsensitiveLookup(t *testing.T) {
	r := newRegistry[int]()
	r.Register("Plain", 1, nil)
	r.Register("CRAM-MD5", 2, nil)

	assert.Equal(t, []string{"PLAIN", "CRAM-MD5"}, r.Names())

	v, ok := r.Lookup("plain")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRegistryLastWinsPreservesOrder(t *testing.T) {
	r := newRegistry[int]()
	r.Register("PLAIN", 1, nil)
	r.Register("plain", 2, nil)

	assert.Equal(t, []string{"PLAIN"}, r.Names())
	v, _ := r.Lookup("PLAIN")
	assert.Equal(t, 2, v)
}

func TestRegistryEachVisitsInOrder(t *testing.T) {
	r := newRegistry[int]()
	r.Register("A", 1, nil)
	r.Register("B", 2, nil)

	var seen []string
	r.Each(func(name string, v int) { seen = append(seen, name) })
	assert.Equal(t, []string{"A", "B"}, seen)
}

func TestRegisterServerMechanismGlobalRegistry(t *testing.T) {
	defer Done()

	m := &fakeServerMech{name: "FAKE"}
	RegisterServerMechanism(m)

	got, ok := serverMechs.Lookup("fake")
	require.True(t, ok)
	assert.Equal(t, "FAKE", got.Name())
}

type fakeServerMech struct {
	name string
}

func (f *fakeServerMech) Name() string                     { return f.name }
func (f *fakeServerMech) MaxSSF() uint                     { return 0 }
func (f *fakeServerMech) MinSSF() uint                     { return 0 }
func (f *fakeServerMech) SecurityFlags() SecurityFlag      { return 0 }
func (f *fakeServerMech) Features() MechFeature            { return 0 }
func (f *fakeServerMech) Available(_ *Utils, _ string) error { return nil }
func (f *fakeServerMech) NewServerContext(_ *Utils, _ *ServerParams) (ServerMechContext, error) {
	return nil, nil
}
