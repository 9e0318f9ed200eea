// SPDX-License-Identifier: Apache-2.0

package mechanisms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sasl "github.com/golang-auth/go-sasl"
	"github.com/golang-auth/go-sasl/auxprop/sasldb"
)

func TestDigestMD5ClientAndServerAgree(t *testing.T) {
	store := sasldb.NewStore()
	store.Put("DIGEST-MD5", "alice", "example.com", []byte("hunter2"))
	server := newTestConnForMech(t, store, "DIGEST-MD5")

	t.Cleanup(sasl.Done)
	client := sasl.NewClient("imap", "example.com", nil, 0, nil, []sasl.Callback{
		{ID: sasl.CbAuthname, Proc: sasl.SimpleProc(func(any) (string, bool) { return "alice", true })},
		{ID: sasl.CbPass, Proc: sasl.SimpleProc(func(any) (string, bool) { return "hunter2", true })},
	})
	t.Cleanup(client.Dispose)

	serverRes := server.Start("DIGEST-MD5", nil)
	require.Equal(t, sasl.CONTINUE, serverRes.Code)

	_, clientRes := client.Start("DIGEST-MD5")
	require.Equal(t, sasl.CONTINUE, clientRes.Code)

	clientRes = client.Step(serverRes.Token)
	require.Equal(t, sasl.OK, clientRes.Code)

	serverRes = server.Step(clientRes.Token)
	require.Equal(t, sasl.OK, serverRes.Code)
	assert.Equal(t, "alice", server.OutParams().Authid)
}

func TestDigestMD5ServerRejectsWrongResponse(t *testing.T) {
	store := sasldb.NewStore()
	store.Put("DIGEST-MD5", "alice", "example.com", []byte("hunter2"))
	s := newTestConnForMech(t, store, "DIGEST-MD5")

	s.Start("DIGEST-MD5", nil)
	res := s.Step([]byte("alice deadbeef"))
	assert.Equal(t, sasl.BADAUTH, res.Code)
}
