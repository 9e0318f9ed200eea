// SPDX-License-Identifier: Apache-2.0

// Command saslecho demonstrates a complete server/client handshake over
// an in-process loopback, in lieu of a real socket transport (the
// framework is a mechanism library, not a transport; see SPEC_FULL.md
// Non-goals). It is the restatement of the teacher's v3/ex/main.go
// smoke-test style for this framework's API.
package main

import (
	"fmt"
	"log"

	sasl "github.com/golang-auth/go-sasl"
	"github.com/golang-auth/go-sasl/auxprop/sasldb"
	_ "github.com/golang-auth/go-sasl/mechanisms"
)

func main() {
	store := sasldb.NewStore()
	store.Put("PLAIN", "alice", "example.com", []byte("hunter2"))
	sasl.RegisterAuxprop(&sasldb.Plugin{
		Store:      store,
		Mechanism:  "PLAIN",
		ServerFQDN: "example.com",
		UserRealm:  "example.com",
	})
	sasl.RegisterPasswordVerifier(&sasldb.Verifier{
		Store:      store,
		Mechanism:  "PLAIN",
		ServerFQDN: "example.com",
		UserRealm:  "example.com",
	})
	defer sasl.Done()

	server := sasl.NewServer("imap", "example.com", "example.com", sasl.FlagSuccessDataAllowed, nil, nil)
	defer server.Dispose()
	// Requiring NOANONYMOUS keeps both listmech and mechanism selection off
	// ANONYMOUS (also registered by the mechanisms blank import), the same
	// bitset test §4.2/§4.3 use everywhere, so the handshake authenticates
	// against the sasldb store wired up above. The client picks the first
	// offered mechanism in its own registry order, which is CRAM-MD5; the
	// secret comes from the sasldb auxprop plugin, and the registered
	// Verifier is not called during the handshake.
	server.SecurityProps.SecurityFlags = sasl.SecNoAnonymous

	mechList, _, err := sasl.ListMech(&server.Conn, "", "", " ", "")
	if err != nil {
		log.Fatalf("listmech: %v", err)
	}
	fmt.Printf("offered mechanisms: %s\n", mechList)

	client := sasl.NewClient("imap", "example.com", nil, sasl.FlagSuccessDataAllowed, nil, []sasl.Callback{
		{ID: sasl.CbAuthname, Proc: sasl.SimpleProc(func(any) (string, bool) { return "alice", true })},
		{ID: sasl.CbPass, Proc: sasl.SimpleProc(func(any) (string, bool) { return "hunter2", true })},
	})
	defer client.Dispose()
	client.SecurityProps.SecurityFlags = sasl.SecNoAnonymous

	mechName, clientResult := client.Start(mechList)
	fmt.Printf("client selected: %s\n", mechName)

	serverResult := server.Start(mechName, clientResult.Token)
	for serverResult.Code == sasl.CONTINUE {
		if !server.Idle() {
			fmt.Println("server mechanism reports not idle, polling again")
		}
		clientResult = client.Step(serverResult.Token)
		serverResult = server.Step(clientResult.Token)
	}

	if serverResult.Code != sasl.OK {
		log.Fatalf("authentication failed: %v", server.Error())
	}
	fmt.Printf("authenticated as %q\n", server.OutParams().Authid)
}
