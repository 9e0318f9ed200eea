// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"strings"
	"sync"
)

// CanonBufSize bounds the length of a canonicalized identity, the Go
// analogue of CANON_BUF_SIZE in saslint.h.
const CanonBufSize = 255

// CanonFlag tells a Canonicalizer which kind of identity it is processing
// (spec §4.5).
type CanonFlag int

const (
	CanonAuthzid CanonFlag = 1 << iota
	CanonAuthid
)

// Canonicalizer normalizes a raw identity string into canonical form. It
// may rewrite the value or fail with BADPROT. Implementations must be
// idempotent: Canonicalize(Canonicalize(x)) == Canonicalize(x) (spec §4.5,
// §8 testable property).
type Canonicalizer interface {
	CanonicalizeUser(conn *Conn, input string, flags CanonFlag) (string, error)
}

// CanonicalizerFunc adapts a function to a Canonicalizer.
type CanonicalizerFunc func(conn *Conn, input string, flags CanonFlag) (string, error)

func (f CanonicalizerFunc) CanonicalizeUser(conn *Conn, input string, flags CanonFlag) (string, error) {
	return f(conn, input, flags)
}

var canonMu sync.Mutex
var canonChain []Canonicalizer

// RegisterCanonicalizer appends a pluggable canonicalizer to the chain run
// after the internal default. Canonicalizers run in registration order.
func RegisterCanonicalizer(c Canonicalizer) {
	canonMu.Lock()
	defer canonMu.Unlock()
	canonChain = append(canonChain, c)
}

// resetCanonicalizers clears the chain; used by tests to avoid cross-test
// registration leakage.
func resetCanonicalizers() {
	canonMu.Lock()
	defer canonMu.Unlock()
	canonChain = nil
}

// defaultCanonicalize is the internal default canonicalizer: trim
// whitespace, reject embedded NUL, enforce CanonBufSize (spec §4.5).
func defaultCanonicalize(_ *Conn, input string, _ CanonFlag) (string, error) {
	trimmed := strings.TrimSpace(input)
	if strings.IndexByte(trimmed, 0) >= 0 {
		return "", NewStatus(BADPROT, "canonicalized user contains an embedded NUL")
	}
	if len(trimmed) > CanonBufSize {
		return "", NewStatus(BADPROT, "canonicalized user exceeds %d bytes", CanonBufSize)
	}
	return trimmed, nil
}

// canonUser runs the default canonicalizer followed by every registered
// pluggable Canonicalizer, in order, implementing canon_user from §4.5.
func canonUser(conn *Conn, input string, flags CanonFlag) (string, error) {
	out, err := defaultCanonicalize(conn, input, flags)
	if err != nil {
		return "", err
	}

	canonMu.Lock()
	chain := append([]Canonicalizer(nil), canonChain...)
	canonMu.Unlock()

	for _, c := range chain {
		out, err = c.CanonicalizeUser(conn, out, flags)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}
