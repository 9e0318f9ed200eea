// SPDX-License-Identifier: Apache-2.0

package sasl

import "net"

// defaultMaxOutBuf is used when a mechanism does not negotiate its own
// value (spec §4.7).
const defaultMaxOutBuf = 8192

// GssAddressFamily-style channel binding hint, ported from the teacher's
// v3/channelbinding.go since the sibling go-channelbinding module the
// teacher depends on is not part of the retrieved pack (see DESIGN.md).
type ChannelBinding struct {
	InitiatorAddr net.Addr
	AcceptorAddr  net.Addr
	Data          []byte
	Critical      bool
}

// securityPipe wraps a mechanism's Encode/Decode callbacks into the
// buffered byte-stream API described in spec §4.7 (component C11). Calls
// are serialized per connection; the mechanism is not expected to be
// re-entrant (spec §4.7 "Ordering").
type securityPipe struct {
	encode EncodeFunc
	decode DecodeFunc

	maxOutBuf uint

	// encodeBuf/decodeBuf are framework-owned buffers valid until the
	// next call on the same conn, the Go restatement of saslint.h's
	// buffer_info_t curlen/reallen invariant (reallen >= curlen always
	// holds here because encodeBuf/decodeBuf are simply reassigned, never
	// grown in place with stale length tracking).
	encodeBuf []byte
	decodeBuf []byte // unconsumed partial input awaiting a full frame
}

func newSecurityPipe(out *OutParams) *securityPipe {
	maxOutBuf := out.MaxOutBuf
	if maxOutBuf == 0 && out.Encode != nil {
		maxOutBuf = defaultMaxOutBuf
	}
	return &securityPipe{
		encode:    out.Encode,
		decode:    out.Decode,
		maxOutBuf: maxOutBuf,
	}
}

// Encode coalesces iov into one buffer and invokes the mechanism's Encode
// once, per spec §4.7.
func (p *securityPipe) Encode(iov ...[]byte) ([]byte, error) {
	if p.encode == nil {
		return nil, NewStatus(BADPARAM, "no security layer installed")
	}

	total := 0
	for _, b := range iov {
		total += len(b)
	}
	coalesced := make([]byte, 0, total)
	for _, b := range iov {
		coalesced = append(coalesced, b...)
	}

	out, err := p.encode(coalesced)
	if err != nil {
		return nil, err
	}
	p.encodeBuf = out
	return p.encodeBuf, nil
}

// Decode appends input to the pending buffer and hands the whole buffer to
// the mechanism's Decode. A non-empty result consumes the entire buffer; an
// empty result leaves the bytes buffered for the next call. The mechanism's
// Decode therefore runs at most once per call, and a buffer holding several
// frames is passed to it in one piece rather than frame by frame.
func (p *securityPipe) Decode(input []byte) ([]byte, error) {
	if p.decode == nil {
		return nil, NewStatus(BADPARAM, "no security layer installed")
	}

	p.decodeBuf = append(p.decodeBuf, input...)

	var plaintext []byte
	for len(p.decodeBuf) > 0 {
		out, err := p.decode(p.decodeBuf)
		if err != nil {
			return nil, err
		}
		if len(out) == 0 {
			break
		}
		plaintext = append(plaintext, out...)
		// DecodeFunc is a plain []byte->[]byte function and does not
		// report how much input it used, so a non-empty result is taken
		// to have consumed the whole buffer.
		p.decodeBuf = nil
	}

	return plaintext, nil
}

// MaxOutBuf returns the negotiated maximum plaintext size per Encode call
// (spec §4.7 "maxoutbuf").
func (p *securityPipe) MaxOutBuf() uint {
	return p.maxOutBuf
}

// Encode is the public encode(conn, iov, n) entry point from spec §6.
func (c *Conn) Encode(iov ...[]byte) ([]byte, error) {
	if c.pipe == nil {
		return nil, NewStatus(BADPARAM, "encode called on a conn without a security layer")
	}
	return c.pipe.Encode(iov...)
}

// Decode is the public decode(conn, bytes) entry point from spec §6.
func (c *Conn) Decode(input []byte) ([]byte, error) {
	if c.pipe == nil {
		return nil, NewStatus(BADPARAM, "decode called on a conn without a security layer")
	}
	return c.pipe.Decode(input)
}

// MaxOutBuf exposes the negotiated maxoutbuf, or 0 if no security layer is
// installed (spec §8 "maxoutbuf = 0 <=> mech_ssf = 0 <=> encode = decode =
// null").
func (c *Conn) MaxOutBuf() uint {
	if c.pipe == nil {
		return 0
	}
	return c.pipe.MaxOutBuf()
}

// installSecurityLayer wires a successful mechanism's Encode/Decode into
// the conn's pipe (spec §4.3 Completion step 3). A zero-SSF mechanism
// (out.Encode == nil) leaves the conn with no pipe at all.
func (c *Conn) installSecurityLayer(out *OutParams) {
	if out.Encode == nil && out.Decode == nil {
		c.pipe = nil
		return
	}
	c.pipe = newSecurityPipe(out)
}
