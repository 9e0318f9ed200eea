// Package sasldb provides an in-memory reference auxprop backend keyed by
// (mechname, authid, realm), the scheme described in spec §6. It exists to
// exercise the auxprop contract end to end; the on-disk secret database
// format itself is an explicit Non-goal of the framework (spec §1) and is
// not implemented here.
package sasldb

import (
	"sync"

	"github.com/golang-auth/go-sasl"
)

// key is the (authid, mech, realm) triple, held as a struct rather than
// as a NUL-separated byte string; the realm component is the one named in
// §4.6's parseuser discussion.
type key struct {
	authid string
	mech   string
	realm  string
}

// Store is an in-memory secret store. The zero value is ready to use.
type Store struct {
	mu     sync.RWMutex
	values map[key][]byte
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{values: make(map[key][]byte)}
}

// Put stores a secret for (mech, authid, realm).
func (s *Store) Put(mech, authid, realm string, secret []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[key][]byte)
	}
	s.values[key{authid, mech, realm}] = append([]byte(nil), secret...)
}

// Get retrieves a secret for (mech, authid, realm).
func (s *Store) Get(mech, authid, realm string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key{authid, mech, realm}]
	return v, ok
}

// Plugin adapts a Store into a sasl.AuxpropPlugin, filling the "userPassword"
// property the same way plugins/sasldb.c's sasldb_auxprop_lookup does.
type Plugin struct {
	Store      *Store
	Mechanism  string
	ServerFQDN string
	UserRealm  string
}

const propUserPassword = "userPassword"

func (p *Plugin) Name() string { return "sasldb" }

func (p *Plugin) AuxpropLookup(ctx *sasl.PropContext, _ sasl.AuxpropFlag, user string) error {
	if !ctx.Requested(propUserPassword) {
		return nil
	}

	authid, realm, err := sasl.SplitRealm(user, p.UserRealm, p.ServerFQDN)
	if err != nil {
		return err
	}

	secret, ok := p.Store.Get(p.Mechanism, authid, realm)
	if !ok {
		return nil
	}
	ctx.Fill(propUserPassword, string(secret))
	return nil
}

// Verifier adapts a Store into a sasl.PasswordVerifier, used by
// Server.CheckPass/UserExists/SetPass (spec §6 checkpass/userexists/
// setpass), the Go restatement of plugins/checkpw.c's "auxprop backend as
// a checkpw plugin" path.
type Verifier struct {
	Store      *Store
	Mechanism  string
	ServerFQDN string
	UserRealm  string
}

func (v *Verifier) Name() string { return "sasldb" }

func (v *Verifier) CheckPass(_ *sasl.Utils, user, pass string) error {
	authid, realm, err := sasl.SplitRealm(user, v.UserRealm, v.ServerFQDN)
	if err != nil {
		return err
	}
	secret, ok := v.Store.Get(v.Mechanism, authid, realm)
	if !ok || string(secret) != pass {
		return sasl.NewStatus(sasl.BADAUTH, "sasldb: invalid password for %q", user)
	}
	return nil
}

func (v *Verifier) UserExists(_ *sasl.Utils, user string) bool {
	authid, realm, err := sasl.SplitRealm(user, v.UserRealm, v.ServerFQDN)
	if err != nil {
		return false
	}
	_, ok := v.Store.Get(v.Mechanism, authid, realm)
	return ok
}

func (v *Verifier) SetPass(_ *sasl.Utils, user, pass string) error {
	authid, realm, err := sasl.SplitRealm(user, v.UserRealm, v.ServerFQDN)
	if err != nil {
		return err
	}
	v.Store.Put(v.Mechanism, authid, realm, []byte(pass))
	return nil
}
