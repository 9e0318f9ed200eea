// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"strings"
	"sync"
)

// registry is an insertion-ordered, case-insensitive mechanism table
// guarded by a mutex, restating saslint.h's mech_list_t/cmech_list_t
// linked lists as the ordered-container scheme from spec §9 Design Notes,
// and following the teacher's RegisterProvider/NewProvider shape
// (golang-auth-go-gssapi/v3/provider.go) generalized to two disjoint
// registries per §9 ("two disjoint registries... because the operation
// sets differ").
type registry[T any] struct {
	mu    sync.Mutex
	order []string // upper-cased keys, insertion order
	byKey map[string]T
	owner map[string]*LoadedLibrary
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{
		byKey: make(map[string]T),
		owner: make(map[string]*LoadedLibrary),
	}
}

func normalizeName(name string) string {
	return strings.ToUpper(name)
}

// Register inserts or replaces (last-wins) the mechanism under name. A
// replaced mechanism's library handle is not released here; that happens
// during Done() per spec §3 "Lifecycles".
func (r *registry[T]) Register(name string, mech T, owner *LoadedLibrary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeName(name)
	if _, exists := r.byKey[key]; !exists {
		r.order = append(r.order, key)
	}
	r.byKey[key] = mech
	r.owner[key] = owner
}

// Lookup returns the mechanism registered under name (case-insensitive).
func (r *registry[T]) Lookup(name string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.byKey[normalizeName(name)]
	return v, ok
}

// Names returns the registered mechanism names in insertion order.
func (r *registry[T]) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Each calls f for every registered mechanism in insertion order.
func (r *registry[T]) Each(f func(name string, mech T)) {
	r.mu.Lock()
	names := append([]string(nil), r.order...)
	byKey := r.byKey
	r.mu.Unlock()

	for _, name := range names {
		f(name, byKey[name])
	}
}

// owners returns the distinct set of libraries referenced by the
// registry, for use during Done().
func (r *registry[T]) owners() []*LoadedLibrary {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[*LoadedLibrary]bool)
	var libs []*LoadedLibrary
	for _, lib := range r.owner {
		if lib == nil || seen[lib] {
			continue
		}
		seen[lib] = true
		libs = append(libs, lib)
	}
	return libs
}

func (r *registry[T]) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.byKey = make(map[string]T)
	r.owner = make(map[string]*LoadedLibrary)
}

// Global registries (component C3). One pair per process, created at
// package initialization and cleared by Done().
var (
	serverMechs = newRegistry[ServerMechanism]()
	clientMechs = newRegistry[ClientMechanism]()
)

// RegisterServerMechanism adds (or replaces) a server-side mechanism in
// the global registry. Mechanism implementations call this from an init()
// function, mirroring the teacher's
// "func init() { g.RegisterLibrary(LIBID, New) }" static-registration
// convention (golang-auth-go-gssapi/v3/c/library.go) and the precursor's
// blank-import-to-register pattern.
func RegisterServerMechanism(m ServerMechanism) {
	serverMechs.Register(m.Name(), m, nil)
}

// RegisterClientMechanism adds (or replaces) a client-side mechanism in
// the global registry.
func RegisterClientMechanism(m ClientMechanism) {
	clientMechs.Register(m.Name(), m, nil)
}

// Done releases process-wide state: both registries are cleared and every
// plugin library they reference is closed exactly once, per the refcount
// scheme in loader.go. Done must not race with any live Conn (spec §5).
func Done() {
	for _, lib := range serverMechs.owners() {
		lib.release()
	}
	for _, lib := range clientMechs.owners() {
		lib.release()
	}
	serverMechs.clear()
	clientMechs.clear()
	resetCanonicalizers()
	resetAuxprops()
}
