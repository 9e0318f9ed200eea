// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"sync"
)

// pluginABIVersion is the compiled-in plugin ABI version a loaded library's
// entry point must echo back (spec §4.1 "Versioning"). Mismatches are
// rejected with BADVERS.
const pluginABIVersion = 1

// LoadedLibrary owns a dynamically opened plugin handle. The first
// mechanism a library contributes is given a reference; every other
// mechanism from the same library shares it. The library is dlclose'd
// (here: dropped, since Go's plugin package offers no Close) only once
// every referencing mechanism has been freed, via release(). This is the
// refcounted replacement for "first mechanism owns the library handle"
// named as brittle in spec §9 Design Notes.
type LoadedLibrary struct {
	mu       sync.Mutex
	path     string
	handle   *plugin.Plugin
	refcount int
}

func (l *LoadedLibrary) retain() *LoadedLibrary {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	l.refcount++
	l.mu.Unlock()
	return l
}

func (l *LoadedLibrary) release() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.refcount--
	closed := l.refcount <= 0
	l.mu.Unlock()

	if closed {
		// Go's plugin.Plugin has no Close/dlclose equivalent; the handle
		// is simply dropped so it becomes eligible for GC. The dlopen vs
		// static-link shim itself is an explicit Non-goal (spec §1).
		l.handle = nil
	}
}

// PluginEntry is a named plugin entry point the loader will attempt to
// resolve in every candidate library, the Go analogue of
// add_plugin_list_t (spec §4.1).
type PluginEntry struct {
	Name string
	// AddPlugin is invoked once per resolved symbol with the library's
	// base name and the resolved symbol. It returns an error to reject
	// the plugin (e.g. version mismatch).
	AddPlugin func(libBaseName string, symbol plugin.Symbol, lib *LoadedLibrary) error
}

// LoadPlugins enumerates every shared-library file on the GETPATH-supplied
// search path, verifies each with the VERIFYFILE callback, opens it, and
// resolves every requested entry name (spec §4.1 algorithm).
//
// Load errors on a single library are logged at WARN and skipped; they do
// not fail the whole call, matching the "Failure policy" of §4.1.
func LoadPlugins(resolver *resolver, entries []PluginEntry) error {
	getpath, ok := resolver.Resolve(CbGetpath)
	if !ok {
		return NewStatus(NOCALLBACK, "no GETPATH callback available")
	}
	proc, ok := getpath.Proc.(SimpleProc)
	if !ok {
		return NewStatus(BADPARAM, "GETPATH callback has the wrong shape")
	}
	path, ok := proc(getpath.Context)
	if !ok || path == "" {
		return nil
	}

	verify, _ := resolver.Resolve(CbVerifyfile)

	for _, dir := range filepath.SplitList(path) {
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".so") {
				continue
			}

			full := filepath.Join(dir, f.Name())
			if verify.Proc != nil {
				if vp, ok := verify.Proc.(func(any, string, VerifyPurpose) bool); ok {
					if !vp(verify.Context, full, VerifyPlugin) {
						continue
					}
				}
			}

			if err := loadOne(full, entries); err != nil {
				defaultLogger().Warnf("failed to load plugin %s: %v", full, err)
			}
		}
	}
	return nil
}

func loadOne(path string, entries []PluginEntry) error {
	p, err := plugin.Open(path)
	if err != nil {
		return err
	}

	lib := &LoadedLibrary{path: path, handle: p}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	resolved := 0
	for _, e := range entries {
		sym, err := p.Lookup(e.Name)
		if err != nil {
			continue
		}
		resolved++
		lib.retain()
		if err := e.AddPlugin(base, sym, lib); err != nil {
			lib.release()
			return fmt.Errorf("entry %s: %w", e.Name, err)
		}
	}

	if resolved == 0 {
		// No entrypoint resolved in this library: close it immediately
		// (spec §4.1 "If NO entryname resolves in a library, close it
		// immediately").
		lib.handle = nil
		return fmt.Errorf("no recognized entry points in %s", path)
	}
	return nil
}
