// SPDX-License-Identifier: Apache-2.0

package sasl

import (
	"log"
	"os"

	"github.com/golang-auth/go-sasl/pkg/config"
	"github.com/golang-auth/go-sasl/pkg/loggable"
)

// CallbackID enumerates the callback domains recognized by the framework
// (spec §3, §6).
type CallbackID int

const (
	CbGetopt CallbackID = iota
	CbLog
	CbGetpath
	CbVerifyfile
	CbUser
	CbAuthname
	CbPass
	CbEchoprompt
	CbNoechoprompt
	CbGetrealm
	CbProxyPolicy
	CbCanonUser

	// cbListEnd is the terminator sentinel described in spec §3 "Callback
	// entry"; callers never need to use it directly since Callback lists
	// in this package are plain slices rather than C-style sentinel
	// terminated arrays, but the id is kept so ported callback lists can
	// still check for it.
	cbListEnd
)

// Callback pairs a CallbackID with the proc to invoke and an opaque
// context value threaded through to it, mirroring the C callback_t shape.
type Callback struct {
	ID      CallbackID
	Proc    any
	Context any
}

// GetoptProc is the function shape expected for CbGetopt.
type GetoptProc func(context any, pluginName, option string) (value string, ok bool)

// LogProc is the function shape expected for CbLog.
type LogProc func(context any, level LogLevel, message string)

// LogLevel mirrors the numeric log levels used by the LOG callback.
type LogLevel int

const (
	LogErr LogLevel = iota
	LogWarn
	LogNote
	LogDebug
)

// SimpleProc is used by callbacks that only need a context and return a
// string value: USER, AUTHNAME, PASS, GETREALM.
type SimpleProc func(context any) (value string, ok bool)

// PromptProc is used by ECHOPROMPT/NOECHOPROMPT; it receives a prompt
// string and returns the user's answer.
type PromptProc func(context any, prompt string) (answer string, ok bool)

// CanonUserProc lets the application override canonicalization via a
// callback rather than (or in addition to) registering a Canonicalizer.
type CanonUserProc func(context any, in string, flags CanonFlag) (out string, err error)

// resolver locates the best-matching callback for an id, applying the
// conn-local > app-global > framework-builtin order from spec §4.4.
type resolver struct {
	connCallbacks   []Callback
	globalCallbacks []Callback
	builtins        []Callback
}

func newResolver(conn, global []Callback) *resolver {
	return &resolver{
		connCallbacks:   conn,
		globalCallbacks: global,
		builtins:        builtinCallbacks(),
	}
}

// Resolve returns the first matching callback for id across the three
// lists, or (Callback{}, false) if none exists (NO_CALLBACK).
func (r *resolver) Resolve(id CallbackID) (Callback, bool) {
	for _, list := range [][]Callback{r.connCallbacks, r.globalCallbacks, r.builtins} {
		for _, cb := range list {
			if cb.ID == id {
				return cb, true
			}
		}
	}
	return Callback{}, false
}

// builtinCallbacks returns the framework's built-in defaults: LOG forwards
// to the process-wide logger (stderr unless replaced by SetDefaultLogger;
// debug messages are dropped), GETOPT reads from a process-wide config
// store, GETPATH defaults to the compiled-in plugin dir, VERIFYFILE
// defaults to permitting everything.
func builtinCallbacks() []Callback {
	return []Callback{
		{
			ID: CbLog,
			Proc: LogProc(func(_ any, level LogLevel, message string) {
				lg := defaultLogger()
				switch level {
				case LogErr:
					lg.Errorf("%s", message)
				case LogWarn:
					lg.Warnf("%s", message)
				case LogNote:
					lg.Infof("%s", message)
				default:
					lg.Debugf("%s", message)
				}
			}),
		},
		{
			ID: CbGetopt,
			Proc: GetoptProc(func(_ any, _, option string) (string, bool) {
				store := defaultConfigStore()
				v := store.GetString(option, "")
				return v, v != ""
			}),
		},
		{
			ID: CbGetpath,
			Proc: SimpleProc(func(_ any) (string, bool) {
				if p := os.Getenv("SASL_PATH"); p != "" {
					return p, true
				}
				return defaultPluginPath, true
			}),
		},
		{
			ID: CbVerifyfile,
			Proc: func(_ any, _ string, _ VerifyPurpose) bool {
				return true
			},
		},
	}
}

// VerifyPurpose is passed to the VERIFYFILE callback, naming why a path is
// being checked (spec §4.1).
type VerifyPurpose int

const (
	VerifyPlugin VerifyPurpose = iota
	VerifyConfig
)

const defaultPluginPath = "/usr/lib/sasl2"

var processLoggable = newStderrLoggable()
var processConfig = &config.Store{}

// newStderrLoggable builds the process-wide fallback logger: error, warning
// and notice messages are written to stderr; debug messages are discarded.
func newStderrLoggable() *loggable.Loggable {
	l := log.New(os.Stderr, "sasl: ", log.LstdFlags)
	lg := &loggable.Loggable{}
	for _, opt := range []loggable.Option{
		loggable.WithErrorLogger(l),
		loggable.WithWarnLogger(l),
		loggable.WithInfoLogger(l),
	} {
		_ = opt(lg)
	}
	return lg
}

func defaultLogger() *loggable.Loggable { return processLoggable }
func defaultConfigStore() *config.Store { return processConfig }

// SetDefaultLogger installs the process-wide fallback logger used by the
// built-in LOG callback when no application callback handles it.
func SetDefaultLogger(l *loggable.Loggable) {
	processLoggable = l
}

// SetDefaultConfig installs the process-wide fallback config store used by
// the built-in GETOPT callback.
func SetDefaultConfig(s *config.Store) {
	processConfig = s
}
