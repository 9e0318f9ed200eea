// SPDX-License-Identifier: Apache-2.0

/*
Package sasl implements a mechanism-agnostic Simple Authentication and
Security Layer core: a plugin registry for authentication mechanisms, a
connection/session state machine driving them, a callback resolver, a
canon-user and auxiliary-property service, and the per-message security
layer installed once a mechanism succeeds.

The package itself knows nothing about any particular mechanism's wire
syntax; mechanisms register themselves by implementing ServerMechanism
and/or ClientMechanism, typically from an init() function in a
subpackage imported for its side effect, such as this module's
mechanisms subpackage.
*/
package sasl
