// Package reflector reads one namespace through the binding layer and
// merges its two metadata sources into raw records.
//
// The low-level introspection source is authoritative for structural shape
// unless a per-kind Precedence says otherwise. The wrapper source is
// additive: members only the wrapper exposes are carried with wrapper
// presence, and wrapper call shapes beyond the low-level one become extra
// overloads. Nothing here decides what is emitted; the quirks package
// interprets presence.
//
// All activation goes through a Gate, which owns the process-global
// activation state of the binding layer.
package reflector
