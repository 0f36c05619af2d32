// Package preamble provides the pre-execution hook abstraction and the
// ordered registry the kernel consults before handing code to the engine.
//
// A Preamble claims a submission by matching its text; the first registered
// preamble that matches answers the request and the engine never sees the
// code. Typical preambles are:
//
//   - Introspection: "?expr" documentation lookups
//   - Magics: "%name" and "%%name" commands
//   - Shell: "!cmd" escapes
//
// # Registry
//
// The Registry keeps preambles in registration order:
//
//	registry := preamble.NewRegistry()
//	_ = registry.Register("magics", magics)
//	_ = registry.Register("shell", shell)
//
//	if _, reply, ok := registry.Dispatch(ctx, code); ok {
//	    return reply
//	}
//
// # Extension
//
// Preambles that host named sub-commands implement [Extensible]. Composing
// layers reach them by registry name without knowing their concrete type:
//
//	err := preamble.Extend[magic.Magic](registry, "magics", "config", configMagic)
package preamble
