// Package validate provides the default credential format checks consulted
// by the engine before any backend is touched.
//
// All predicates are pure: no I/O, no allocation of shared state, safe for
// concurrent use. A predicate returning true means the value is well-formed,
// not that it refers to an existing user or project.
package validate
