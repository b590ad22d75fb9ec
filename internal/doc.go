// Package internal contains helper utilities that are intentionally private to
// goRecover: crypto-grade code generation and code hashing.
//
// # Sub-packages
//
//   - limiters — fixed-window issue/consume throttles on Redis
//
// # What this package must NOT do
//
//   - Export types that appear in the public goRecover API.
//   - Be imported by any package outside the goRecover module.
package internal
