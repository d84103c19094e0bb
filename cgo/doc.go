// Package cgo provides CGO bindings for native code.
// This package isolates all CGO code from the pure Go core.
//
// Sub-packages:
//   - cosine: native cosine similarity loop used as an optional accelerator
package cgo
