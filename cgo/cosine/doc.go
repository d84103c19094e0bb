// Package cosine provides a native cosine similarity kernel.
//
// The kernel accumulates in double precision so it agrees with the pure Go
// backend within 1e-6. Builds without CGO get a stub whose Available reports
// false; callers then fall back to the portable backend.
package cosine
