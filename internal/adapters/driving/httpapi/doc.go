// Package httpapi exposes search and the semantic cache over a JSON HTTP API.
//
// Routes:
//
//	POST   /api/v1/search
//	POST   /api/v1/cache/lookup
//	POST   /api/v1/cache
//	DELETE /api/v1/cache/expired
//	GET    /healthz
package httpapi
