// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-rag.
// It lets AI assistants search indexed chunks and consult the semantic cache.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrCacheUnavailable is returned by cache tools when no cache service is wired.
var ErrCacheUnavailable = errors.New("mcp: cache service is not configured")
