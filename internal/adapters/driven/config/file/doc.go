// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML-based settings storage with live reload
//   - ProviderStore: embedding provider configs kept in the settings file
package file
