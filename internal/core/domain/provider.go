package domain

// Credentials is decrypted provider material. It must never be logged.
type Credentials struct {
	// APIKey authenticates against cloud providers.
	APIKey string

	// BaseURL overrides the provider endpoint.
	BaseURL string
}

// String redacts the key so credentials are safe to pass to formatters.
func (c Credentials) String() string {
	if c.APIKey == "" {
		return "Credentials{base_url=" + c.BaseURL + "}"
	}
	return "Credentials{base_url=" + c.BaseURL + ", api_key=[redacted]}"
}

// GoString redacts the key for %#v.
func (c Credentials) GoString() string {
	return c.String()
}

// ProviderConfig describes how to reach one embedding provider.
type ProviderConfig struct {
	// Provider is the provider identity.
	Provider AIProvider

	// BaseURL is the API endpoint; empty means the provider default.
	BaseURL string

	// Model is the default embedding model.
	Model string

	// Active marks the config as selectable.
	Active bool

	// CredentialRef is an opaque reference resolved by the config store.
	CredentialRef string
}

// ProviderEntry pairs a config with its resolved credentials.
type ProviderEntry struct {
	Config      ProviderConfig
	Credentials Credentials
}

// Usable reports whether the entry is active and has the credentials its
// provider needs.
func (e ProviderEntry) Usable() bool {
	if !e.Config.Active || !e.Config.Provider.IsValid() {
		return false
	}
	if e.Config.Provider.RequiresAPIKey() {
		return e.Credentials.APIKey != ""
	}
	return true
}

// ProviderSet is the explicit configuration passed into provider selection.
// It is built per call; there is no process-wide provider state.
type ProviderSet struct {
	// Entries holds at most one active entry per provider.
	Entries map[AIProvider]ProviderEntry

	// AllowMock permits selecting the mock provider when nothing else is usable.
	AllowMock bool
}

// Get returns the entry for a provider.
func (s ProviderSet) Get(p AIProvider) (ProviderEntry, bool) {
	e, ok := s.Entries[p]
	return e, ok
}

// ProviderSelection is the outcome of provider selection.
type ProviderSelection struct {
	Provider    AIProvider
	Credentials Credentials
	Model       string
}
