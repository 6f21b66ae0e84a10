package queries

// GetProvidersQuery lists the configured generation providers. Reads
// go straight to the registry file watcher, so the result is never
// cached.
type GetProvidersQuery struct{}

// Validate validates the GetProvidersQuery
func (q GetProvidersQuery) Validate() error {
	return nil
}

// ProviderDTO is one generation provider entry
type ProviderDTO struct {
	Name    string `json:"name"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
	Enabled bool   `json:"enabled"`
	Active  bool   `json:"active"`
}

// GetProvidersResult lists providers with the active one flagged
type GetProvidersResult struct {
	Providers []ProviderDTO `json:"providers"`
	Active    string        `json:"active"`
}
