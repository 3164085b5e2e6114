package model

// ProviderConfig describes one market-data HTTP API. Endpoint templates may
// contain {symbol}, {apiKey}, {from} and {to} placeholders.
type ProviderConfig struct {
	ID        string            `json:"id" yaml:"id"`
	Name      string            `json:"name" yaml:"name"`
	BaseURL   string            `json:"baseUrl" yaml:"base_url"`
	APIKey    string            `json:"apiKey" yaml:"api_key"`
	Enabled   bool              `json:"enabled" yaml:"enabled"`
	Endpoints map[string]string `json:"endpoints" yaml:"endpoints"`
}

// Usable reports whether the provider can serve requests.
func (p ProviderConfig) Usable() bool {
	return p.Enabled && p.APIKey != ""
}

func (p ProviderConfig) Clone() ProviderConfig {
	out := p
	out.Endpoints = make(map[string]string, len(p.Endpoints))
	for k, v := range p.Endpoints {
		out.Endpoints[k] = v
	}
	return out
}
