package caseflow

import "fmt"

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON or YAML; the zero value of nested fields
// inherits the package defaults.
type Config struct {
	Engine   EngineConfig   `json:"engine" yaml:"engine"`
	Ledger   LedgerConfig   `json:"ledger" yaml:"ledger"`
	Evidence EvidenceConfig `json:"evidence" yaml:"evidence"`
}

type EngineConfig struct {
	WorkerCount int `json:"workers" yaml:"workers"`
}

type LedgerConfig struct {
	ID        string `json:"id,omitempty" yaml:"id,omitempty"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	AnchorURL string `json:"anchorURL,omitempty" yaml:"anchorURL,omitempty"`
}

type EvidenceConfig struct {
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

// DefaultConfig returns a Config populated with the package defaults: an
// in-memory ledger and an in-memory evidence store.
func DefaultConfig() *Config {
	return &Config{
		Engine:   EngineConfig{WorkerCount: 5},
		Evidence: EvidenceConfig{BaseURL: "mem://localhost/caseflow/evidence"},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Engine.WorkerCount <= 0 {
		return fmt.Errorf("engine.workers must be > 0")
	}
	return nil
}
