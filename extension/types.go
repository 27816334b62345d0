package extension

import (
	"github.com/viant/x"
)

// Types is the registry of extension data types connectors may expose for
// typed input/output conversion.
type Types struct {
	x.Registry
}

// Register adds a data type to the registry.
func (t *Types) Register(dataType *x.Type) {
	t.Registry.Register(dataType)
}

// Lookup returns a data type from the registry.
func (t *Types) Lookup(dataType string) *x.Type {
	return t.Registry.Lookup(dataType)
}

// NewTypes creates a new type registry.
func NewTypes(options ...x.RegistryOption) *Types {
	return &Types{Registry: *x.NewRegistry(options...)}
}
