// Package extension holds the explicit connector registry injected into the
// engine. Registration replaces any module-level mutable state: an engine
// only ever sees the connectors wired into its registry instance.
package extension

import (
	"sync"

	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/x"
)

// Connectors is the registry mapping connector names to implementations.
type Connectors struct {
	types      *Types
	connectors map[string]types.Connector
	mux        sync.RWMutex
}

func (c *Connectors) Types() *Types {
	return c.types
}

// Lookup returns a connector by name, or nil when unregistered.
func (c *Connectors) Lookup(name string) types.Connector {
	c.mux.RLock()
	defer c.mux.RUnlock()
	return c.connectors[name]
}

// Register registers a connector under its Name().
func (c *Connectors) Register(connector types.Connector) {
	c.mux.Lock()
	defer c.mux.Unlock()
	c.connectors[connector.Name()] = connector
}

// Names returns the registered connector names.
func (c *Connectors) Names() []string {
	c.mux.RLock()
	defer c.mux.RUnlock()
	ret := make([]string, 0, len(c.connectors))
	for name := range c.connectors {
		ret = append(ret, name)
	}
	return ret
}

// NewConnectors creates a registry, optionally seeding extension data types.
func NewConnectors(goTypes ...*x.Type) *Connectors {
	ret := &Connectors{
		types:      NewTypes(),
		connectors: make(map[string]types.Connector),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
