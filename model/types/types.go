package types

import (
	"context"
	"reflect"
)

// Connector is an adapter to an external system (mailbox provider, identity
// provider, router, secret store, ...). The engine treats connectors as black
// boxes: it resolves an operation by name, converts the task inputs to the
// operation input type and invokes it. Any returned error converts to a task
// failure.
type Connector interface {
	Name() string
	Methods() Signatures
	Method(name string) (Executable, error)
}

// Executable is a single connector operation. The input and output values are
// instances of the operation signature types.
type Executable func(ctx context.Context, input, output interface{}) error

type Signatures []Signature

// Signature describes a connector operation
type Signature struct {
	Name   string
	Input  reflect.Type
	Output reflect.Type
}

func (s Signatures) Lookup(name string) *Signature {
	for i := range s {
		sig := &s[i]
		if sig.Name == name {
			return sig
		}
	}
	return nil
}
