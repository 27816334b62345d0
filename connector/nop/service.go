package nop

import (
	"context"
	"reflect"

	"github.com/caseflow/caseflow/model/types"
)

const name = "nop"

// Service is a no-op connector, useful for wiring playbooks before the real
// connectors are available and as a stand-in for drills.
type Service struct{}

type Input struct{}

// Output represents the no-op result
type Output struct {
	Done bool `json:"done"`
}

// New creates a new nop service
func New() *Service {
	return &Service{}
}

// Name returns the service name
func (s *Service) Name() string {
	return name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:   "run",
			Input:  reflect.TypeOf(&Input{}),
			Output: reflect.TypeOf(&Output{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	return s.run, nil
}

func (s *Service) run(ctx context.Context, in, out interface{}) error {
	if output, ok := out.(*Output); ok {
		output.Done = true
	}
	return nil
}
