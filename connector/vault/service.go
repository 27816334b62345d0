package vault

import (
	"reflect"
	"strings"

	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/scy"
)

const Name = "vault"

// Service manages response credentials (API tokens, SSH keys, mailbox
// passwords) through viant/scy encrypted resources.
type Service struct {
	scyService *scy.Service
}

// New creates a new vault service
func New() *Service {
	return &Service{
		scyService: scy.New(),
	}
}

// Name returns the service Name
func (s *Service) Name() string {
	return Name
}

// Methods returns the service methods
func (s *Service) Methods() types.Signatures {
	return []types.Signature{
		{
			Name:   "secure",
			Input:  reflect.TypeOf(&SecureInput{}),
			Output: reflect.TypeOf(&SecureOutput{}),
		},
		{
			Name:   "reveal",
			Input:  reflect.TypeOf(&RevealInput{}),
			Output: reflect.TypeOf(&RevealOutput{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "secure":
		return s.secure, nil
	case "reveal":
		return s.reveal, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}
