package evidence

import (
	"reflect"
	"strings"

	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/afs"
)

const Name = "evidence"

// Service preserves incident artifacts: it copies them into a content-hashed
// evidence store and verifies stored artifacts against their digest.
type Service struct {
	fs      afs.Service
	baseURL string
}

// New creates an evidence service rooted at baseURL (file, s3, gs, mem ...).
func New(baseURL string) *Service {
	return &Service{
		fs:      afs.New(),
		baseURL: strings.TrimRight(baseURL, "/"),
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
			Name:   "snapshot",
			Input:  reflect.TypeOf(&SnapshotInput{}),
			Output: reflect.TypeOf(&SnapshotOutput{}),
		},
		{
			Name:   "verify",
			Input:  reflect.TypeOf(&VerifyInput{}),
			Output: reflect.TypeOf(&VerifyOutput{}),
		},
	}
}

// Method returns the specified method
func (s *Service) Method(name string) (types.Executable, error) {
	switch strings.ToLower(name) {
	case "snapshot":
		return s.snapshot, nil
	case "verify":
		return s.verify, nil
	default:
		return nil, types.NewMethodNotFoundError(name)
	}
}
