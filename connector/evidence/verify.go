package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/afs/url"
)

// VerifyInput identifies a stored artifact
type VerifyInput struct {
	ArtifactID string `json:"artifactId" description:"Artifact identity returned by snapshot"`
}

// VerifyOutput reports artifact integrity
type VerifyOutput struct {
	Valid  bool   `json:"valid"`
	SHA256 string `json:"sha256,omitempty"`
}

// Verify recomputes the digest of a stored artifact and compares it against
// its identity.
func (s *Service) Verify(ctx context.Context, input *VerifyInput, output *VerifyOutput) error {
	if input.ArtifactID == "" {
		return fmt.Errorf("artifactId was empty")
	}
	data, err := s.fs.DownloadWithURL(ctx, url.Join(s.baseURL, input.ArtifactID))
	if err != nil {
		return fmt.Errorf("failed to read artifact %s: %w", input.ArtifactID, err)
	}
	digest := sha256.Sum256(data)
	output.SHA256 = hex.EncodeToString(digest[:])
	output.Valid = output.SHA256 == input.ArtifactID
	return nil
}

func (s *Service) verify(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*VerifyInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*VerifyOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Verify(ctx, input, output)
}
