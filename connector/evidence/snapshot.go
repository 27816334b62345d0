package evidence

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/caseflow/caseflow/internal/clock"
	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// SnapshotInput defines parameters for preserving an artifact
type SnapshotInput struct {
	SourceURL string `json:"sourceURL,omitempty" description:"URL of the artifact to preserve"`
	Content   string `json:"content,omitempty" description:"Inline artifact content (if sourceURL is not provided)"`
	Label     string `json:"label,omitempty" description:"Optional artifact label"`
}

// SnapshotOutput contains the stored artifact identity
type SnapshotOutput struct {
	ArtifactID string `json:"artifactId"`
	URL        string `json:"url"`
	SHA256     string `json:"sha256"`
	Size       int    `json:"size"`
	StoredAt   string `json:"storedAt"`
}

// Snapshot copies the artifact into the evidence store. The artifact ID is
// the content digest, so re-snapshotting identical content is a no-op write.
func (s *Service) Snapshot(ctx context.Context, input *SnapshotInput, output *SnapshotOutput) error {
	var data []byte
	var err error
	switch {
	case input.SourceURL != "":
		data, err = s.fs.DownloadWithURL(ctx, input.SourceURL)
		if err != nil {
			return fmt.Errorf("failed to download artifact from %s: %w", input.SourceURL, err)
		}
	case input.Content != "":
		data = []byte(input.Content)
	default:
		return fmt.Errorf("no artifact provided: specify sourceURL or content")
	}

	digest := sha256.Sum256(data)
	artifactID := hex.EncodeToString(digest[:])
	destURL := url.Join(s.baseURL, artifactID)
	if err := s.fs.Upload(ctx, destURL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to store artifact %s: %w", artifactID, err)
	}

	output.ArtifactID = artifactID
	output.URL = destURL
	output.SHA256 = artifactID
	output.Size = len(data)
	output.StoredAt = clock.Now().UTC().Format("2006-01-02T15:04:05Z07:00")
	return nil
}

func (s *Service) snapshot(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*SnapshotInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*SnapshotOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Snapshot(ctx, input, output)
}
