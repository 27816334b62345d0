package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/afs"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"
)

// SecureInput defines parameters for storing an encrypted credential
type SecureInput struct {
	SourceURL string                 `json:"sourceURL,omitempty" description:"URL to read the credential from (if content is not provided)"`
	Content   string                 `json:"content,omitempty" description:"Raw content to encrypt (if sourceURL is not provided)"`
	Data      map[string]interface{} `json:"data,omitempty" description:"Structured credential to encrypt"`
	DestURL   string                 `json:"destURL" required:"true" description:"Destination URL for the encrypted credential"`
	Target    string                 `json:"target,omitempty" description:"Credential type ('raw', 'basic', 'key', 'generic', ...)"`
	Key       string                 `json:"key,omitempty" description:"Encryption key, e.g. 'blowfish://default'"`
}

// SecureOutput contains results from encrypting a credential
type SecureOutput struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
}

// Secure encrypts and stores a credential
func (s *Service) Secure(ctx context.Context, input *SecureInput, output *SecureOutput) error {
	var data []byte
	var err error
	if input.Content != "" {
		data = []byte(input.Content)
	} else if len(input.Data) > 0 {
		data, err = json.Marshal(input.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal credential: %w", err)
		}
	} else if input.SourceURL != "" {
		fs := afs.New()
		data, err = fs.DownloadWithURL(ctx, input.SourceURL)
		if err != nil {
			return fmt.Errorf("failed to download from %s: %w", input.SourceURL, err)
		}
	} else {
		return fmt.Errorf("no credential provided: specify sourceURL, content, or data")
	}

	var targetType reflect.Type
	if input.Target != "" && input.Target != "raw" {
		targetType, err = cred.TargetType(input.Target)
		if err != nil {
			return fmt.Errorf("invalid target type '%s': %w", input.Target, err)
		}
	}

	var secret *scy.Secret
	if targetType != nil {
		instance := reflect.New(targetType).Interface()
		if err := json.Unmarshal(data, instance); err != nil {
			return fmt.Errorf("failed to unmarshal credential to target type %s: %w", input.Target, err)
		}
		resource := scy.NewResource(targetType, input.DestURL, input.Key)
		secret = scy.NewSecret(instance, resource)
	} else {
		resource := scy.NewResource(nil, input.DestURL, input.Key)
		secret = scy.NewSecret(string(data), resource)
	}

	if err := s.scyService.Store(ctx, secret); err != nil {
		return fmt.Errorf("failed to store encrypted credential: %w", err)
	}
	output.Success = true
	output.URL = input.DestURL
	return nil
}

func (s *Service) secure(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*SecureInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*SecureOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Secure(ctx, input, output)
}
