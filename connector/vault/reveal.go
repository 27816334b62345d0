package vault

import (
	"context"
	"fmt"

	"github.com/caseflow/caseflow/model/types"
	"github.com/viant/scy"
	"github.com/viant/scy/cred"
	"github.com/viant/toolbox"
)

// RevealInput defines parameters for reading an encrypted credential
type RevealInput struct {
	SourceURL string `json:"sourceURL" required:"true" description:"URL of the encrypted credential"`
	Target    string `json:"target,omitempty" description:"Credential type ('raw', 'basic', 'key', 'generic', ...)"`
	Key       string `json:"key,omitempty" description:"Encryption key, e.g. 'blowfish://default'"`
}

// RevealOutput contains the decrypted credential
type RevealOutput struct {
	PlainText string                 `json:"plainText,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Success   bool                   `json:"success"`
}

// Reveal decrypts a stored credential
func (s *Service) Reveal(ctx context.Context, input *RevealInput, output *RevealOutput) error {
	var target interface{}
	if input.Target != "" && input.Target != "raw" {
		targetType, err := cred.TargetType(input.Target)
		if err != nil {
			return fmt.Errorf("invalid target type '%s': %w", input.Target, err)
		}
		if targetType != nil {
			target = targetType
		}
	}

	resource := scy.NewResource(target, input.SourceURL, input.Key)
	secret, err := s.scyService.Load(ctx, resource)
	if err != nil {
		return fmt.Errorf("failed to load credential from %s: %w", input.SourceURL, err)
	}

	if !secret.IsPlain && secret.Target != nil {
		aMap := map[string]interface{}{}
		if err := toolbox.DefaultConverter.AssignConverted(&aMap, secret.Target); err != nil {
			return fmt.Errorf("failed to convert credential data: %w", err)
		}
		output.Data = toolbox.DeleteEmptyKeys(aMap)
	} else {
		output.PlainText = secret.String()
	}
	output.Success = true
	return nil
}

func (s *Service) reveal(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*RevealInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*RevealOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.Reveal(ctx, input, output)
}
