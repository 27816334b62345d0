// Package source loads playbook definitions from YAML documents addressed by
// URL (file, s3, gs, mem ...).
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caseflow/caseflow/model"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

type Service struct {
	fs afs.Service
}

// New creates a new playbook source service
func New() *Service {
	return &Service{fs: afs.New()}
}

// DecodeYAML decodes a playbook from YAML
func (s *Service) DecodeYAML(encoded []byte) (*model.Playbook, error) {
	playbook := &model.Playbook{}
	if err := yaml.Unmarshal(encoded, playbook); err != nil {
		return nil, err
	}
	if err := validate(playbook); err != nil {
		return nil, err
	}
	return playbook, nil
}

// Load loads a playbook from YAML at the specified URL
func (s *Service) Load(ctx context.Context, URL string) (*model.Playbook, error) {
	ext := filepath.Ext(URL)
	if ext == "" {
		URL += ".yaml"
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load playbook from %s: %w", URL, err)
	}
	playbook, err := s.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse playbook from %s: %w", URL, err)
	}
	if playbook.ID == "" {
		playbook.ID = playbookNameFromURL(URL)
	}
	return playbook, nil
}

func validate(playbook *model.Playbook) error {
	if len(playbook.Tasks) == 0 {
		return fmt.Errorf("playbook has no tasks")
	}
	for name, def := range playbook.Tasks {
		if def == nil || def.Type == "" {
			return fmt.Errorf("task %q has no type", name)
		}
	}
	return nil
}

// playbookNameFromURL extracts the playbook name (file name without
// extension).
func playbookNameFromURL(URL string) string {
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
