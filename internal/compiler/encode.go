package compiler

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/flowbot/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Encode writes a project in the document format read by Loader.
func Encode(p *domain.Project, format Format) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow: %w", err)
	}
	if format != FormatYAML {
		return data, nil
	}

	// Node data records carry json tags only; go through a generic tree so
	// YAML keys match the JSON ones.
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to encode flow: %w", err)
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to encode flow: %w", err)
	}
	return out, nil
}
