// Package compiler turns editor documents into the typed flow model and back.
package compiler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/flowbot/pkg/domain"
	"github.com/aretw0/flowbot/pkg/schema"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format selects the document encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") {
		return FormatYAML
	}
	if strings.HasSuffix(lower, ".json") {
		return FormatJSON
	}
	return FormatAuto
}

// Loader decodes editor documents into a domain.Project.
type Loader struct {
	logger *slog.Logger
	strict bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger used for load warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithStrict makes node data that violates its schema a load error.
// By default such nodes are decoded best-effort and reported as warnings.
func WithStrict(strict bool) Option {
	return func(l *Loader) {
		l.strict = strict
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return l
}

// Result is a loaded project plus the non-fatal problems found while loading.
type Result struct {
	Project  *domain.Project
	Warnings []string
}

type rawNode struct {
	ID       string           `json:"id" yaml:"id"`
	Type     string           `json:"type" yaml:"type"`
	Position *domain.Position `json:"position,omitempty" yaml:"position,omitempty"`
	Data     map[string]any   `json:"data" yaml:"data"`
}

type rawSheet struct {
	ID          string              `json:"id" yaml:"id"`
	Name        string              `json:"name" yaml:"name"`
	Nodes       []rawNode           `json:"nodes" yaml:"nodes"`
	Connections []domain.Connection `json:"connections" yaml:"connections"`
}

type rawProject struct {
	Name              string         `json:"name" yaml:"name"`
	ProjectID         *int64         `json:"projectId" yaml:"projectId"`
	PersistentStorage bool           `json:"persistentStorage" yaml:"persistentStorage"`
	Groups            []domain.Group `json:"groups" yaml:"groups"`
	Sheets            []rawSheet     `json:"sheets" yaml:"sheets"`

	// Single-sheet documents carry nodes at the top level.
	Nodes       []rawNode           `json:"nodes" yaml:"nodes"`
	Connections []domain.Connection `json:"connections" yaml:"connections"`
}

// Load decodes a document. FormatAuto sniffs JSON by its first byte.
func (l *Loader) Load(data []byte, format Format) (*Result, error) {
	if format == FormatAuto {
		format = sniff(data)
	}

	var raw rawProject
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse flow: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse flow: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	res := &Result{Project: &domain.Project{
		Name:              raw.Name,
		ProjectID:         raw.ProjectID,
		PersistentStorage: raw.PersistentStorage,
		Groups:            raw.Groups,
	}}

	sheets := raw.Sheets
	if len(raw.Nodes) > 0 || len(raw.Connections) > 0 {
		sheets = append([]rawSheet{{Name: "main", Nodes: raw.Nodes, Connections: raw.Connections}}, sheets...)
	}

	var errs []error
	for _, rs := range sheets {
		sheet := domain.Sheet{ID: rs.ID, Name: rs.Name, Connections: rs.Connections}
		for _, rn := range rs.Nodes {
			node, warnings, err := l.decodeNode(rn)
			if err != nil {
				errs = append(errs, &schema.NodeError{NodeID: rn.ID, Err: err})
				continue
			}
			res.Warnings = append(res.Warnings, warnings...)
			sheet.Nodes = append(sheet.Nodes, node)
		}
		res.Project.Sheets = append(res.Project.Sheets, sheet)
	}

	if len(errs) > 0 {
		return nil, &schema.AggregateError{Errors: errs}
	}
	for _, w := range res.Warnings {
		l.logger.Warn("Flow load warning", "warning", w)
	}
	l.logger.Debug("Flow loaded", "name", res.Project.Name, "sheets", len(res.Project.Sheets))
	return res, nil
}

func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

func (l *Loader) decodeNode(rn rawNode) (domain.Node, []string, error) {
	var warnings []string
	if rn.ID == "" {
		return domain.Node{}, nil, errors.New("node missing ID")
	}

	nodeType := domain.NodeType(rn.Type)
	if !nodeType.Valid() {
		warnings = append(warnings, fmt.Sprintf("node %q: %v %q, treated as message", rn.ID, domain.ErrUnknownNodeType, rn.Type))
		nodeType = domain.NodeMessage
	}

	bag := normalize(nodeType, rn.Data)
	if err := schema.Validate(schema.ForNode(nodeType), bag); err != nil {
		if l.strict {
			return domain.Node{}, nil, err
		}
		for _, e := range schema.ValidationErrors(err) {
			warnings = append(warnings, fmt.Sprintf("node %q: %v", rn.ID, e))
		}
	}

	data, err := decodeData(nodeType, bag)
	if err != nil {
		if l.strict {
			return domain.Node{}, nil, err
		}
		warnings = append(warnings, fmt.Sprintf("node %q: %v", rn.ID, err))
	}

	return domain.Node{ID: rn.ID, Type: nodeType, Position: rn.Position, Data: data}, warnings, nil
}

// newData returns the empty record for a node type.
func newData(t domain.NodeType) domain.NodeData {
	switch {
	case t.IsMedia():
		return &domain.MediaData{}
	case t.IsModeration():
		return &domain.ModerationData{}
	}
	switch t {
	case domain.NodeLocation:
		return &domain.LocationData{}
	case domain.NodeContact:
		return &domain.ContactData{}
	case domain.NodeUserInput:
		return &domain.InputData{}
	default:
		return &domain.MessageData{}
	}
}

// decodeData decodes the bag into the record for t. On failure the record
// holds whatever fields decoded before the error.
func decodeData(t domain.NodeType, bag map[string]any) (domain.NodeData, error) {
	out := newData(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(bag); err != nil {
		return out, fmt.Errorf("failed to decode node data: %w", err)
	}
	return out, nil
}
