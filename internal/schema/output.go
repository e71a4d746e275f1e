package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a base schema from a YAML file.
func LoadYAML(path string) (*BaseSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	s := &BaseSchema{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return s, nil
}

// WriteYAML writes the base schema to a YAML file at the given path.
func (s *BaseSchema) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling schema: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// ToYAML returns the base schema as a YAML byte slice.
func (s *BaseSchema) ToYAML() ([]byte, error) {
	return yaml.Marshal(s)
}

// Summary returns a human-readable summary of the base schema.
func (s *BaseSchema) Summary() string {
	var totalFields int
	var totalViews int
	var totalLinks int

	for _, t := range s.Tables {
		totalFields += len(t.Fields)
		totalViews += len(t.Views)
		for _, f := range t.Fields {
			switch f.Type {
			case "multipleRecordLinks", "singleRecordLink", "linkedRecord":
				totalLinks++
			}
		}
	}

	return fmt.Sprintf(
		"Base %q: %d tables, %d fields, %d views, %d link fields",
		s.Name, len(s.Tables), totalFields, totalViews, totalLinks,
	)
}
