package mapconfig

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type fileDocument struct {
	Configurations []Configuration `yaml:"configurations"`
}

// FileSource serves configurations from a YAML document of the form
//
//	configurations:
//	  - name: Schools
//	    parent_doctype: School
//	    ...
type FileSource struct {
	byName map[string]Configuration
	names  []string
}

func LoadFile(path string) (*FileSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map configuration file: %w", err)
	}
	return ParseFile(b)
}

func ParseFile(b []byte) (*FileSource, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse map configuration file: %w", err)
	}

	src := &FileSource{byName: make(map[string]Configuration, len(doc.Configurations))}
	for i, c := range doc.Configurations {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("map configuration file: configurations[%d] has no name", i)
		}
		if _, dup := src.byName[name]; dup {
			return nil, fmt.Errorf("map configuration file: duplicate name %q", name)
		}
		c.Name = name
		src.byName[name] = c
		src.names = append(src.names, name)
	}
	return src, nil
}

func (s *FileSource) GetMapConfiguration(_ context.Context, name string) (Configuration, error) {
	c, ok := s.byName[name]
	if !ok {
		return Configuration{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return c, nil
}

func (s *FileSource) ListMapConfigurations(context.Context) ([]string, error) {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out, nil
}
