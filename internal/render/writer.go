// internal/render/writer.go
package render

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteYAML encodes a composition as YAML
func WriteYAML(w io.Writer, c Composition) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// ReadYAML decodes a composition written by WriteYAML
func ReadYAML(r io.Reader) (*Composition, error) {
	var c Composition
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// WriteFile writes a composition to a YAML file
func WriteFile(c Composition, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a composition from a YAML file
func ReadFile(path string) (*Composition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadYAML(f)
}
