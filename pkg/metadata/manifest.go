// Package metadata loads and validates operator metadata artifacts.
//
// Every operator bundle carries a metadata.yaml artifact declaring the
// operator's identity and its parameter surface. Parsing an artifact
// produces a Manifest; validating caller-supplied values against the
// manifest's Schema produces frozen Bindings that operators consume at
// construction time. Validation is pure: it never mutates its input and
// has no side effects, so the same values always produce the same result.
package metadata

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ArtifactName is the required file name of the metadata artifact inside
// an operator bundle directory.
const ArtifactName = "metadata.yaml"

// Manifest is a parsed metadata artifact.
type Manifest struct {
	// Name is the operator identifier used for resolution
	Name string `yaml:"name" json:"name"`

	// Version is the bundle version (optional, defaults to "0.1.0")
	Version string `yaml:"version,omitempty" json:"version,omitempty"`

	// Entry names the factory this bundle executes. The factory must be
	// linked into the binary and registered under this name.
	Entry string `yaml:"entry" json:"entry"`

	// Description explains what the operator does
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Passthrough retains undeclared parameter bindings instead of
	// rejecting them
	Passthrough bool `yaml:"passthrough,omitempty" json:"passthrough,omitempty"`

	// Parameters declare the operator's parameter surface
	Parameters []ParameterSpec `yaml:"parameters,omitempty" json:"parameters,omitempty"`

	schema *Schema
}

// DefaultVersion is applied when an artifact omits the version field.
const DefaultVersion = "0.1.0"

// Parse parses and validates a metadata artifact from YAML bytes.
// Unknown fields are rejected so typos in artifacts surface immediately.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, &ParseError{Reason: "not a valid metadata artifact", Cause: err}
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load parses a metadata artifact from a reader.
func Load(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Reason: "failed to read artifact", Cause: err}
	}
	return Parse(data)
}

// LoadFile parses the metadata artifact at path. A missing file is
// reported as an os.ErrNotExist wrap so callers can distinguish absent
// artifacts from malformed ones.
func LoadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("metadata artifact %s: %w", path, err)
		}
		return nil, &ParseError{Source: path, Reason: "failed to read artifact", Cause: err}
	}
	m, err := Parse(data)
	if err != nil {
		if perr, ok := err.(*ParseError); ok {
			perr.Source = path
		}
		return nil, err
	}
	return m, nil
}

// validate checks artifact-level fields and builds the parameter schema.
func (m *Manifest) validate() error {
	if m.Name == "" {
		return &ParseError{Field: "name", Reason: "operator name is required"}
	}
	if m.Entry == "" {
		return &ParseError{Field: "entry", Reason: fmt.Sprintf("operator %q has no entry", m.Name)}
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}

	schema, err := NewSchema(m.Parameters, m.Passthrough)
	if err != nil {
		return err
	}
	m.schema = schema
	return nil
}

// Schema returns the operator's validated parameter surface.
func (m *Manifest) Schema() *Schema {
	if m.schema == nil {
		// Hand-built manifests must be validated before use.
		schema, err := NewSchema(m.Parameters, m.Passthrough)
		if err != nil {
			panic(fmt.Sprintf("metadata: manifest %q not validated: %v", m.Name, err))
		}
		m.schema = schema
	}
	return m.schema
}

// Marshal renders the manifest back to YAML. Together with Parse this
// round-trips the declared parameter surface.
func (m *Manifest) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata for %q: %w", m.Name, err)
	}
	return out, nil
}
