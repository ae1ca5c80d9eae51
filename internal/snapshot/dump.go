package snapshot

import (
	"bytes"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/reflector"
)

// Dump is one probe file: everything the probing script recorded about a
// namespace inside a live binding-layer process.
type Dump struct {
	Namespace string `yaml:"namespace"`
	Version   string `yaml:"version"`

	// Requires lists namespaces the typelib links against. They must be
	// active before this one can be.
	Requires []string `yaml:"requires,omitempty"`

	Entities []reflector.LowEntity    `yaml:"entities"`
	Surface  *reflector.WrapperSurface `yaml:"surface,omitempty"`
	Access   AccessLog                 `yaml:"access,omitempty"`
}

// AccessLog records what touching attributes produced, keyed by path.
type AccessLog struct {
	Warnings map[string][]string `yaml:"warnings,omitempty"`
	Faults   map[string]string   `yaml:"faults,omitempty"`
}

// Decode parses a dump strictly: unknown keys are errors.
func Decode(r io.Reader) (*Dump, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var d Dump
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty probe dump")
		}
		return nil, errors.Wrap(err, "decode probe dump")
	}
	if d.Namespace == "" {
		return nil, errors.New("probe dump has no namespace")
	}
	return &d, nil
}

// Encode writes a dump as YAML.
func Encode(w io.Writer, d *Dump) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(err, "encode probe dump")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "encode probe dump")
	}
	_, err := w.Write(buf.Bytes())
	return err
}
