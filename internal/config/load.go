package config

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/gistub/internal/errors"
)

//go:embed schema.cue
var schemaCUE string

// Format is a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", errors.WithHint(
		errors.Newf("unsupported manifest extension %q", filepath.Ext(path)),
		"use .yaml, .toml or .cue",
	)
}

// Load reads, decodes, normalizes and validates a manifest file.
// Relative snapshot and docs paths are resolved against the manifest's
// directory.
func Load(path string) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}

	m, err := Parse(data, format, filepath.Base(path))
	if err != nil {
		return nil, errors.Wrapf(err, "parse manifest %s", path)
	}

	base := filepath.Dir(path)
	if m.SnapshotDir != "" && !filepath.IsAbs(m.SnapshotDir) {
		m.SnapshotDir = filepath.Join(base, m.SnapshotDir)
	}
	for i, p := range m.Docs.SearchPaths {
		if !filepath.IsAbs(p) {
			m.Docs.SearchPaths[i] = filepath.Join(base, p)
		}
	}
	for i, ns := range m.Namespaces {
		if ns.Docs != "" && !filepath.IsAbs(ns.Docs) {
			m.Namespaces[i].Docs = filepath.Join(base, ns.Docs)
		}
	}

	m.Normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes manifest bytes without normalizing or validating.
// filename only labels CUE positions in errors.
func Parse(data []byte, format Format, filename string) (*Manifest, error) {
	m := &Manifest{}
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(m); err != nil {
			return nil, errors.Wrap(err, "decode yaml")
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(m); err != nil {
			return nil, errors.Wrap(err, "decode toml")
		}
	case FormatCUE:
		if err := decodeCUE(data, filename, m); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Newf("unknown manifest format %q", format)
	}
	return m, nil
}

// decodeCUE unifies the document with the embedded #Manifest schema so CUE
// constraints are checked before decoding.
func decodeCUE(data []byte, filename string, m *Manifest) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return errors.AssertionFailedf("embedded manifest schema: %v", err)
	}

	doc := ctx.CompileBytes(data, cue.Filename(filename))
	if err := doc.Err(); err != nil {
		return errors.Wrap(err, "compile cue")
	}

	unified := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return errors.Wrap(err, "validate cue against #Manifest")
	}
	if err := unified.Decode(m); err != nil {
		return errors.Wrap(err, "decode cue")
	}
	return nil
}
