package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/errors"
	"github.com/roach88/gistub/internal/snapshot"
)

// Scenario is one end-to-end generation test: a manifest, the probe dumps
// the binding layer would produce, optional GIR documents and the
// assertions over what the pipeline emits.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Manifest is the run configuration, inline.
	Manifest config.Manifest `yaml:"manifest"`

	// Snapshots are the probe dumps served to the pipeline.
	Snapshots []snapshot.Dump `yaml:"snapshots"`

	// Docs maps GIR file names ("Core-1.0.gir") to their XML.
	Docs map[string]string `yaml:"docs,omitempty"`

	// Assertions validate the emitted tree and the diagnostics.
	Assertions []Assertion `yaml:"assertions"`

	// Golden compares the whole emitted tree with
	// testdata/golden/<name>.golden.
	Golden bool `yaml:"golden,omitempty"`
}

// Assertion checks one property of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path is the emitted file (file_contains, file_absent).
	Path string `yaml:"path,omitempty"`

	// Text is the expected substring (file_contains, run_error).
	Text string `yaml:"text,omitempty"`

	// Paths is the exact emitted file list in order (files).
	Paths []string `yaml:"paths,omitempty"`

	// Code, Namespace and Count select diagnostics (diagnostic).
	Code      string `yaml:"code,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	Count     *int   `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFiles        = "files"
	AssertFileContains = "file_contains"
	AssertFileAbsent   = "file_absent"
	AssertDiagnostic   = "diagnostic"
	AssertRunError     = "run_error"
	AssertNoRaw        = "no_raw_refs"
)

// LoadScenario reads one scenario file. Unknown fields are errors so
// typos never silently disable an assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scenario file")
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrapf(err, "parse scenario %s", path)
	}

	s.Manifest.Normalize()
	if err := validateScenario(&s); err != nil {
		return nil, errors.Wrapf(err, "invalid scenario %s", path)
	}
	return &s, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, errors.Wrap(err, "list scenarios")
	}
	sort.Strings(matches)

	out := make([]*Scenario, 0, len(matches))
	for _, m := range matches {
		s, err := LoadScenario(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Snapshots) == 0 {
		return fmt.Errorf("snapshots list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 && !s.Golden {
		return fmt.Errorf("assertions list is required unless golden is set")
	}
	if err := s.Manifest.Validate(); err != nil {
		return err
	}

	for i, d := range s.Snapshots {
		if d.Namespace == "" || d.Version == "" {
			return fmt.Errorf("snapshots[%d]: namespace and version are required", i)
		}
	}
	for name := range s.Docs {
		if !strings.HasSuffix(name, ".gir") {
			return fmt.Errorf("docs: %q is not a .gir file name", name)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertFiles:
		if a.Paths == nil {
			return fmt.Errorf("assertions[%d]: paths is required for files", index)
		}
	case AssertFileContains:
		if a.Path == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: path and text are required for file_contains", index)
		}
	case AssertFileAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for file_absent", index)
		}
	case AssertDiagnostic:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for diagnostic", index)
		}
		if a.Count != nil && *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertRunError, AssertNoRaw:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
