package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gistub/internal/config"
	"github.com/roach88/gistub/internal/reflector"
	"github.com/roach88/gistub/internal/snapshot"
)

func TestScenarios(t *testing.T) {
	scenarios, err := LoadDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			var res *Result
			if s.Golden {
				res = RunWithGolden(t, s)
			} else {
				res, err = Run(context.Background(), s, Options{})
				require.NoError(t, err)
			}
			assert.True(t, res.Pass, strings.Join(res.Errors, "\n"))
		})
	}
}

func constScenario(assertions ...Assertion) *Scenario {
	s := &Scenario{
		Name:        "inline",
		Description: "one constant",
		Manifest: config.Manifest{
			Namespaces: []config.NamespaceSpec{{Name: "Tiny", Version: "1.0"}},
		},
		Snapshots: []snapshot.Dump{{
			Namespace: "Tiny",
			Version:   "1.0",
			Entities: []reflector.LowEntity{
				{Name: "MAJOR_VERSION", Kind: "constant", Type: "gint", Value: "3"},
			},
		}},
		Assertions: assertions,
	}
	s.Manifest.Normalize()
	return s
}

func TestRun_FailedAssertionsAreReported(t *testing.T) {
	s := constScenario(
		Assertion{Type: AssertFileContains, Path: "stubs/gi-stubs/repository/Tiny.pyi", Text: "MINOR_VERSION"},
		Assertion{Type: AssertFileAbsent, Path: "stubs/gi-stubs/repository/Tiny.pyi"},
		Assertion{Type: AssertFiles, Paths: []string{}},
	)

	res, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], `contains "MINOR_VERSION"`)
	assert.Contains(t, res.Errors[1], "not emitted")
}

func TestRun_UnexpectedRunErrorFails(t *testing.T) {
	s := constScenario(Assertion{Type: AssertNoRaw})
	s.Manifest.Groups = []config.GroupSpec{
		{Name: "a", Namespaces: []string{"Tiny"}, DependsOn: []string{"b"}},
		{Name: "b", Namespaces: []string{}, DependsOn: []string{"a"}},
	}

	res, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Error(t, res.RunError)
	assert.Contains(t, strings.Join(res.Errors, "\n"), "run failed")
	assert.Contains(t, string(res.Tree()), "=== error\n")
}

func TestRun_DiagnosticCount(t *testing.T) {
	zero := 0
	one := 1
	pass := constScenario(Assertion{Type: AssertDiagnostic, Code: "UNRESOLVED", Count: &zero})
	res, err := Run(context.Background(), pass, Options{})
	require.NoError(t, err)
	assert.True(t, res.Pass, strings.Join(res.Errors, "\n"))

	fail := constScenario(Assertion{Type: AssertDiagnostic, Code: "UNRESOLVED", Count: &one})
	res, err = Run(context.Background(), fail, Options{})
	require.NoError(t, err)
	assert.False(t, res.Pass)
}

func TestResult_Tree(t *testing.T) {
	res := &Result{Files: []File{
		{Path: "a/A.pyi", Text: "x = 1\n"},
		{Path: "b/B.pyi", Text: "y = 2\n"},
	}}
	assert.Equal(t, "=== a/A.pyi\nx = 1\n=== b/B.pyi\ny = 2\n", string(res.Tree()))

	text, ok := res.File("b/B.pyi")
	assert.True(t, ok)
	assert.Equal(t, "y = 2\n", text)
	_, ok = res.File("c/C.pyi")
	assert.False(t, ok)
}
