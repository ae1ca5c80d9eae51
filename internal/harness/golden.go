package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden runs a scenario and compares its emitted tree with
// testdata/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) *Result {
	t.Helper()

	res, err := Run(context.Background(), s, Options{})
	if err != nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}
	AssertGolden(t, s.Name, res)
	return res
}

// AssertGolden compares an existing result with its golden file.
func AssertGolden(t *testing.T, name string, res *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, res.Tree())
}
