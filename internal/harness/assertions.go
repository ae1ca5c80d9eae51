package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/gistub/internal/ir"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion failed: %s\n  expected: %s\n  actual: %s", e.Type, e.Expected, e.Actual)
}

func evaluate(r *Result, a Assertion) error {
	if a.Type != AssertRunError && r.RunError != nil {
		return &AssertionError{Type: a.Type, Expected: "a completed run", Actual: "run error: " + r.RunError.Error()}
	}

	switch a.Type {
	case AssertFiles:
		return assertFiles(r, a)
	case AssertFileContains:
		return assertFileContains(r, a)
	case AssertFileAbsent:
		if _, ok := r.File(a.Path); ok {
			return &AssertionError{Type: a.Type, Expected: a.Path + " not emitted", Actual: "emitted"}
		}
	case AssertDiagnostic:
		return assertDiagnostic(r, a)
	case AssertRunError:
		return assertRunError(r, a)
	case AssertNoRaw:
		return assertNoRaw(r)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertFiles(r *Result, a Assertion) error {
	got := make([]string, len(r.Files))
	for i, f := range r.Files {
		got[i] = f.Path
	}
	if !slices.Equal(got, a.Paths) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprint(a.Paths), Actual: fmt.Sprint(got)}
	}
	return nil
}

func assertFileContains(r *Result, a Assertion) error {
	text, ok := r.File(a.Path)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: a.Path + " emitted", Actual: "no such file"}
	}
	if !strings.Contains(text, a.Text) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s contains %q", a.Path, a.Text), Actual: "not found"}
	}
	return nil
}

// assertDiagnostic counts diagnostics with the code and, when given, the
// namespace. Without a count at least one must match.
func assertDiagnostic(r *Result, a Assertion) error {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Code == a.Code && (a.Namespace == "" || d.Namespace == a.Namespace) {
			n++
		}
	}
	want := fmt.Sprintf("at least one %s diagnostic", a.Code)
	ok := n > 0
	if a.Count != nil {
		want = fmt.Sprintf("%d %s diagnostics", *a.Count, a.Code)
		ok = n == *a.Count
	}
	if !ok {
		return &AssertionError{Type: a.Type, Expected: want, Actual: fmt.Sprintf("%d", n)}
	}
	return nil
}

func assertRunError(r *Result, a Assertion) error {
	if r.RunError == nil {
		return &AssertionError{Type: a.Type, Expected: "run error", Actual: "run completed"}
	}
	if a.Text != "" && !strings.Contains(r.RunError.Error(), a.Text) {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("error containing %q", a.Text), Actual: r.RunError.Error()}
	}
	return nil
}

func assertNoRaw(r *Result) error {
	var raw []string
	for _, ns := range r.namespaces {
		for _, e := range ns.Entities {
			ir.WalkRefs(e, func(path string, ref *ir.TypeRef) {
				if ref.IsRaw() {
					raw = append(raw, ns.Name+"."+path)
				}
			})
		}
	}
	if len(raw) > 0 {
		return &AssertionError{Type: AssertNoRaw, Expected: "no raw references", Actual: strings.Join(raw, ", ")}
	}
	return nil
}
