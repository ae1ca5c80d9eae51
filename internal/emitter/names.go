package emitter

import (
	"strings"
	"unicode"
)

var keywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true, "assert": true,
	"async": true, "await": true, "break": true, "class": true, "continue": true,
	"def": true, "del": true, "elif": true, "else": true, "except": true,
	"finally": true, "for": true, "from": true, "global": true, "if": true,
	"import": true, "in": true, "is": true, "lambda": true, "nonlocal": true,
	"not": true, "or": true, "pass": true, "raise": true, "return": true,
	"try": true, "while": true, "with": true, "yield": true,
}

// sanitize makes name a valid Python identifier. Keywords get a trailing
// underscore and names starting with a digit a leading one. The second
// result is false when name was already valid.
func sanitize(name string) (string, bool) {
	switch {
	case keywords[name]:
		return name + "_", true
	case name != "" && unicode.IsDigit(rune(name[0])):
		return "_" + name, true
	}
	return name, false
}

// renames collects "old -> new" notes for a line comment.
type renames []string

func (r *renames) add(old, renamed string) {
	*r = append(*r, old+" -> "+renamed)
}

func (r renames) comment() string {
	if len(r) == 0 {
		return ""
	}
	return "  # renamed: " + strings.Join(r, ", ")
}

// docLines renders a docstring at indent. Backslashes and triple quotes
// are escaped so the text can never close the literal early.
func docLines(indent, text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `"""`, `\"\"\"`)
	if strings.HasSuffix(text, `"`) {
		text = text[:len(text)-1] + `\"`
	}

	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return []string{indent + `"""` + text + `"""`}
	}
	out := []string{indent + `"""`}
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			out = append(out, "")
			continue
		}
		out = append(out, indent+l)
	}
	return append(out, indent+`"""`)
}
