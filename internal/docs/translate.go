package docs

import (
	"regexp"
	"strings"
)

// Prefixes drive the C-to-Python name mapping of one namespace.
// Identifier prefixes apply to type names ("Gst" in GstBin), symbol
// prefixes to functions and constants ("gst" in gst_bin_new).
type Prefixes struct {
	Namespace  string
	Identifier []string
	Symbol     []string
}

func (p Prefixes) identifiers() []string {
	if len(p.Identifier) > 0 {
		return p.Identifier
	}
	return []string{p.Namespace}
}

func (p Prefixes) symbols() []string {
	if len(p.Symbol) > 0 {
		return p.Symbol
	}
	return []string{strings.ToLower(p.Namespace)}
}

var (
	reLiteral  = regexp.MustCompile(`%?\b(NULL|TRUE|FALSE)\b`)
	reParam    = regexp.MustCompile(`@(\w+)`)
	reTypeRef  = regexp.MustCompile(`#([A-Z][A-Za-z0-9]+)`)
	reConstRef = regexp.MustCompile(`%([A-Z][A-Z0-9_]*)`)
	reFuncCall = regexp.MustCompile(`\b(\w+)\(\)`)
	reOrphanBS = regexp.MustCompile(`\\([^A-Za-z0-9\\])`)
)

var literals = map[string]string{"NULL": "None", "TRUE": "True", "FALSE": "False"}

// Translate rewrites gtk-doc markup to Python conventions:
//   - %NULL, %TRUE and %FALSE become None, True and False;
//   - @param becomes `param`;
//   - #GstBin becomes Gst.Bin and %GST_STATE_PLAYING becomes Gst.STATE_PLAYING;
//   - gst_bin_new() becomes `Gst.bin_new`.
//
// Stray backslashes before punctuation are dropped. Quoting for the
// declaration file is left to the emitter.
func Translate(text string, p Prefixes) string {
	if text == "" {
		return ""
	}

	text = reLiteral.ReplaceAllStringFunc(text, func(m string) string {
		return literals[strings.TrimPrefix(m, "%")]
	})
	text = reParam.ReplaceAllString(text, "`$1`")

	text = reTypeRef.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1:]
		for _, prefix := range p.identifiers() {
			if len(name) > len(prefix) && strings.HasPrefix(name, prefix) {
				return p.Namespace + "." + name[len(prefix):]
			}
		}
		return name
	})

	text = reConstRef.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1:]
		for _, prefix := range p.symbols() {
			up := strings.ToUpper(prefix) + "_"
			if len(name) > len(up) && strings.HasPrefix(name, up) {
				return p.Namespace + "." + name[len(up):]
			}
		}
		return name
	})

	text = reFuncCall.ReplaceAllStringFunc(text, func(m string) string {
		name := strings.TrimSuffix(m, "()")
		for _, prefix := range p.symbols() {
			low := prefix + "_"
			if len(name) > len(low) && strings.HasPrefix(name, low) {
				return "`" + p.Namespace + "." + name[len(low):] + "`"
			}
		}
		return "`" + name + "`"
	})

	text = reOrphanBS.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
