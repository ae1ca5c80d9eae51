package docs

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/roach88/gistub/internal/errors"
)

// GIR elements, matched by local name so the core/c/glib namespaces need
// no binding. Only what carries documentation is decoded.

type girRepository struct {
	Namespaces []girNamespace `xml:"namespace"`
}

type girNamespace struct {
	Name               string `xml:"name,attr"`
	Version            string `xml:"version,attr"`
	IdentifierPrefixes string `xml:"identifier-prefixes,attr"`
	SymbolPrefixes     string `xml:"symbol-prefixes,attr"`

	Constants  []girNode     `xml:"constant"`
	Functions  []girCallable `xml:"function"`
	Callbacks  []girCallable `xml:"callback"`
	Aliases    []girNode     `xml:"alias"`
	Classes    []girType     `xml:"class"`
	Interfaces []girType     `xml:"interface"`
	Records    []girType     `xml:"record"`
	Unions     []girType     `xml:"union"`
	Enums      []girType     `xml:"enumeration"`
	Bitfields  []girType     `xml:"bitfield"`
}

type girNode struct {
	Name       string `xml:"name,attr"`
	Doc        string `xml:"doc"`
	Deprecated string `xml:"doc-deprecated"`
}

type girParam struct {
	Name string `xml:"name,attr"`
	Doc  string `xml:"doc"`
}

type girReturn struct {
	Doc string `xml:"doc"`
}

type girCallable struct {
	girNode
	Params []girParam `xml:"parameters>parameter"`
	Return girReturn  `xml:"return-value"`
}

type girType struct {
	girNode
	Methods        []girCallable `xml:"method"`
	Constructors   []girCallable `xml:"constructor"`
	Functions      []girCallable `xml:"function"`
	VirtualMethods []girCallable `xml:"virtual-method"`
	Properties     []girNode     `xml:"property"`
	Signals        []girCallable `xml:"signal"`
	Fields         []girNode     `xml:"field"`
	Members        []girNode     `xml:"member"`
}

// Parse reads a GIR document into an index for namespace. Doc text is
// translated to Python conventions on the way in.
func Parse(r io.Reader, namespace string) (*Index, error) {
	var repo girRepository
	if err := xml.NewDecoder(r).Decode(&repo); err != nil {
		return nil, errors.Wrap(err, "parse GIR")
	}

	var ns *girNamespace
	for i := range repo.Namespaces {
		if repo.Namespaces[i].Name == namespace {
			ns = &repo.Namespaces[i]
			break
		}
	}
	if ns == nil {
		return nil, errors.Newf("GIR has no namespace %q", namespace)
	}

	p := Prefixes{
		Namespace:  ns.Name,
		Identifier: splitPrefixes(ns.IdentifierPrefixes),
		Symbol:     splitPrefixes(ns.SymbolPrefixes),
	}
	ix := NewIndex(ns.Name)
	add := func(kind DocKind, name string, n girNode, params []girParam, ret string) {
		e := Entry{
			Text:       Translate(n.Doc, p),
			Return:     Translate(ret, p),
			Deprecated: Translate(n.Deprecated, p),
		}
		for _, prm := range params {
			if prm.Doc == "" {
				continue
			}
			if e.Params == nil {
				e.Params = make(map[string]string)
			}
			e.Params[prm.Name] = Translate(prm.Doc, p)
		}
		if e.empty() {
			return
		}
		ix.put(kind, name, e)
	}
	callable := func(kind DocKind, name string, c girCallable) {
		add(kind, name, c.girNode, c.Params, c.Return.Doc)
	}

	for _, c := range ns.Constants {
		add(KindConstant, c.Name, c, nil, "")
	}
	for _, a := range ns.Aliases {
		add(KindAlias, a.Name, a, nil, "")
	}
	for _, f := range ns.Functions {
		callable(KindFunction, f.Name, f)
	}
	for _, f := range ns.Callbacks {
		callable(KindCallback, f.Name, f)
	}

	types := func(kind DocKind, list []girType) {
		for _, t := range list {
			add(kind, t.Name, t.girNode, nil, "")
			for _, group := range [][]girCallable{t.Methods, t.Constructors, t.Functions} {
				for _, m := range group {
					callable(KindMethod, t.Name+"."+m.Name, m)
				}
			}
			for _, m := range t.VirtualMethods {
				callable(KindMethod, t.Name+".do_"+m.Name, m)
			}
			for _, prop := range t.Properties {
				add(KindProperty, t.Name+":"+prop.Name, prop, nil, "")
			}
			for _, s := range t.Signals {
				callable(KindSignal, t.Name+"::"+s.Name, s)
			}
			for _, f := range t.Fields {
				add(KindField, t.Name+"."+f.Name, f, nil, "")
			}
			for _, m := range t.Members {
				add(KindMember, t.Name+"."+strings.ToUpper(m.Name), m, nil, "")
			}
		}
	}
	types(KindClass, ns.Classes)
	types(KindClass, ns.Interfaces)
	types(KindClass, ns.Records)
	types(KindClass, ns.Unions)
	types(KindEnum, ns.Enums)
	types(KindEnum, ns.Bitfields)

	return ix, nil
}

func splitPrefixes(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
