// Package typesystem renders reflect.Type values into valid Go source
// references — C2 in SPEC_FULL.md §4.2. It is the only package in
// Blueprint's core that is allowed to know what a "type" looks like when
// printed; every other component treats types as opaque reflect.Type
// values and asks this package to render them.
//
// Rendering is backed by github.com/dave/jennifer/jen so that pointers,
// slices, arrays, maps, func signatures, and qualified imports round-trip
// to syntactically valid Go instead of hand-rolled string concatenation.
// Generic instantiations are only partly covered; see QualifiedName.
package typesystem

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
)

// Ref renders one reflect.Type into Go source references on demand.
type Ref struct {
	t reflect.Type
}

// For wraps a reflect.Type for rendering.
func For(t reflect.Type) Ref {
	return Ref{t: t}
}

// Type returns the wrapped reflect.Type.
func (r Ref) Type() reflect.Type {
	return r.t
}

// QualifiedName renders the fully-qualified emitted name. For a generic
// instantiation the base name is qualified and indexed by the argument
// strings exactly as reflect reports them inside the type's name; those
// arguments are not rendered recursively or qualified through jennifer.
func (r Ref) QualifiedName() string {
	// jennifer statements render through the GoStringer interface, the
	// documented way to obtain their source text (fmt.Sprintf("%#v", ...)).
	return fmt.Sprintf("%#v", statement(r.t))
}

// statement builds the jennifer *jen.Statement for t, recursing into
// element, key, and func parameter/result types so arrays, pointers,
// maps, and func signatures round-trip to valid Go. Generic arguments are
// emitted verbatim from the reflect-reported name (see QualifiedName).
func statement(t reflect.Type) *jen.Statement {
	switch t.Kind() {
	case reflect.Ptr:
		return jen.Op("*").Add(statement(t.Elem()))
	case reflect.Slice:
		return jen.Index().Add(statement(t.Elem()))
	case reflect.Array:
		return jen.Index(jen.Lit(t.Len())).Add(statement(t.Elem()))
	case reflect.Map:
		return jen.Map(statement(t.Key())).Add(statement(t.Elem()))
	case reflect.Func:
		return funcStatement(t)
	case reflect.Interface:
		if t.NumMethod() == 0 && t.PkgPath() == "" {
			// the bare `any` / interface{} case; named interfaces
			// (contracts.ServiceResolver and friends) fall through to
			// the qualified-name handling below since their PkgPath
			// is set.
			return jen.Interface()
		}
	}

	name, args := splitGenericArgs(t.Name())
	pkgPath := t.PkgPath()

	var base *jen.Statement
	if pkgPath == "" || name == "" {
		// Builtins (string, int, any, ...) and unnamed types.
		base = jen.Id(builtinOrKind(t, name))
	} else {
		base = jen.Qual(pkgPath, name)
	}
	if len(args) == 0 {
		return base
	}
	rendered := make([]jen.Code, 0, len(args))
	for _, a := range args {
		rendered = append(rendered, jen.Id(a))
	}
	return base.Index(rendered...)
}

// funcStatement renders an unnamed func type's signature, e.g. the
// handler-field type func(context.Context, any) (any, error). Named func
// types (type Foo func(...)) still go through the qualified-name path in
// statement since their PkgPath is set.
func funcStatement(t reflect.Type) *jen.Statement {
	params := make([]jen.Code, t.NumIn())
	for i := 0; i < t.NumIn(); i++ {
		params[i] = statement(t.In(i))
	}
	stmt := jen.Func().Params(params...)
	if t.NumOut() == 0 {
		return stmt
	}
	results := make([]jen.Code, t.NumOut())
	for i := 0; i < t.NumOut(); i++ {
		results[i] = statement(t.Out(i))
	}
	return stmt.Params(results...)
}

func builtinOrKind(t reflect.Type, name string) string {
	if name != "" {
		return name
	}
	return t.Kind().String()
}

// splitGenericArgs splits a reflect-reported name like "Stack[int]" into
// ("Stack", []string{"int"}). Non-generic names are returned unchanged
// with a nil argument list.
func splitGenericArgs(name string) (string, []string) {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name, nil
	}
	base := name[:open]
	inner := name[open+1 : len(name)-1]
	if inner == "" {
		return base, nil
	}
	return base, strings.Split(inner, ",")
}

// IsGeneric reports whether t is a generic instantiation, detected from
// its reflect-reported name carrying "[...]" arguments.
func (r Ref) IsGeneric() bool {
	_, args := splitGenericArgs(r.t.Name())
	return len(args) > 0
}

// LocalIdentifier renders a safe, lowercase-first local identifier for the
// type: its simple name with every non-identifier generic/array rune
// stripped, matching the original shim's "lowercase-first, generic
// characters stripped" contract.
func (r Ref) LocalIdentifier() string {
	name, _ := splitGenericArgs(simpleName(r.t))
	name = stripNonIdentifier(name)
	if name == "" {
		return "v"
	}
	runes := []rune(name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func simpleName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.Kind().String()
}

func stripNonIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Namespaces returns the set of import paths required to reference t,
// recursing through pointers/slices/arrays/maps and func signatures. The
// packages of generic arguments are not collected.
func (r Ref) Namespaces() []string {
	seen := map[string]struct{}{}
	collectNamespaces(r.t, seen)
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	return out
}

func collectNamespaces(t reflect.Type, seen map[string]struct{}) {
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Array:
		collectNamespaces(t.Elem(), seen)
		return
	case reflect.Map:
		collectNamespaces(t.Key(), seen)
		collectNamespaces(t.Elem(), seen)
		return
	case reflect.Func:
		for i := 0; i < t.NumIn(); i++ {
			collectNamespaces(t.In(i), seen)
		}
		for i := 0; i < t.NumOut(); i++ {
			collectNamespaces(t.Out(i), seen)
		}
		return
	}
	if t.PkgPath() != "" {
		seen[t.PkgPath()] = struct{}{}
	}
}
