// Package typebuilder emits one generated executor type — C5 in
// SPEC_FULL.md §4.5. It owns the struct declaration and its constructor
// function (Go's stand-in for a C# class constructor); method bodies are
// supplied by the caller (internal/methodbuilder output) and appended
// verbatim.
package typebuilder

import (
	"reflect"
	"strings"

	"github.com/blueprintapi/blueprint/internal/typesystem"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// InjectedField is one constructor-injected dependency, hoisted to a
// struct field because internal/diservice (C6) decided it is a Singleton.
type InjectedField struct {
	Name string
	Type reflect.Type
}

// MethodEmitter writes one method body (signature through closing brace) to
// w. Supplied by the caller — typically internal/methodbuilder.Build bound
// to one operation's resolved frame graph.
type MethodEmitter func(w *writer.Writer) error

// Descriptor describes one generated type.
type Descriptor struct {
	// Namespace is the Go package this type belongs to.
	Namespace string

	// TypeName is the exported generated type name, e.g.
	// "CreateWidgetExecutor".
	TypeName string

	// TypeComment is the header comment spec.md §6 requires, e.g.
	// "CreateWidgetExecutor executor.".
	TypeComment string

	InjectedFields []InjectedField

	// StaticFields are additional constructor parameters/struct fields not
	// subject to the duplicate-variable-type check — e.g. one
	// contracts.ValidationAttribute per declared rule, the auth chain, or
	// the router field, where two fields legitimately sharing an interface
	// type is normal rather than a DuplicateInjectedField bug.
	StaticFields []InjectedField

	Methods []MethodEmitter
}

func (d Descriptor) allFields() []InjectedField {
	out := make([]InjectedField, 0, len(d.InjectedFields)+len(d.StaticFields))
	out = append(out, d.InjectedFields...)
	out = append(out, d.StaticFields...)
	return out
}

// Build validates desc (raising ErrDuplicateInjected when two injected
// fields share a variable-type) and renders the full source file: header,
// package clause, imports, struct, constructor, and every method.
func Build(operation string, desc Descriptor) (string, error) {
	if err := checkDuplicateFields(operation, desc.InjectedFields); err != nil {
		return "", err
	}

	w := writer.New()
	w.Namespace(desc.Namespace)

	writeStruct(w, desc)
	w.BlankLine()
	writeConstructor(w, desc)

	for _, m := range desc.Methods {
		w.BlankLine()
		if err := m(w); err != nil {
			return "", err
		}
	}

	return w.Render(desc.TypeComment), nil
}

// checkDuplicateFields raises ErrDuplicateInjected both for two fields
// sharing the exact same type and for the interface/concrete-implementing-it
// overlap spec.md §4.5 calls out: a field typed as an interface and a field
// typed as a concrete type that implements it are two constructor arguments
// competing to bind the same dependency.
func checkDuplicateFields(operation string, fields []InjectedField) error {
	seen := make([]InjectedField, 0, len(fields))
	for _, f := range fields {
		for _, prior := range seen {
			if f.Type == prior.Type || implementsEitherWay(f.Type, prior.Type) {
				return &models.Error{
					Kind:      models.ErrDuplicateInjected,
					Operation: operation,
					Message: "duplicate constructor argument: injected fields " + prior.Name + " and " + f.Name +
						" both bind " + prior.Type.String() + " / " + f.Type.String(),
				}
			}
		}
		seen = append(seen, f)
	}
	return nil
}

// implementsEitherWay reports whether one of a, b is an interface type the
// other (a concrete or differently-shaped interface type) implements.
func implementsEitherWay(a, b reflect.Type) bool {
	if a.Kind() == reflect.Interface && b.Implements(a) {
		return true
	}
	if b.Kind() == reflect.Interface && a.Implements(b) {
		return true
	}
	return false
}

func writeStruct(w *writer.Writer, desc Descriptor) {
	w.Write("BLOCK:type " + desc.TypeName + " struct")
	for _, f := range desc.allFields() {
		ref := typesystem.For(f.Type)
		for _, ns := range ref.Namespaces() {
			w.UsingNamespace(ns)
		}
		w.Write(f.Name + " " + ref.QualifiedName())
	}
	w.FinishBlock()
}

func writeConstructor(w *writer.Writer, desc Descriptor) {
	fields := desc.allFields()

	var sig strings.Builder
	sig.WriteString("BLOCK:func New")
	sig.WriteString(desc.TypeName)
	sig.WriteString("(")
	for i, f := range fields {
		if i > 0 {
			sig.WriteString(", ")
		}
		ref := typesystem.For(f.Type)
		sig.WriteString(f.Name)
		sig.WriteString(" ")
		sig.WriteString(ref.QualifiedName())
	}
	sig.WriteString(") *")
	sig.WriteString(desc.TypeName)
	w.Write(sig.String())

	var body strings.Builder
	body.WriteString("return &")
	body.WriteString(desc.TypeName)
	body.WriteString("{")
	for i, f := range fields {
		if i > 0 {
			body.WriteString(", ")
		}
		body.WriteString(f.Name)
		body.WriteString(": ")
		body.WriteString(f.Name)
	}
	body.WriteString("}")
	w.Write(body.String())
	w.FinishBlock()
}
