// Package methodbuilder aggregates a resolved Frame sequence for one method
// into emitted Go source — C4 in SPEC_FULL.md §4.4. It owns the method
// signature and the trailing return statement; every statement in between
// comes from the frames internal/graph already placed in dependency order.
package methodbuilder

import (
	"strings"

	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/typesystem"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// Param is one method parameter, paired with the graph.Variable frames will
// read it through.
type Param struct {
	Variable *graph.Variable
}

// Descriptor describes the method signature to emit, independent of its
// body (which comes entirely from the resolved frame list).
type Descriptor struct {
	// Name is the exported method name, e.g. "Handle".
	Name string

	// Receiver is the local receiver identifier and its type's local
	// identifier, e.g. "e *CreateWidgetExecutor".
	ReceiverName string
	ReceiverType string

	Params []Param

	// RequiresReturnValue mirrors models.OperationDescriptor's field: when
	// true, the method returns (result <ReturnType>, err error) and the
	// resolved frame list must leave a variable of ReturnType live, or
	// Build raises ErrMissingReturnValue. When false, the method returns
	// only (err error). Frame-declared variables named "result" or "err"
	// shadow these named returns instead of assigning them — contributors
	// should avoid those identifiers.
	RequiresReturnValue bool
	ReturnType          *graph.Variable // unused when RequiresReturnValue is false
}

// Build resolves g against desc's parameters and provider, then emits the
// full method — signature, resolved frame bodies in placement order, and
// the trailing return — to w.
func Build(w *writer.Writer, operation string, desc Descriptor, g *graph.Graph, provider graph.ServiceFrameProvider) error {
	params := make([]*graph.Variable, len(desc.Params))
	for i, p := range desc.Params {
		params[i] = p.Variable
	}

	placed, err := g.Resolve(params, provider)
	if err != nil {
		return err
	}

	writeSignature(w, desc)

	live := graph.NewVariableSet()
	for _, p := range params {
		live.Add(p)
	}
	for _, f := range placed {
		if err := f.Emit(w, live); err != nil {
			return err
		}
		for _, v := range f.Creates {
			live.Add(v)
		}
	}

	if err := writeReturn(w, operation, desc, live); err != nil {
		return err
	}

	w.FinishBlock()
	return nil
}

func writeSignature(w *writer.Writer, desc Descriptor) {
	var sig strings.Builder
	sig.WriteString("BLOCK:func (")
	sig.WriteString(desc.ReceiverName)
	sig.WriteString(" *")
	sig.WriteString(desc.ReceiverType)
	sig.WriteString(") ")
	sig.WriteString(desc.Name)
	sig.WriteString("(")
	for i, p := range desc.Params {
		if i > 0 {
			sig.WriteString(", ")
		}
		ref := typesystem.For(p.Variable.Type)
		for _, ns := range ref.Namespaces() {
			w.UsingNamespace(ns)
		}
		sig.WriteString(p.Variable.Name)
		sig.WriteString(" ")
		sig.WriteString(ref.QualifiedName())
	}
	sig.WriteString(") (")
	if desc.RequiresReturnValue {
		ref := typesystem.For(desc.ReturnType.Type)
		for _, ns := range ref.Namespaces() {
			w.UsingNamespace(ns)
		}
		sig.WriteString("result ")
		sig.WriteString(ref.QualifiedName())
		sig.WriteString(", err error)")
	} else {
		sig.WriteString("err error)")
	}
	w.Write(sig.String())
}

// writeReturn closes the method with its success-path return. Returns are
// named (result, err) so internal/pipeline's exception-wrap frame can set
// err from a deferred recover after a frame further up the body panics —
// Go only allows a deferred func to set return values when they're named.
func writeReturn(w *writer.Writer, operation string, desc Descriptor, live *graph.VariableSet) error {
	if !desc.RequiresReturnValue {
		w.Write("return")
		return nil
	}
	result, ok := live.ByType(desc.ReturnType.Type)
	if !ok {
		return &models.Error{
			Kind:      models.ErrMissingReturnValue,
			Operation: operation,
			Message:   "no frame produced a value of type " + desc.ReturnType.Type.String() + " for " + desc.Name,
		}
	}
	w.Write("result = " + result.Name)
	w.Write("return")
	return nil
}
