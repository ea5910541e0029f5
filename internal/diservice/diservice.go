// Package diservice decides, for each service-typed variable a method
// reads but no frame produces, whether it should be hoisted to a
// constructor-injected struct field (Singleton) or resolved per call from
// the live contracts.ServiceResolver scope (Scoped/Transient) — C6 in
// SPEC_FULL.md §4.6. It implements graph.ServiceFrameProvider, the
// boundary internal/graph.Resolve calls into when a read has no explicit
// producer frame.
//
// The lifetime decision mirrors mwantia-fabric's container: a singleton
// registration is looked up once and reused for the type's lifetime; the
// "walk registered, use the first match, never error on ambiguity" shape
// mirrors the teacher's internal/auth.ProviderChain.
package diservice

import (
	"reflect"

	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/typesystem"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// InjectedField is one service hoisted to a constructor-injected struct
// field because contracts.ServiceResolver reported it Singleton-lifetime.
type InjectedField struct {
	Name string
	Type reflect.Type
}

// Provider implements graph.ServiceFrameProvider against one
// contracts.ServiceResolver, for one generated executor type.
type Provider struct {
	Resolver contracts.ServiceResolver

	// ReceiverName is the method receiver's local identifier, e.g. "e".
	ReceiverName string

	// ResolverField is the struct field holding the ServiceResolver itself,
	// used to emit per-call Resolve invocations.
	ResolverField string

	// CtxVar is the variable carrying context.Context in the enclosing
	// method, threaded into every Resolve call.
	CtxVar *graph.Variable

	operation string

	// byRequested maps each distinct requested variable type to the field
	// it was hoisted to. Keying on the requested type (not the resolved
	// concrete type) lets byConcrete below tell two different requests for
	// the same underlying singleton apart from one legitimate re-read of
	// the same requested type.
	byRequested map[reflect.Type]InjectedField

	// byConcrete maps each resolved concrete type to the requested type
	// that first claimed it, so a second, differently-typed request
	// resolving to the same concrete instance is caught as a duplicate
	// binding rather than silently reusing the first field.
	byConcrete map[reflect.Type]reflect.Type

	singletons []InjectedField
}

// New builds a Provider for operation, used only in error messages.
func New(operation string, resolver contracts.ServiceResolver, receiverName, resolverField string, ctxVar *graph.Variable) *Provider {
	return &Provider{
		Resolver:      resolver,
		ReceiverName:  receiverName,
		ResolverField: resolverField,
		CtxVar:        ctxVar,
		operation:     operation,
		byRequested:   make(map[reflect.Type]InjectedField),
		byConcrete:    make(map[reflect.Type]reflect.Type),
	}
}

// Singletons returns every service hoisted to an injected field so far, in
// first-requested order — fed into internal/typebuilder.Descriptor.
func (p *Provider) Singletons() []InjectedField {
	out := make([]InjectedField, len(p.singletons))
	copy(out, p.singletons)
	return out
}

// Frame implements graph.ServiceFrameProvider.
func (p *Provider) Frame(v *graph.Variable) (*graph.Frame, error) {
	lifetime, count, concrete := p.Resolver.ForType(v.Type)
	if count == 0 {
		return nil, &models.Error{
			Kind:      models.ErrUnresolvedService,
			Operation: p.operation,
			Message:   "no registration for " + v.Type.String(),
		}
	}
	if concrete == nil {
		concrete = v.Type
	}

	if lifetime == contracts.Singleton && count == 1 {
		return p.singletonFrame(v, concrete)
	}
	return p.resolveFrame(v, concrete), nil
}

// singletonFrame hoists v to a constructor-injected field. Two requests
// for the *same* requested type reuse that field. Two requests for
// *different* requested types that resolve to the same concrete
// type — e.g. one for an interface and one for a concrete type that
// implements it — is spec.md §4.5's DuplicateInjectedField case: both
// would bind the same underlying singleton through two different
// constructor arguments, so it fails the build instead of silently
// collapsing to one field.
func (p *Provider) singletonFrame(v *graph.Variable, concrete reflect.Type) (*graph.Frame, error) {
	field, ok := p.byRequested[v.Type]
	if !ok {
		if other, ok := p.byConcrete[concrete]; ok && other != v.Type {
			return nil, &models.Error{
				Kind:      models.ErrDuplicateInjected,
				Operation: p.operation,
				Message: "duplicate constructor argument: " + v.Type.String() + " and " + other.String() +
					" both resolve to singleton " + concrete.String(),
			}
		}
		field = InjectedField{Name: typesystem.For(concrete).LocalIdentifier(), Type: concrete}
		p.byRequested[v.Type] = field
		p.byConcrete[concrete] = v.Type
		p.singletons = append(p.singletons, field)
	}
	return &graph.Frame{
		Label:   "di-singleton:" + v.Name,
		Creates: []*graph.Variable{v},
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.Write(v.Name + " := " + p.ReceiverName + "." + field.Name)
			return nil
		},
	}, nil
}

func (p *Provider) resolveFrame(v *graph.Variable, concrete reflect.Type) *graph.Frame {
	ref := typesystem.For(concrete)
	ctxVar := p.CtxVar
	return &graph.Frame{
		Label:   "di-resolve:" + v.Name,
		Creates: []*graph.Variable{v},
		FindVariables: func(live *graph.VariableSet) []*graph.Variable {
			if ctxVar == nil {
				return nil
			}
			return []*graph.Variable{ctxVar}
		},
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.UsingNamespace("reflect")
			for _, ns := range ref.Namespaces() {
				w.UsingNamespace(ns)
			}
			ctxName := "context.Background()"
			if ctxVar != nil {
				ctxName = ctxVar.Name
			} else {
				w.UsingNamespace("context")
			}
			w.Write(v.Name + "Resolved, err := " + p.ReceiverName + "." + p.ResolverField +
				".Resolve(" + ctxName + ", reflect.TypeOf((*" + ref.QualifiedName() + ")(nil)).Elem())")
			w.Write("BLOCK:if err != nil")
			w.Write("panic(err)")
			w.FinishBlock()
			w.Write(v.Name + " := " + v.Name + "Resolved.(" + ref.QualifiedName() + ")")
			return nil
		},
	}
}
