package diservice_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/blueprintapi/blueprint/internal/diservice"
	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/blueprintapi/blueprint/pkg/models"
)

type fakeResolver struct {
	lifetime contracts.Lifetime
	count    int
	concrete reflect.Type
}

func (f fakeResolver) ForType(t reflect.Type) (contracts.Lifetime, int, reflect.Type) {
	return f.lifetime, f.count, f.concrete
}
func (f fakeResolver) Resolve(ctx context.Context, t reflect.Type) (any, error) { return nil, nil }
func (f fakeResolver) NewScope(ctx context.Context) (context.Context, func())   { return ctx, func() {} }

type widget struct{}

func (widget) Close() error { return nil }

type closer interface{ Close() error }

func TestFrameHoistsSingletonToInjectedField(t *testing.T) {
	resolver := fakeResolver{lifetime: contracts.Singleton, count: 1, concrete: reflect.TypeOf(widget{})}
	ctxVar := &graph.Variable{Name: "ctx", Type: reflect.TypeOf((*context.Context)(nil)).Elem()}
	p := diservice.New("CreateWidget", resolver, "e", "resolver", ctxVar)

	v := &graph.Variable{Name: "widget", Type: reflect.TypeOf(widget{})}
	f, err := p.Frame(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := writer.New()
	if err := f.Emit(w, graph.NewVariableSet()); err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}
	if !strings.Contains(w.Body(), "widget := e.widget") {
		t.Fatalf("expected field read, got %q", w.Body())
	}
	if len(p.Singletons()) != 1 || p.Singletons()[0].Name != "widget" {
		t.Fatalf("expected one singleton field, got %v", p.Singletons())
	}
}

func TestFrameResolvesScopedPerCall(t *testing.T) {
	resolver := fakeResolver{lifetime: contracts.Scoped, count: 1, concrete: reflect.TypeOf(widget{})}
	ctxVar := &graph.Variable{Name: "ctx", Type: reflect.TypeOf((*context.Context)(nil)).Elem()}
	p := diservice.New("CreateWidget", resolver, "e", "resolver", ctxVar)

	v := &graph.Variable{Name: "widget", Type: reflect.TypeOf(widget{})}
	f, err := p.Frame(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := writer.New()
	if err := f.Emit(w, graph.NewVariableSet()); err != nil {
		t.Fatalf("unexpected emit error: %v", err)
	}
	if !strings.Contains(w.Body(), "e.resolver.Resolve(ctx,") {
		t.Fatalf("expected per-call resolve, got %q", w.Body())
	}
	if len(p.Singletons()) != 0 {
		t.Fatalf("expected no injected fields, got %v", p.Singletons())
	}
}

func TestFrameReusesFieldForRepeatedRequestsOfSameType(t *testing.T) {
	resolver := fakeResolver{lifetime: contracts.Singleton, count: 1, concrete: reflect.TypeOf(widget{})}
	p := diservice.New("CreateWidget", resolver, "e", "resolver", nil)

	v := &graph.Variable{Name: "widget", Type: reflect.TypeOf(widget{})}
	if _, err := p.Frame(v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Frame(v); err != nil {
		t.Fatalf("unexpected error on second request: %v", err)
	}
	if len(p.Singletons()) != 1 {
		t.Fatalf("expected the same field reused, got %v", p.Singletons())
	}
}

func TestFrameRaisesDuplicateForInterfaceAndImplementingConcreteType(t *testing.T) {
	resolver := fakeResolver{lifetime: contracts.Singleton, count: 1, concrete: reflect.TypeOf(widget{})}
	p := diservice.New("CreateWidget", resolver, "e", "resolver", nil)

	ifaceVar := &graph.Variable{Name: "closer", Type: reflect.TypeOf((*closer)(nil)).Elem()}
	if _, err := p.Frame(ifaceVar); err != nil {
		t.Fatalf("unexpected error on first request: %v", err)
	}

	concreteVar := &graph.Variable{Name: "widget", Type: reflect.TypeOf(widget{})}
	_, err := p.Frame(concreteVar)
	if err == nil {
		t.Fatal("expected a duplicate constructor argument error")
	}
	be, ok := err.(*models.Error)
	if !ok {
		t.Fatalf("expected *models.Error, got %T", err)
	}
	if be.Kind != models.ErrDuplicateInjected {
		t.Fatalf("got kind %v, want %v", be.Kind, models.ErrDuplicateInjected)
	}
	if !strings.Contains(be.Message, "duplicate constructor argument") {
		t.Fatalf("message missing required substring, got %q", be.Message)
	}
}

func TestFrameReturnsUnresolvedServiceWhenUnregistered(t *testing.T) {
	resolver := fakeResolver{count: 0}
	p := diservice.New("CreateWidget", resolver, "e", "resolver", nil)

	_, err := p.Frame(&graph.Variable{Name: "widget", Type: reflect.TypeOf(widget{})})
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	be, ok := err.(*models.Error)
	if !ok {
		t.Fatalf("expected *models.Error, got %T", err)
	}
	if be.Kind != models.ErrUnresolvedService {
		t.Fatalf("got kind %v, want %v", be.Kind, models.ErrUnresolvedService)
	}
}
