package typesystem_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/blueprintapi/blueprint/internal/typesystem"
)

type Widget struct{ Name string }

func TestLocalIdentifierLowercasesFirstRune(t *testing.T) {
	ref := typesystem.For(reflect.TypeOf(Widget{}))
	if got := ref.LocalIdentifier(); got != "widget" {
		t.Fatalf("got %q, want %q", got, "widget")
	}
}

func TestLocalIdentifierThroughPointerAndSlice(t *testing.T) {
	ref := typesystem.For(reflect.TypeOf([]*Widget{}))
	if got := ref.LocalIdentifier(); got != "widget" {
		t.Fatalf("got %q, want %q", got, "widget")
	}
}

func TestNamespacesCollectsPackagePath(t *testing.T) {
	ref := typesystem.For(reflect.TypeOf(context.Background()))
	ns := ref.Namespaces()
	found := false
	for _, n := range ns {
		if n == "context" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected context in namespaces, got %v", ns)
	}
}

func TestQualifiedNameRendersPointer(t *testing.T) {
	ref := typesystem.For(reflect.TypeOf(&Widget{}))
	got := ref.QualifiedName()
	if got == "" {
		t.Fatal("expected non-empty qualified name")
	}
}

func TestQualifiedNameRendersFuncSignature(t *testing.T) {
	var fn func(context.Context, any) (any, error)
	ref := typesystem.For(reflect.TypeOf(&fn).Elem())
	got := ref.QualifiedName()
	want := "func(context.Context, interface{}) (interface{}, error)"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestQualifiedNameRendersEmptyInterface(t *testing.T) {
	var v any
	ref := typesystem.For(reflect.TypeOf(&v).Elem())
	if got := ref.QualifiedName(); got != "interface{}" {
		t.Fatalf("got %q, want %q", got, "interface{}")
	}
}

func TestNamespacesCollectsThroughFuncSignature(t *testing.T) {
	var fn func(context.Context) error
	ref := typesystem.For(reflect.TypeOf(&fn).Elem())
	ns := ref.Namespaces()
	found := false
	for _, n := range ns {
		if n == "context" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected context in namespaces, got %v", ns)
	}
}
