package catalogbuilder_test

import (
	"reflect"
	"testing"

	"github.com/blueprintapi/blueprint/internal/catalogbuilder"
	"github.com/blueprintapi/blueprint/pkg/models"
)

type createWidgetPayload struct {
	Email    string `json:"email"`
	AuthKey  string `source:"header" json:"authKey"`
	WidgetID string `source:"route"`
	secret   string
}

func TestBuildDiscoversPropertiesFromTags(t *testing.T) {
	descriptors, err := catalogbuilder.Build([]catalogbuilder.OperationSpec{
		{
			Name:        "CreateWidget",
			PayloadType: reflect.TypeOf(createWidgetPayload{}),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(descriptors) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(descriptors))
	}

	props := descriptors[0].Properties
	if len(props) != 3 {
		t.Fatalf("got %d properties, want 3 (unexported field must be skipped): %+v", len(props), props)
	}

	byName := map[string]models.PropertyDescriptor{}
	for _, p := range props {
		byName[p.Name] = p
	}

	if p, ok := byName["email"]; !ok || p.Source != models.SourceBody {
		t.Fatalf("expected email property sourced from body, got %+v (ok=%v)", p, ok)
	}
	if p, ok := byName["authKey"]; !ok || p.Source != models.SourceHeader {
		t.Fatalf("expected authKey property sourced from header, got %+v (ok=%v)", p, ok)
	}
	if p, ok := byName["WidgetID"]; !ok || p.Source != models.SourceRoute {
		t.Fatalf("expected WidgetID property sourced from route, got %+v (ok=%v)", p, ok)
	}
}

func TestBuildRejectsNonStructPayload(t *testing.T) {
	_, err := catalogbuilder.Build([]catalogbuilder.OperationSpec{
		{Name: "Broken", PayloadType: reflect.TypeOf("string")},
	})
	if err == nil {
		t.Fatal("expected an error for a non-struct payload type")
	}
}

func TestBuildRejectsMissingName(t *testing.T) {
	_, err := catalogbuilder.Build([]catalogbuilder.OperationSpec{
		{PayloadType: reflect.TypeOf(createWidgetPayload{})},
	})
	if err == nil {
		t.Fatal("expected an error for a missing operation name")
	}
}
