package methodbuilder_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/methodbuilder"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/models"
)

func TestBuildEmitsSignatureBodyAndReturn(t *testing.T) {
	w := writer.New()
	g := graph.New("CreateWidget")

	ctxParam := &graph.Variable{Name: "ctx", Type: reflect.TypeOf((*int)(nil)).Elem()}
	value := &graph.Variable{Name: "value", Type: reflect.TypeOf("")}

	g.Contribute(0, &graph.Frame{
		Label:   "produce-value",
		Creates: []*graph.Variable{value},
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.Write(`value := "ok"`)
			return nil
		},
	})

	desc := methodbuilder.Descriptor{
		Name:                "Handle",
		ReceiverName:        "e",
		ReceiverType:        "CreateWidgetExecutor",
		Params:              []methodbuilder.Param{{Variable: ctxParam}},
		RequiresReturnValue: true,
		ReturnType:          value,
	}

	if err := methodbuilder.Build(w, "CreateWidget", desc, g, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := w.Body()
	if !strings.Contains(body, "func (e *CreateWidgetExecutor) Handle(ctx int) (result string, err error) {") {
		t.Fatalf("missing signature, got %q", body)
	}
	if !strings.Contains(body, `value := "ok"`) {
		t.Fatalf("missing body frame, got %q", body)
	}
	if !strings.Contains(body, "result = value") {
		t.Fatalf("missing return assignment, got %q", body)
	}
}

func TestBuildWithoutReturnValueReturnsBareError(t *testing.T) {
	w := writer.New()
	g := graph.New("Ping")

	desc := methodbuilder.Descriptor{
		Name:         "Handle",
		ReceiverName: "e",
		ReceiverType: "PingExecutor",
	}

	if err := methodbuilder.Build(w, "Ping", desc, g, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(w.Body(), "func (e *PingExecutor) Handle() (err error) {") {
		t.Fatalf("expected named error return signature, got %q", w.Body())
	}
	if !strings.Contains(w.Body(), "return") {
		t.Fatalf("expected bare return, got %q", w.Body())
	}
}

func TestBuildRaisesMissingReturnValue(t *testing.T) {
	w := writer.New()
	g := graph.New("CreateWidget")

	result := &graph.Variable{Name: "result", Type: reflect.TypeOf("")}
	desc := methodbuilder.Descriptor{
		Name:                "Handle",
		ReceiverName:        "e",
		ReceiverType:        "CreateWidgetExecutor",
		RequiresReturnValue: true,
		ReturnType:          result,
	}

	err := methodbuilder.Build(w, "CreateWidget", desc, g, nil)
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	be, ok := err.(*models.Error)
	if !ok {
		t.Fatalf("expected *models.Error, got %T", err)
	}
	if be.Kind != models.ErrMissingReturnValue {
		t.Fatalf("got kind %v, want %v", be.Kind, models.ErrMissingReturnValue)
	}
}
