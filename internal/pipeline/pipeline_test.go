package pipeline_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/methodbuilder"
	"github.com/blueprintapi/blueprint/internal/pipeline"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/models"
)

type widgetPayload struct {
	Email string
}

type widgetEvent interface {
	WidgetID() string
}

type widgetCreated struct{}

func (widgetCreated) WidgetID() string { return "" }

func TestComposeBuildsFullMethodBody(t *testing.T) {
	g := graph.New("CreateWidget")

	ctxVar := &graph.Variable{Name: "ctx", Type: reflect.TypeOf((*context.Context)(nil)).Elem()}
	requestVar := &graph.Variable{Name: "req", Type: reflect.TypeOf(widgetPayload{})}
	payloadVar := &graph.Variable{Name: "payload", Type: reflect.TypeOf(widgetPayload{})}
	identityVar := &graph.Variable{Name: "identity", Type: reflect.TypeOf(&models.Identity{})}
	resultVar := &graph.Variable{Name: "result", Type: reflect.TypeOf("")}

	bc := &pipeline.BuilderContext{
		Operation: &models.OperationDescriptor{
			Name:                "CreateWidget",
			PayloadType:         reflect.TypeOf(widgetPayload{}),
			RequiresReturnValue: true,
		},
		Graph:      g,
		CtxVar:     ctxVar,
		RequestVar: requestVar,
		Payload:    payloadVar,
		Identity:   identityVar,
		Result:     resultVar,
	}

	builders := []pipeline.MiddlewareBuilder{
		pipeline.ExceptionStage{},
		pipeline.SetupStage{},
		pipeline.AuthenticationStage{ReceiverName: "e", ChainField: "authChain"},
		pipeline.ExecutionStage{
			ReceiverName:        "e",
			RequiresReturnValue: true,
			Handlers: []pipeline.HandlerBinding{
				{AcceptedType: reflect.TypeOf(widgetPayload{}), FieldName: "handler0"},
			},
		},
		pipeline.PostExecuteStage{ReceiverName: "e", FieldName: "telemetry"},
	}

	if err := pipeline.Compose(bc, builders); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := writer.New()
	desc := methodbuilder.Descriptor{
		Name:                "Handle",
		ReceiverName:        "e",
		ReceiverType:        "CreateWidgetExecutor",
		Params:              []methodbuilder.Param{{Variable: ctxVar}, {Variable: requestVar}},
		RequiresReturnValue: true,
		ReturnType:          resultVar,
	}

	if err := methodbuilder.Build(w, "CreateWidget", desc, g, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := w.Body()
	for _, want := range []string{
		"defer bprt.RecoverToError(&err)",
		"payload := req",
		"e.authChain.Authenticate(ctx)",
		"e.handler0(ctx, payload)",
		"e.telemetry.Observe(ctx,",
		"result = result",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q, got:\n%s", want, body)
		}
	}
}

func TestValidationStageShortCircuitsOnFailure(t *testing.T) {
	g := graph.New("CreateWidget")
	payloadVar := &graph.Variable{Name: "payload", Type: reflect.TypeOf(widgetPayload{})}

	bc := &pipeline.BuilderContext{
		Operation: &models.OperationDescriptor{Name: "CreateWidget"},
		Graph:     g,
		Payload:   payloadVar,
	}

	stage := pipeline.ValidationStage{
		ReceiverName: "e",
		Rules: []pipeline.Rule{
			{Property: "Email", Attribute: pipeline.Required{}},
		},
	}
	if err := stage.AppendFrames(bc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	placed, err := g.Resolve([]*graph.Variable{payloadVar}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := writer.New()
	live := graph.NewVariableSet()
	live.Add(payloadVar)
	for _, f := range placed {
		if err := f.Emit(w, live); err != nil {
			t.Fatalf("unexpected emit error: %v", err)
		}
	}

	body := w.Body()
	if !strings.Contains(body, "e.rule0.Validate(payload.Email)") {
		t.Fatalf("missing rule call, got %q", body)
	}
	if !strings.Contains(body, "models.ErrValidationFailed") {
		t.Fatalf("missing validation failure short-circuit, got %q", body)
	}
}

func TestExecutionStageDiscardsHandlerResultWhenNoReturnValueRequired(t *testing.T) {
	g := graph.New("EmailNotification")
	ctxVar := &graph.Variable{Name: "ctx", Type: reflect.TypeOf((*context.Context)(nil)).Elem()}
	payloadVar := &graph.Variable{Name: "payload", Type: reflect.TypeOf(widgetPayload{})}

	bc := &pipeline.BuilderContext{
		Operation: &models.OperationDescriptor{Name: "EmailNotification"},
		Graph:     g,
		CtxVar:    ctxVar,
		Payload:   payloadVar,
	}

	stage := pipeline.ExecutionStage{
		ReceiverName:        "e",
		RequiresReturnValue: false,
		Handlers: []pipeline.HandlerBinding{
			{AcceptedType: reflect.TypeOf(widgetPayload{}), FieldName: "handler0"},
		},
	}
	if err := stage.AppendFrames(bc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	placed, err := g.Resolve([]*graph.Variable{ctxVar, payloadVar}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := writer.New()
	live := graph.NewVariableSet()
	live.Add(ctxVar)
	live.Add(payloadVar)
	for _, f := range placed {
		if err := f.Emit(w, live); err != nil {
			t.Fatalf("unexpected emit error: %v", err)
		}
	}

	body := w.Body()
	if !strings.Contains(body, "_, err = e.handler0(ctx, payload)") {
		t.Fatalf("expected handler result to be discarded via _, got:\n%s", body)
	}
	if strings.Contains(body, "handlerResult0") {
		t.Fatalf("did not expect an unused handlerResult0 declaration, got:\n%s", body)
	}
}

func TestExecutionStageRejectsInterfacePayloadWithOnlyConcreteHandler(t *testing.T) {
	g := graph.New("OnWidgetEvent")
	ctxVar := &graph.Variable{Name: "ctx", Type: reflect.TypeOf((*context.Context)(nil)).Elem()}
	payloadVar := &graph.Variable{Name: "payload", Type: reflect.TypeOf((*widgetEvent)(nil)).Elem()}
	resultVar := &graph.Variable{Name: "result", Type: reflect.TypeOf("")}

	bc := &pipeline.BuilderContext{
		Operation: &models.OperationDescriptor{
			Name:                "OnWidgetEvent",
			PayloadType:         reflect.TypeOf((*widgetEvent)(nil)).Elem(),
			RequiresReturnValue: true,
		},
		Graph:   g,
		CtxVar:  ctxVar,
		Payload: payloadVar,
		Result:  resultVar,
	}

	stage := pipeline.ExecutionStage{
		ReceiverName:        "e",
		RequiresReturnValue: true,
		Handlers: []pipeline.HandlerBinding{
			{AcceptedType: reflect.TypeOf(widgetCreated{}), FieldName: "handler0"},
		},
	}

	err := stage.AppendFrames(bc)
	if err == nil {
		t.Fatal("expected an error when no handler is bound to the interface payload itself")
	}
	be, ok := err.(*models.Error)
	if !ok {
		t.Fatalf("expected *models.Error, got %T", err)
	}
	if be.Kind != models.ErrMissingReturnValue {
		t.Fatalf("got kind %v, want %v", be.Kind, models.ErrMissingReturnValue)
	}
}

func TestExecutionStageAcceptsHandlerBoundToInterfacePayloadItself(t *testing.T) {
	g := graph.New("OnWidgetEvent")
	ctxVar := &graph.Variable{Name: "ctx", Type: reflect.TypeOf((*context.Context)(nil)).Elem()}
	payloadVar := &graph.Variable{Name: "payload", Type: reflect.TypeOf((*widgetEvent)(nil)).Elem()}
	resultVar := &graph.Variable{Name: "result", Type: reflect.TypeOf("")}

	bc := &pipeline.BuilderContext{
		Operation: &models.OperationDescriptor{
			Name:                "OnWidgetEvent",
			PayloadType:         reflect.TypeOf((*widgetEvent)(nil)).Elem(),
			RequiresReturnValue: true,
		},
		Graph:   g,
		CtxVar:  ctxVar,
		Payload: payloadVar,
		Result:  resultVar,
	}

	stage := pipeline.ExecutionStage{
		ReceiverName:        "e",
		RequiresReturnValue: true,
		Handlers: []pipeline.HandlerBinding{
			{AcceptedType: reflect.TypeOf((*widgetEvent)(nil)).Elem(), FieldName: "handler0"},
		},
	}

	if err := stage.AppendFrames(bc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequiredAttributeRejectsZeroValue(t *testing.T) {
	r := pipeline.Required{}
	if ok, _ := r.Validate(""); ok {
		t.Fatal("expected empty string to fail required")
	}
	if ok, _ := r.Validate("set"); !ok {
		t.Fatal("expected non-empty string to pass required")
	}
}

func TestExprAttributeEvaluatesPredicate(t *testing.T) {
	e := pipeline.Expr{Expression: "len(value) > 3"}
	if ok, _ := e.Validate("ab"); ok {
		t.Fatal("expected short string to fail expr rule")
	}
	if ok, _ := e.Validate("abcd"); !ok {
		t.Fatal("expected long string to pass expr rule")
	}
}
