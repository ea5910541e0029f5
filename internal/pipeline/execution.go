package pipeline

import (
	"fmt"
	"reflect"

	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/typesystem"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// HandlerBinding is one end-user handler bound to an operation, known only
// by the struct field holding its function value — handlers themselves are
// explicitly out of scope per spec.md §1.
type HandlerBinding struct {
	// AcceptedType is the operation type (or a base type thereof) this
	// handler was registered against. When the operation's PayloadType is
	// an interface, AppendFrames checks it against the interface itself to
	// enforce spec.md §4.4's return-value gate.
	AcceptedType reflect.Type

	// FieldName is the generated struct field holding
	// func(context.Context, <payload>) (any, error).
	FieldName string
}

// ExecutionStage emits exactly one call frame per registered handler, in
// declaration order, per spec.md §4.7. When the method RequiresReturnValue,
// each call's result is attempted against bc.Result's type and kept on a
// successful assertion — the open-question resolution in SPEC_FULL.md §9
// (multiple handlers for one concrete type run in registration order).
type ExecutionStage struct {
	ReceiverName        string
	Handlers            []HandlerBinding
	RequiresReturnValue bool
}

func (ExecutionStage) Stage() Stage { return StageExecution }

func (s ExecutionStage) AppendFrames(bc *BuilderContext) error {
	ctxVar := bc.CtxVar
	payload := bc.Payload
	receiver := s.ReceiverName
	requiresReturn := s.RequiresReturnValue
	var resultType typesystem.Ref
	if requiresReturn {
		resultType = typesystem.For(bc.Result.Type)
	}

	if requiresReturn && bc.Operation.PayloadType != nil && bc.Operation.PayloadType.Kind() == reflect.Interface {
		payloadType := bc.Operation.PayloadType
		bound := false
		for _, h := range s.Handlers {
			if h.AcceptedType == payloadType {
				bound = true
				break
			}
		}
		if !bound {
			return &models.Error{
				Kind:      models.ErrMissingReturnValue,
				Operation: bc.Operation.Name,
				Message: "operation payload " + payloadType.String() + " is an interface requiring a return value, " +
					"but every bound handler is keyed to a concrete subtype — runtime polymorphic dispatch could " +
					"land on a concrete type none of them accept; bind a handler to " + payloadType.String() + " itself",
			}
		}
	}

	for i, h := range s.Handlers {
		handler := h
		raw := fmt.Sprintf("handlerResult%d", i)

		frame := &graph.Frame{
			Label: "execution:" + handler.FieldName,
			FindVariables: func(live *graph.VariableSet) []*graph.Variable {
				return []*graph.Variable{ctxVar, payload}
			},
			Emit: func(w *writer.Writer, live *graph.VariableSet) error {
				lhs, op := "_", "="
				if requiresReturn {
					lhs, op = raw, ":="
				}
				w.Write(fmt.Sprintf("%s, err %s %s.%s(%s, %s)", lhs, op, receiver, handler.FieldName, ctxVar.Name, payload.Name))
				w.Write("BLOCK:if err != nil")
				w.Write("return")
				w.FinishBlock()
				if requiresReturn {
					w.Write(fmt.Sprintf("BLOCK:if v, ok := %s.(%s); ok", raw, resultType.QualifiedName()))
					w.Write("result = v")
					w.FinishBlock()
				}
				return nil
			},
		}
		if requiresReturn {
			frame.Creates = []*graph.Variable{bc.Result}
		}
		bc.Contribute(StageExecution, frame)
	}
	return nil
}
