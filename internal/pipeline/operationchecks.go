package pipeline

import (
	"context"
	"fmt"

	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/writer"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// FeatureOperationCheck is the FeatureBag key OperationChecksStage looks
// for. Absent on most descriptors — this stage is a hook, not a
// requirement.
const FeatureOperationCheck models.FeatureKind = "operation_check"

// OperationCheckFunc is the feature-bag value type for
// FeatureOperationCheck, stored as a generated struct field and called
// inline rather than dispatched through reflection.
type OperationCheckFunc func(ctx context.Context, payload any) error

// OperationChecksStage is a hook stage for operation-specific
// preconditions, contributing a frame only when the descriptor's feature
// bag carries a FeatureOperationCheck entry.
type OperationChecksStage struct {
	ReceiverName string
	FieldName    string
}

func (OperationChecksStage) Stage() Stage { return StageOperationChecks }

func (s OperationChecksStage) AppendFrames(bc *BuilderContext) error {
	raw, ok := bc.Operation.Feature(FeatureOperationCheck)
	if !ok {
		return nil
	}
	if _, ok := raw.(OperationCheckFunc); !ok {
		return nil
	}

	ctxVar := bc.CtxVar
	payload := bc.Payload
	receiver := s.ReceiverName
	field := s.FieldName

	bc.Contribute(StageOperationChecks, &graph.Frame{
		Label: "operationchecks:precondition",
		FindVariables: func(live *graph.VariableSet) []*graph.Variable {
			return []*graph.Variable{ctxVar, payload}
		},
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.Write(fmt.Sprintf("BLOCK:if checkErr := %s.%s(%s, %s); checkErr != nil", receiver, field, ctxVar.Name, payload.Name))
			w.Write("err = checkErr")
			w.Write("return")
			w.FinishBlock()
			return nil
		},
	})
	return nil
}
