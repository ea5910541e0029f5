package pipeline

import (
	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/writer"
)

// SetupStage assigns the operation payload variable from the method's
// first (non-context) parameter, per spec.md §4.7.
type SetupStage struct{}

func (SetupStage) Stage() Stage { return StageSetup }

func (SetupStage) AppendFrames(bc *BuilderContext) error {
	payload := bc.Payload
	request := bc.RequestVar
	bc.Contribute(StageSetup, &graph.Frame{
		Label:   "setup:payload",
		Creates: []*graph.Variable{payload},
		FindVariables: func(live *graph.VariableSet) []*graph.Variable {
			return []*graph.Variable{request}
		},
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.Write(payload.Name + " := " + request.Name)
			return nil
		},
	})
	return nil
}
