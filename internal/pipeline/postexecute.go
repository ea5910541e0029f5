package pipeline

import (
	"fmt"

	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/writer"
)

// PostExecuteStage forwards a (operation, status, duration) observation to
// contracts.TelemetrySink on the success path only — the Design Notes
// resolution in SPEC_FULL.md §9: PostExecute frames never observe the
// exception path, which is handled entirely by StageException.
type PostExecuteStage struct {
	ReceiverName string
	FieldName    string
	StartVar     *graph.Variable // time.Time to measure from; when nil the duration is reported as 0
}

func (PostExecuteStage) Stage() Stage { return StagePostExecute }

func (s PostExecuteStage) AppendFrames(bc *BuilderContext) error {
	ctxVar := bc.CtxVar
	receiver := s.ReceiverName
	field := s.FieldName
	opName := bc.Operation.Name
	startVar := s.StartVar

	frame := &graph.Frame{
		Label: "postexecute:telemetry",
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.UsingNamespace("github.com/blueprintapi/blueprint/pkg/models")
			durationExpr := "0"
			if startVar != nil {
				w.UsingNamespace("time")
				durationExpr = "time.Since(" + startVar.Name + ").Milliseconds()"
			}
			ctxName := "context.Background()"
			if ctxVar != nil {
				ctxName = ctxVar.Name
			} else {
				w.UsingNamespace("context")
			}
			w.Write(fmt.Sprintf("%s.%s.Observe(%s, %q, %s, models.ErrorKind(\"\"))", receiver, field, ctxName, opName, durationExpr))
			return nil
		},
	}
	if startVar != nil {
		frame.FindVariables = func(live *graph.VariableSet) []*graph.Variable {
			return []*graph.Variable{startVar}
		}
	}
	bc.Contribute(StagePostExecute, frame)
	return nil
}
