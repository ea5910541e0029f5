package pipeline

import (
	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/internal/writer"
)

// ExceptionStage contributes the single deferred-recover frame that turns
// any later frame's panic (internal/diservice's failed per-call Resolve,
// most commonly) into the method's named err return. It holds verbatim
// the "exception-wrapping frame" spec.md §4.7 calls out, expressed through
// pkg/bprt rather than a try/catch Go has no syntax for.
type ExceptionStage struct{}

func (ExceptionStage) Stage() Stage { return StageException }

func (ExceptionStage) AppendFrames(bc *BuilderContext) error {
	bc.Contribute(StageException, &graph.Frame{
		Label: "exception:recover",
		Emit: func(w *writer.Writer, live *graph.VariableSet) error {
			w.UsingNamespace("github.com/blueprintapi/blueprint/pkg/bprt")
			w.Write("defer bprt.RecoverToError(&err)")
			return nil
		},
	})
	return nil
}
