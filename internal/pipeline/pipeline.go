// Package pipeline composes the ordered middleware stages that contribute
// frames to one operation's generated method — C7 in SPEC_FULL.md §4.7.
// Each stage is driven by a MiddlewareBuilder; built-in contributors for
// every named stage ship alongside the composer itself, the same way the
// teacher ships concrete AuthProviders behind a pluggable chain.
package pipeline

import (
	"github.com/blueprintapi/blueprint/internal/graph"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// Stage is the fixed, ordered set of middleware stages a generated method
// body passes through, per spec.md §4.7.
type Stage int

const (
	// StageException wraps the entire body in a deferred panic recovery so
	// any frame further down — most notably internal/diservice's per-call
	// Resolve failure — becomes a normal returned error.
	StageException Stage = iota
	StageSetup
	StageAuthentication
	StageAuthorisation
	StageValidation
	StageOperationChecks
	StagePreExecute
	StageExecution
	StagePostExecute
	StageTeardown
)

func (s Stage) String() string {
	switch s {
	case StageException:
		return "Exception"
	case StageSetup:
		return "Setup"
	case StageAuthentication:
		return "Authentication"
	case StageAuthorisation:
		return "Authorisation"
	case StageValidation:
		return "Validation"
	case StageOperationChecks:
		return "OperationChecks"
	case StagePreExecute:
		return "PreExecute"
	case StageExecution:
		return "Execution"
	case StagePostExecute:
		return "PostExecute"
	case StageTeardown:
		return "Teardown"
	default:
		return "Unknown"
	}
}

// BuilderContext carries the per-operation state every MiddlewareBuilder
// needs to contribute its frames: the descriptor being compiled, the graph
// frames are contributed to, and the variables already guaranteed live
// before any stage runs (the context and raw request parameters).
type BuilderContext struct {
	Operation *models.OperationDescriptor

	Graph *graph.Graph

	// CtxVar is the context.Context parameter, always the first method
	// parameter.
	CtxVar *graph.Variable

	// RequestVar is the raw incoming parameter Setup assigns into Payload.
	RequestVar *graph.Variable

	// Payload is produced by the built-in Setup contributor and read by
	// every later stage that needs the operation payload.
	Payload *graph.Variable

	// Identity is produced by the Authentication stage once it succeeds;
	// nil until then.
	Identity *graph.Variable

	// Result is produced by the Execution stage when the operation
	// RequiresReturnValue; nil otherwise. Its Name must be "result" —
	// the identifier internal/methodbuilder gives the method's named
	// return value, which ExecutionStage assigns into directly.
	Result *graph.Variable
}

// Contribute stamps stage onto f and adds it to bc.Graph.
func (bc *BuilderContext) Contribute(stage Stage, f *graph.Frame) *graph.Frame {
	return bc.Graph.Contribute(int(stage), f)
}

// MiddlewareBuilder contributes zero or more frames to one stage of one
// operation's method body.
type MiddlewareBuilder interface {
	Stage() Stage
	AppendFrames(bc *BuilderContext) error
}

// Compose runs every builder against bc in the order given. Builders for
// different stages may be passed in any order — graph.Resolve's
// (Stage, InsertionIndex) placement is what actually orders the emitted
// frames, not the order AppendFrames is called in.
func Compose(bc *BuilderContext, builders []MiddlewareBuilder) error {
	for _, b := range builders {
		if err := b.AppendFrames(bc); err != nil {
			return err
		}
	}
	return nil
}
