package host

import (
	"context"
	"reflect"

	"github.com/blueprintapi/blueprint/internal/catalogbuilder"
	"github.com/blueprintapi/blueprint/internal/pipeline"
)

// HandlerDefinition is one end-user handler bound to an operation. Handlers
// are explicitly out of scope per spec.md §1 — this is only the shape the
// Execution stage needs to emit a call frame against.
type HandlerDefinition struct {
	// AcceptedType is the operation payload type (or a base type thereof)
	// this handler was registered against.
	AcceptedType reflect.Type

	Handle func(ctx context.Context, payload any) (any, error)
}

// OperationDefinition is everything a caller (pkg/host's user, typically
// cmd/server) declares about one API operation: its catalog spec, its
// handlers, and which built-in middleware stages apply to it.
type OperationDefinition struct {
	Spec catalogbuilder.OperationSpec

	Handlers []HandlerDefinition

	// ReturnType is the Go type handler results are asserted against.
	// Required when Spec.RequiresReturnValue is true.
	ReturnType reflect.Type

	// RequireAuth mounts the Authentication stage ahead of validation.
	RequireAuth bool

	// RequiredRole additionally mounts the Authorisation stage. Implies
	// RequireAuth.
	RequiredRole string

	ValidationRules []pipeline.Rule

	OperationCheck pipeline.OperationCheckFunc

	// Observe, when true, mounts the PostExecute telemetry stage against
	// the Host's shared TelemetrySink.
	Observe bool
}
